package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/billing"
	"github.com/andresvl/aulaviva/internal/pkg/env"
	"github.com/andresvl/aulaviva/internal/pkg/metrics/counter"
)

// Manager runs the periodic billing sweeps: abandoning stale checkouts,
// expiring lapsed subscriptions and flagging overdue transfer receipts.
type Manager struct {
	svc *billing.Service

	sweepInterval time.Duration
	abandonAfter  time.Duration
	sweepTicker   *time.Ticker
	proofTicker   *time.Ticker
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global sweep manager (singleton).
func GetManager(svc *billing.Service) *Manager {
	managerOnce.Do(func() {
		interval := 5 * time.Minute
		if raw := env.GetEnv("SWEEP_INTERVAL_MINUTES", ""); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 {
				interval = time.Duration(v) * time.Minute
			}
		}
		abandonAfter := 24 * time.Hour
		if raw := env.GetEnv("CHECKOUT_ABANDON_HOURS", ""); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 {
				abandonAfter = time.Duration(v) * time.Hour
			}
		}
		globalManager = &Manager{
			svc:           svc,
			sweepInterval: interval,
			abandonAfter:  abandonAfter,
			stopCh:        make(chan struct{}),
		}
	})
	return globalManager
}

// Start begins the background sweeps.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true

	m.sweepTicker = time.NewTicker(m.sweepInterval)
	m.proofTicker = time.NewTicker(time.Hour)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-m.sweepTicker.C:
				m.runBillingSweep()
			case <-m.proofTicker.C:
				m.flagOverdueProofs()
			case <-m.stopCh:
				return
			}
		}
	}()

	log.Infof("[Worker] sweep manager started (interval=%s, abandon after=%s)", m.sweepInterval, m.abandonAfter)
}

// Stop halts the sweeps and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false

	m.sweepTicker.Stop()
	m.proofTicker.Stop()
	close(m.stopCh)
	m.wg.Wait()

	log.Info("[Worker] sweep manager stopped")
}

func (m *Manager) runBillingSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	abandoned, err := m.svc.SweepAbandonedTransactions(ctx, m.abandonAfter)
	if err != nil {
		log.Errorf("[Worker] abandoning stale checkouts failed: %v", err)
	} else if abandoned > 0 {
		log.Infof("[Worker] abandoned %d stale checkouts", abandoned)
		_ = counter.AddAbandoned(abandoned)
	}

	expired, err := m.svc.ExpireLapsedSubscriptions(ctx)
	if err != nil {
		log.Errorf("[Worker] expiring lapsed subscriptions failed: %v", err)
	} else if expired > 0 {
		log.Infof("[Worker] expired %d lapsed subscriptions", expired)
		_ = counter.AddExpiredSubscriptions(expired)
	}
}

// flagOverdueProofs only surfaces receipts past their review deadline; a
// human decides the verdict, never the sweeper.
func (m *Manager) flagOverdueProofs() {
	overdue, err := repository.GetGlobalRepositories().Proof.ListOverdue(time.Now())
	if err != nil {
		log.Errorf("[Worker] listing overdue proofs failed: %v", err)
		return
	}
	for _, p := range overdue {
		log.Warnf("[Worker] transfer proof %d (user %d, status %s) is past its review deadline %s",
			p.ID, p.UserID, models.ProofStatusPendiente, p.ReviewDeadline.Format(time.RFC3339))
	}
}
