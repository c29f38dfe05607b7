package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/andresvl/aulaviva/internal/pkg/cache"
)

const (
	paymentIntentsKey   = "payments:counters:intents"
	confirmationsKey    = "payments:counters:confirmations"
	activationsKey      = "payments:counters:activations"
	sweeperAbandonedKey = "payments:counters:abandoned"
	sweeperExpiredKey   = "payments:counters:expired_subscriptions"
	proofsUploadedKey   = "payments:counters:proofs_uploaded"
)

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func incr(key string) error {
	return cache.GetClient().HIncrBy(context.Background(), key, today(), 1).Err()
}

// AddPaymentIntent increments the daily checkout-intent counter in Redis
func AddPaymentIntent() error {
	return incr(paymentIntentsKey)
}

// AddConfirmation increments the daily processor-confirmation counter in Redis
func AddConfirmation() error {
	return incr(confirmationsKey)
}

// AddActivation increments the daily direct-activation counter in Redis
func AddActivation() error {
	return incr(activationsKey)
}

// AddAbandoned increments the daily sweeper-abandon counter in Redis
func AddAbandoned(n int) error {
	if n <= 0 {
		return nil
	}
	return cache.GetClient().HIncrBy(context.Background(), sweeperAbandonedKey, today(), int64(n)).Err()
}

// AddExpiredSubscriptions increments the daily subscription-expiry counter in Redis
func AddExpiredSubscriptions(n int) error {
	if n <= 0 {
		return nil
	}
	return cache.GetClient().HIncrBy(context.Background(), sweeperExpiredKey, today(), int64(n)).Err()
}

// AddProofUpload increments the daily transfer-proof counter in Redis
func AddProofUpload() error {
	return incr(proofsUploadedKey)
}

// Snapshot returns the per-day values of every payment counter for the admin
// dashboard. Missing days are simply absent from the maps.
func Snapshot() (map[string]map[string]int64, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	out := make(map[string]map[string]int64, 6)
	keys := map[string]string{
		"intents":               paymentIntentsKey,
		"confirmations":         confirmationsKey,
		"activations":           activationsKey,
		"abandoned":             sweeperAbandonedKey,
		"expired_subscriptions": sweeperExpiredKey,
		"proofs_uploaded":       proofsUploadedKey,
	}
	for name, key := range keys {
		data, err := rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		days := make(map[string]int64, len(data))
		for day, v := range data {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				days[day] = n
			}
		}
		out[name] = days
	}
	return out, nil
}
