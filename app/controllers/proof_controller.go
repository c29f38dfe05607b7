package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/billing"
	"github.com/andresvl/aulaviva/internal/pkg/metrics/counter"
	"github.com/andresvl/aulaviva/internal/pkg/storage"
	"github.com/andresvl/aulaviva/internal/pkg/usercontext"
)

const defaultTransferSLAHours = 48

func transferSLA() time.Duration {
	hours := defaultTransferSLAHours
	if raw := models.GetSettingValue(models.SettingTransferSLAHours, ""); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			hours = v
		}
	}
	return time.Duration(hours) * time.Hour
}

// HandleTransferProofUpload accepts a bank transfer receipt for a pending
// manual payment. The receipt goes to object storage; the review row carries
// a deadline derived from the configured SLA.
func HandleTransferProofUpload(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "login required", "")
	}

	referenceCode := strings.TrimSpace(c.FormValue("referenceCode"))
	if referenceCode == "" {
		return jsonError(c, fiber.StatusBadRequest, "referenceCode is required", "")
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "proof file is required", err.Error())
	}

	tx, err := BillingService().GetPaymentStatus(c.UserContext(), referenceCode, "")
	if err != nil {
		return billingError(c, err)
	}
	if tx.UserID != userCtx.UserID {
		return jsonError(c, fiber.StatusNotFound, "not found", "transaction belongs to another user")
	}
	if tx.Method != models.PaymentMethodTransfer {
		return jsonError(c, fiber.StatusBadRequest, "transaction is not a transfer payment", "")
	}
	if tx.IsTerminal() {
		return jsonError(c, fiber.StatusConflict, "payment already settled", "")
	}

	proofs := repository.GetGlobalRepositories().Proof
	if existing, err := proofs.GetPendingByTransaction(tx.ID); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "a receipt is already under review", "")
	}

	stor, err := storage.GetProofStore()
	if err != nil {
		fiberlog.Errorf("transfer proof: storage unavailable: %v", err)
		return jsonError(c, fiber.StatusServiceUnavailable, "receipt storage unavailable", err.Error())
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "cannot read proof file", err.Error())
	}
	defer file.Close()

	now := time.Now()
	objectKey := storage.ProofObjectKey(fileHeader.Filename, now)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := stor.Put(c.UserContext(), objectKey, contentType, file); err != nil {
		fiberlog.Errorf("transfer proof: upload failed: %v", err)
		return jsonError(c, fiber.StatusBadGateway, "receipt upload failed", err.Error())
	}

	proof := &models.PaymentProof{
		TransactionID:    tx.ID,
		UserID:           userCtx.UserID,
		ObjectKey:        objectKey,
		OriginalFilename: fileHeader.Filename,
		Status:           models.ProofStatusPendiente,
		ReviewDeadline:   now.Add(transferSLA()),
	}
	if err := proofs.Create(proof); err != nil {
		// Keep storage and database consistent.
		_ = stor.Delete(c.UserContext(), objectKey)
		fiberlog.Errorf("transfer proof: persisting review row failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}

	_ = counter.AddProofUpload()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"proof": fiber.Map{
			"id":             proof.ID,
			"status":         proof.Status,
			"reviewDeadline": proof.ReviewDeadline,
		},
	})
}

// HandleAdminProofList returns receipts awaiting review, oldest first.
func HandleAdminProofList(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	proofs, err := repository.GetGlobalRepositories().Proof.ListPending(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}

	items := make([]fiber.Map, 0, len(proofs))
	for _, p := range proofs {
		item := fiber.Map{
			"id":             p.ID,
			"userId":         p.UserID,
			"filename":       p.OriginalFilename,
			"reviewDeadline": p.ReviewDeadline,
			"uploadedAt":     p.CreatedAt,
			"overdue":        time.Now().After(p.ReviewDeadline),
		}
		if p.Transaction != nil {
			item["referenceCode"] = p.Transaction.ReferenceCode
			item["amount"] = p.Transaction.Amount
			item["currency"] = p.Transaction.Currency
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"proofs":  items,
	})
}

type proofVerifyRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// HandleAdminProofVerify settles a manual payment after an operator reviewed
// the receipt. Approval and rejection both run through the same payment state
// machine as processor confirmations.
func HandleAdminProofVerify(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid proof id", "")
	}

	var req proofVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}

	proofs := repository.GetGlobalRepositories().Proof
	proof, err := proofs.GetByID(uint(id))
	if err != nil {
		return billingError(c, err)
	}
	if proof.Status != models.ProofStatusPendiente {
		return jsonError(c, fiber.StatusConflict, "proof already reviewed", "")
	}
	if proof.Transaction == nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", "proof has no transaction")
	}

	status := models.PaymentStatusDeclined
	proofStatus := models.ProofStatusRechazado
	if req.Approve {
		status = models.PaymentStatusApproved
		proofStatus = models.ProofStatusVerificado
	}

	if _, err := BillingService().ApplyPaymentResult(c.UserContext(), proof.Transaction.ReferenceCode, billing.PaymentResult{
		Status: status,
		Note:   req.Note,
	}); err != nil {
		fiberlog.Errorf("proof verify: applying result failed proof=%d: %v", proof.ID, err)
		return billingError(c, err)
	}

	now := time.Now()
	proof.Status = proofStatus
	proof.ReviewerNote = req.Note
	proof.ReviewedAt = &now
	if err := proofs.Update(proof); err != nil {
		fiberlog.Errorf("proof verify: updating proof row failed proof=%d: %v", proof.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"proof": fiber.Map{
			"id":     proof.ID,
			"status": proof.Status,
		},
	})
}
