package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/metrics/counter"
	"github.com/andresvl/aulaviva/internal/pkg/promocode"
	"gorm.io/gorm"
)

// HandleAdminSettingsList returns every configuration row.
func HandleAdminSettingsList(c *fiber.Ctx) error {
	settings, err := repository.GetGlobalRepositories().Setting.GetAll()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"settings": settings,
	})
}

type settingUpdateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HandleAdminSettingUpdate upserts a configuration value and refreshes the
// in-memory settings cache.
func HandleAdminSettingUpdate(c *fiber.Ctx) error {
	var req settingUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}
	if req.Key == "" {
		return jsonError(c, fiber.StatusBadRequest, "key is required", "")
	}

	if err := repository.GetGlobalRepositories().Setting.SetValue(req.Key, req.Value); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.JSON(fiber.Map{
		"success": true,
		"setting": fiber.Map{"key": req.Key, "value": req.Value},
	})
}

type promoCodeRequest struct {
	Code          string     `json:"code"`
	Description   string     `json:"description"`
	DiscountType  string     `json:"discountType"`
	DiscountValue int64      `json:"discountValue"`
	MaxUses       *int       `json:"maxUses"`
	ValidFrom     *time.Time `json:"validFrom"`
	ValidUntil    *time.Time `json:"validUntil"`
	IsActive      *bool      `json:"isActive"`
	PlanName      string     `json:"planName"`
	MinPurchase   *int64     `json:"minPurchase"`
}

// applyPromoCodeUpdate folds a partial update into an existing code. Omitted
// fields keep their stored value; only fields the request carries change.
func applyPromoCodeUpdate(pc *models.PromoCode, req *promoCodeRequest) error {
	if req.Description != "" {
		pc.Description = req.Description
	}
	if req.DiscountType != "" {
		if req.DiscountType != models.DiscountTypePercent && req.DiscountType != models.DiscountTypeFixed {
			return errors.New("discountType must be percent or fixed")
		}
		pc.DiscountType = req.DiscountType
	}
	if req.DiscountValue > 0 {
		pc.DiscountValue = req.DiscountValue
	}
	if req.MaxUses != nil {
		if *req.MaxUses < 0 {
			return errors.New("maxUses cannot be negative")
		}
		pc.MaxUses = *req.MaxUses
	}
	if req.ValidFrom != nil {
		pc.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		pc.ValidUntil = req.ValidUntil
	}
	if req.IsActive != nil {
		pc.IsActive = *req.IsActive
	}
	if req.PlanName != "" {
		pc.PlanName = req.PlanName
	}
	if req.MinPurchase != nil {
		if *req.MinPurchase < 0 {
			return errors.New("minPurchase cannot be negative")
		}
		pc.MinPurchase = *req.MinPurchase
	}
	if pc.DiscountType == models.DiscountTypePercent && pc.DiscountValue > 100 {
		return errors.New("percent discount cannot exceed 100")
	}
	return nil
}

func promoCodeJSON(pc *models.PromoCode, now time.Time) fiber.Map {
	return fiber.Map{
		"id":            pc.ID,
		"code":          pc.Code,
		"description":   pc.Description,
		"discountType":  pc.DiscountType,
		"discountValue": pc.DiscountValue,
		"maxUses":       pc.MaxUses,
		"usedCount":     pc.UsedCount,
		"validFrom":     pc.ValidFrom,
		"validUntil":    pc.ValidUntil,
		"isActive":      pc.IsActive,
		"planName":      pc.PlanName,
		"minPurchase":   pc.MinPurchase,
		"status":        promocode.DeriveStatus(now, pc),
	}
}

// HandleAdminPromoCodeList lists promo codes with their derived status.
func HandleAdminPromoCodeList(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	repo := repository.GetGlobalRepositories().Promo
	codes, err := repo.List(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	total, err := repo.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}

	now := time.Now()
	items := make([]fiber.Map, 0, len(codes))
	for i := range codes {
		items = append(items, promoCodeJSON(&codes[i], now))
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"promoCodes": items,
		"total":      total,
	})
}

// HandleAdminPromoCodeCreate creates a promo code.
func HandleAdminPromoCodeCreate(c *fiber.Ctx) error {
	var req promoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}
	if promocode.Normalize(req.Code) == "" {
		return jsonError(c, fiber.StatusBadRequest, "code is required", "")
	}
	if req.DiscountType != models.DiscountTypePercent && req.DiscountType != models.DiscountTypeFixed {
		return jsonError(c, fiber.StatusBadRequest, "discountType must be percent or fixed", "")
	}
	if req.DiscountValue <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "discountValue must be positive", "")
	}
	if req.DiscountType == models.DiscountTypePercent && req.DiscountValue > 100 {
		return jsonError(c, fiber.StatusBadRequest, "percent discount cannot exceed 100", "")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	maxUses := 0
	if req.MaxUses != nil {
		if *req.MaxUses < 0 {
			return jsonError(c, fiber.StatusBadRequest, "maxUses cannot be negative", "")
		}
		maxUses = *req.MaxUses
	}
	var minPurchase int64
	if req.MinPurchase != nil {
		if *req.MinPurchase < 0 {
			return jsonError(c, fiber.StatusBadRequest, "minPurchase cannot be negative", "")
		}
		minPurchase = *req.MinPurchase
	}
	pc := &models.PromoCode{
		Code:          promocode.Normalize(req.Code),
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxUses:       maxUses,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		IsActive:      isActive,
		PlanName:      req.PlanName,
		MinPurchase:   minPurchase,
	}
	if err := repository.GetGlobalRepositories().Promo.Create(pc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return jsonError(c, fiber.StatusConflict, "code already exists", "")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"promoCode": promoCodeJSON(pc, time.Now()),
	})
}

// HandleAdminPromoCodeUpdate updates an existing promo code.
func HandleAdminPromoCodeUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid promo code id", "")
	}

	repo := repository.GetGlobalRepositories().Promo
	pc, err := repo.GetByID(uint(id))
	if err != nil {
		return billingError(c, err)
	}

	var req promoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}

	if err := applyPromoCodeUpdate(pc, &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error(), "")
	}

	if err := repo.Update(pc); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"promoCode": promoCodeJSON(pc, time.Now()),
	})
}

// HandleAdminPromoCodeDelete removes a promo code.
func HandleAdminPromoCodeDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid promo code id", "")
	}
	if _, err := repository.GetGlobalRepositories().Promo.GetByID(uint(id)); err != nil {
		return billingError(c, err)
	}
	if err := repository.GetGlobalRepositories().Promo.Delete(uint(id)); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleAdminMetrics returns the per-day payment counters.
func HandleAdminMetrics(c *fiber.Ctx) error {
	snapshot, err := counter.Snapshot()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"counters": snapshot,
	})
}
