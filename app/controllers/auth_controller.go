package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/session"
	"github.com/andresvl/aulaviva/internal/pkg/usercontext"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// HandleOAuthBegin starts the provider flow.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	users := repository.GetGlobalRepositories().User

	appUser, err := users.GetByProviderExternalID(u.Provider, u.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Optional email match so a returning buyer keeps their history.
		if u.Email != "" {
			appUser, _ = users.GetByEmail(u.Email)
		}
		if appUser == nil {
			email := u.Email
			if email == "" {
				// Ensure unique, non-empty email to satisfy unique index semantics in MySQL
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			appUser = &models.User{
				Provider:   u.Provider,
				ExternalID: u.UserID,
				Name:       firstNonEmpty(u.Name, u.NickName, u.Email, "Estudiante"),
				Email:      email,
				AvatarURL:  u.AvatarURL,
				Role:       models.ROLE_USER,
				Status:     models.STATUS_ACTIVE,
				PlanName:   models.PlanGratis,
			}
			if err := users.Create(appUser); err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
			}
		} else {
			// Link the provider identity to the email-matched account.
			appUser.Provider = u.Provider
			appUser.ExternalID = u.UserID
			if appUser.AvatarURL == "" {
				appUser.AvatarURL = u.AvatarURL
			}
			if err := users.Update(appUser); err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link provider failed: %v", err))
			}
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", err))
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	sess.Set(usercontext.KeyUserID, appUser.ID)
	sess.Set(usercontext.KeyUsername, appUser.Name)
	sess.Set(usercontext.KeyEmail, appUser.Email)
	sess.Set(usercontext.KeyExternalID, appUser.ExternalID)
	sess.Set(usercontext.KeyIsAdmin, appUser.IsAdmin())
	plan := appUser.PlanName
	if plan == "" {
		plan = models.PlanGratis
	}
	sess.Set(usercontext.KeyUserPlan, plan)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	if err := users.TouchLastLogin(appUser.ID, time.Now()); err != nil {
		fiberlog.Warnf("oauth callback: updating last login failed user=%d: %v", appUser.ID, err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleLogout drops both the OAuth state and the app session.
func HandleLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		fiberlog.Warnf("logout: clearing oauth session failed: %v", err)
	}
	if err := session.DestroySession(c); err != nil {
		fiberlog.Warnf("logout: destroying app session failed: %v", err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleMe returns the caller's profile snapshot.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "login required", "")
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		return billingError(c, err)
	}

	subs, err := BillingService().ListActiveSubscriptions(c.UserContext(), user.ID, "")
	if err != nil {
		return billingError(c, err)
	}

	resp := fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"avatarUrl": user.AvatarURL,
			"plan":      user.PlanName,
			"isAdmin":   user.IsAdmin(),
		},
	}
	if len(subs) > 0 {
		sub := subs[0]
		item := fiber.Map{
			"id":     sub.ID,
			"status": sub.Status,
			"cycle":  sub.BillingCycle,
		}
		if sub.Plan != nil {
			item["plan"] = sub.Plan.Name
		}
		if sub.CurrentPeriodEnd != nil {
			item["currentPeriodEnd"] = sub.CurrentPeriodEnd
		}
		resp["subscription"] = item
	}
	return c.JSON(resp)
}
