package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/andresvl/aulaviva/app/controllers"
	"github.com/andresvl/aulaviva/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 120,
	}))

	api.Get("/me", controllers.HandleMe)

	// Checkout and reconciliation
	payu := api.Group("/payu")
	payu.Post("/create-payment", controllers.HandleCreatePayment)
	payu.Get("/create-payment", controllers.HandlePaymentStatus)
	// Server-to-server confirmation from the processor; unauthenticated by
	// design, protected by the payload signature.
	payu.Post("/confirmation", controllers.HandlePayUConfirmation)

	// QA activation path
	test := api.Group("/test")
	test.Post("/activate-subscription", controllers.HandleActivateSubscription)
	test.Get("/activate-subscription", controllers.HandleListActiveSubscriptions)

	// Manual transfer receipts
	api.Post("/payments/transfer-proof", middleware.RequireAuth, controllers.HandleTransferProofUpload)

	// Catalog and community
	api.Get("/courses", controllers.HandleCourseList)
	api.Get("/courses/:slug", controllers.HandleCourseDetail)

	forum := api.Group("/forum")
	forum.Get("/posts", controllers.HandleForumPostList)
	forum.Get("/posts/:id", controllers.HandleForumPostDetail)
	forum.Post("/posts", controllers.HandleForumPostCreate)
	forum.Post("/posts/:id/replies", controllers.HandleForumReplyCreate)
	forum.Post("/posts/:id/like", controllers.HandleForumPostLike)

	// Back-office
	admin := api.Group("/admin", middleware.RequireAdmin)
	admin.Get("/settings", controllers.HandleAdminSettingsList)
	admin.Post("/settings", controllers.HandleAdminSettingUpdate)
	admin.Get("/promo-codes", controllers.HandleAdminPromoCodeList)
	admin.Post("/promo-codes", controllers.HandleAdminPromoCodeCreate)
	admin.Put("/promo-codes/:id", controllers.HandleAdminPromoCodeUpdate)
	admin.Delete("/promo-codes/:id", controllers.HandleAdminPromoCodeDelete)
	admin.Get("/transfer-proofs", controllers.HandleAdminProofList)
	admin.Post("/transfer-proofs/:id/verify", controllers.HandleAdminProofVerify)
	admin.Get("/metrics", controllers.HandleAdminMetrics)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
