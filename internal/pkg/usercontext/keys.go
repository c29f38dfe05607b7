package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyUserID     = "user_id"
	KeyUsername   = "username"
	KeyEmail      = "user_email"
	KeyExternalID = "external_id"
	KeyIsAdmin    = "isAdmin"
	KeyUserPlan   = "user_plan"
)
