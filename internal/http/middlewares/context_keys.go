package middlewares

// Keys under which middlewares stash request-scoped values on the gin context.
const (
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRole      = "auth.role"
	CtxRequestID = "request_id"
)
