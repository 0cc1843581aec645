package middlewares

const (
	CtxRequestID = "request_id"
	CtxUserID    = "user_id"
	CtxEmail     = "email"
)
