package httpx

type ctxKey string

const (
	CtxKeyUserID  ctxKey = "user_id"
	CtxKeyClaims  ctxKey = "claims" // full jwtx.Claims when a guard attaches them
	CtxKeySession ctxKey = "session_id"
)
