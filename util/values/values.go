package values

// Response status strings shared between handlers and util.StatusCode.
const (
	Success        = "success"
	Created        = "created"
	Error          = "internal-error"
	BadRequestBody = "bad-request"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not-allowed"
	Conflict       = "conflict"
	NotFound       = "not-found"
	NotAuthorised  = "not-authorised"
	TokenExpired   = "token-expired"
	ActiveLogin    = "active-login"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderRequestSource = "X-Request-Source"
)

type contextKey string

const (
	ContextTracingKey contextKey = "tracing-context"
	ContextUserIDKey  contextKey = "user_id"
	ContextUserRole   contextKey = "user_role"
)

// User roles recognised by the auth middleware and the reply thread.
const (
	RoleCitizen  = "citizen"
	RoleOfficial = "official"
	RoleAdmin    = "admin"
)
