package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer
// credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName carries a client-generated id for request tracing.
const RequestIDHeaderName = "X-Request-Id"

// BearerScheme is the default auth scheme prefixed to tokens that arrive
// without one.
const BearerScheme = "Bearer"
