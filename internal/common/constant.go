package common

// AccessTokenCookieName is the cookie (and JSON field) carrying the access
// token issued at login.
const AccessTokenCookieName = "access_token"

// TokenTypeBearer is reported to clients as token_type.
const TokenTypeBearer = "bearer"
