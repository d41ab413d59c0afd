package config

const (
	HCType         = "Content-Type"
	HETag          = "ETag"
	HCacheControl  = "Cache-Control"
	HAuthorization = "Authorization"

	CTypeJSON = "application/json"
	CTypeSSE  = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieSession = "session"
)

// DraftKey is the local draft slot of the post that has not been saved yet.
const DraftKey = "spawnwrite-draft-new"
