package constants

// HTTP and API constants
const (
	// Content types
	ContentTypeJSON = "application/json"

	// HTTP Headers
	HeaderContentType = "Content-Type"
	HeaderXRequestID  = "X-Request-ID"

	// Response Keys
	ResponseError       = "error"
	ResponseSuccess     = "success"
	ResponseItems       = "items"
	ResponseDashboard   = "dashboard"
	ResponseDataSource  = "data_source"
	ResponseDataSources = "data_sources"
	FieldMessage        = "message"

	// Query parameters
	ParamDataSource = "data_source"
)

// Context keys
const (
	ContextKeyRequestID = "request_id"
	ContextKeyLogger    = "logger"
)
