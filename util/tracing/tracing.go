package tracing

// Context carries request identifiers through handler and service calls
// so log lines from one request can be stitched back together.
type Context struct {
	RequestID     string `json:"request_id"`
	RequestSource string `json:"request_source"`
}
