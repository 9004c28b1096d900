package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldChatID is the chat the work belongs to
	FieldChatID = "chat_id"

	// FieldJobID is the research job ID
	FieldJobID = "job_id"

	// FieldTopic is the research topic
	FieldTopic = "topic"

	// FieldQuery is the search query being executed
	FieldQuery = "query"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldRequestID is the ops API request ID (UUID)
	FieldRequestID = "request_id"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation or job status
	FieldStatus = "status"

	// FieldStep is the current pipeline step
	FieldStep = "step"
)
