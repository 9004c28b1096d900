package service

import "errors"

// User-facing sentinel errors. The chat layer maps these to replies; nothing
// else in the taxonomy escapes the pipeline.
var (
	// ErrAlreadyActive rejects a research start while the chat already owns
	// a non-terminal job.
	ErrAlreadyActive = errors.New("research already active for this chat")

	// ErrNoActiveJob rejects cancel (and empty status reads) when the chat
	// owns no job.
	ErrNoActiveJob = errors.New("no active research for this chat")

	// ErrTopicTooShort rejects a start request with a topic under the
	// minimum length.
	ErrTopicTooShort = errors.New("research topic is too short")
)
