package pipeline

import "time"

// Action is what the pipeline did with a message.
type Action string

const (
	ActionIgnored    Action = "ignored"
	ActionNoURLs     Action = "no_urls"
	ActionDeleteOnly Action = "delete_only"
	ActionRepost     Action = "repost"
	ActionKept       Action = "kept"
)

// Log field constants
const (
	LogFieldTraceID = "trace_id"
	LogFieldChatID  = "chat_id"
	LogFieldMsgID   = "msg_id"
	LogFieldAction  = "action"
	LogFieldTotal   = "total"
	LogFieldAllowed = "allowed"
	LogFieldBlocked = "blocked"
	LogFieldBatches = "batches"
)

const (
	DefaultExpandConcurrency = 4
	DefaultDeliveryTimeout   = 30 * time.Second

	statusSent   = "sent"
	statusFailed = "failed"

	processingContentLimit = 1000
	errorContentLimit      = 500
	blockedPreviewLimit    = 3
)
