package models

// Message is one entry in the shared chat log.
//
// Messages are immutable once appended; the log's insertion order is the
// display order (oldest first). ID and Timestamp are assigned by the store
// when the message is saved, normalizing whatever the client submitted.
type Message struct {
	// ID is the unique identifier for the message (UUID format).
	ID string `json:"id"`

	// Author is the username of the sender.
	Author string `json:"author"`

	// Text is the message body as submitted.
	Text string `json:"text"`

	// Timestamp is the Unix timestamp assigned when the message was saved.
	Timestamp int64 `json:"timestamp"`
}
