package model

import (
	"encoding/json"
	"time"
)

// ChatMessage is a single role-tagged turn of a debate transcript.
type ChatMessage struct {
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Attachment is a file uploaded alongside a debate record. Data is
// base64-encoded on the wire (encoding/json default for []byte).
type Attachment struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
}

// Debate is a stored debate record. Immutable after creation.
type Debate struct {
	ID           int64           `json:"id"`
	ClientID     string          `json:"clientId"`
	Topic        string          `json:"topic"`
	UserRole     string          `json:"userRole"`
	ChatHistory  []ChatMessage   `json:"chatHistory"`
	Adjudication json.RawMessage `json:"adjudication"`
	Attachments  []Attachment    `json:"attachments,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// DebateSummary is the list-endpoint projection of a debate record.
type DebateSummary struct {
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	UserRole  string    `json:"userRole"`
	ClientID  string    `json:"clientId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatRequest is the body of POST /api/chat/rag.
type ChatRequest struct {
	Question string `json:"question"`
	ClientID string `json:"clientId,omitempty"`
}
