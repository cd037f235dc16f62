package model

import "time"

// DigestRecord is a daily digest kept in the local history.
type DigestRecord struct {
	ID string `json:"id" yaml:"id"`

	// Date is the YYYY-MM-DD day the digest covers; "" means the backend
	// picked the day.
	Date string `json:"date" yaml:"date"`

	Digest    Digest    `json:"digest" yaml:"digest"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Roles in the Ask-the-Inbox conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the Ask-the-Inbox conversation.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
