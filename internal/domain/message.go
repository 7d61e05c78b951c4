package domain

import (
	"errors"
	"time"
)

var (
	// ErrMessageNotFound is returned when looking up a non-existent message.
	ErrMessageNotFound = errors.New("message not found")
	// ErrInvalidRequest is returned when a request body is missing, malformed or incomplete.
	ErrInvalidRequest = errors.New("invalid request")
)

// ReadPolicy decides what happens when a message that was already read is marked read again.
type ReadPolicy string

const (
	// ReadPolicyOverwrite stores the time of the latest call.
	ReadPolicyOverwrite ReadPolicy = "overwrite"
	// ReadPolicyFirst keeps the time of the first call.
	ReadPolicyFirst ReadPolicy = "first"
)

// Valid reports whether p is a known policy.
func (p ReadPolicy) Valid() bool {
	return p == ReadPolicyOverwrite || p == ReadPolicyFirst
}

// Message is a directed communication between two users.
// From and To are populated by reads that join the users table.
type Message struct {
	ID           int64
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time

	From UserContact
	To   UserContact
}

// IsParty reports whether username is the sender or the recipient.
func (m Message) IsParty(username string) bool {
	return username != "" && (username == m.FromUsername || username == m.ToUsername)
}

// IsRecipient reports whether username is the recipient.
func (m Message) IsRecipient(username string) bool {
	return username != "" && username == m.ToUsername
}

// CreateMessageRequest is the body of POST /messages. The sender is never client supplied.
type CreateMessageRequest struct {
	ToUsername string `json:"to_username" validate:"required"`
	Body       string `json:"body"        validate:"required"`
}

// InboxMessage is a received message with its sender expanded.
type InboxMessage struct {
	ID       int64       `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserContact `json:"from_user"`
}

// OutboxMessage is a sent message with its recipient expanded.
type OutboxMessage struct {
	ID     int64       `json:"id"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
	ToUser UserContact `json:"to_user"`
}

// MessageDetail is a message with both parties expanded.
type MessageDetail struct {
	ID       int64       `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserContact `json:"from_user"`
	ToUser   UserContact `json:"to_user"`
}

// CreatedMessage is the result of sending a message.
type CreatedMessage struct {
	ID           int64     `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

// ReadReceipt is the result of marking a message read.
type ReadReceipt struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"read_at"`
}

// Inbox converts m to its received-message view.
func (m Message) Inbox() InboxMessage {
	return InboxMessage{ID: m.ID, Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt, FromUser: m.From}
}

// Outbox converts m to its sent-message view.
func (m Message) Outbox() OutboxMessage {
	return OutboxMessage{ID: m.ID, Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt, ToUser: m.To}
}

// Detail converts m to its detail view.
func (m Message) Detail() MessageDetail {
	return MessageDetail{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
		FromUser: m.From,
		ToUser:   m.To,
	}
}

// Created converts m to its creation view.
func (m Message) Created() CreatedMessage {
	return CreatedMessage{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
	}
}

type (
	// InboxResponse is returned by GET /users/{username}/to.
	InboxResponse struct {
		Messages []InboxMessage `json:"messages"`
	}
	// OutboxResponse is returned by GET /users/{username}/from.
	OutboxResponse struct {
		Messages []OutboxMessage `json:"messages"`
	}
	// MessageDetailResponse is returned by GET /messages/{id}.
	MessageDetailResponse struct {
		Message MessageDetail `json:"message"`
	}
	// CreatedMessageResponse is returned by POST /messages.
	CreatedMessageResponse struct {
		Message CreatedMessage `json:"message"`
	}
	// ReadReceiptResponse is returned by POST /messages/{id}/read.
	ReadReceiptResponse struct {
		Message ReadReceipt `json:"message"`
	}
)
