// Package models defines the client-side data model: the plaintext
// conversation (known transiently in memory) and the encrypted record
// shape the vault persists.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Plan is a structured follow-up attached to a conversation.
type Plan struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Conversation is the plaintext form of one chat. It exists in memory
// only while the vault is unlocked; at rest it lives as an
// EncryptedRecord.
type Conversation struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	RetentionHours *int      `json:"retention_hours,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Plans          []Plan    `json:"plans,omitempty"`
}

// NewConversation creates an empty conversation with a fresh id.
func NewConversation(title string) *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now(),
	}
}

// SetRetention sets or clears the retention window and keeps the
// invariant expiresAt = createdAt + retentionHours, or nil when no
// retention is set (never expires).
func (c *Conversation) SetRetention(hours *int) {
	c.RetentionHours = hours
	if hours == nil {
		c.ExpiresAt = nil
		return
	}
	expires := c.CreatedAt.Add(time.Duration(*hours) * time.Hour)
	c.ExpiresAt = &expires
}

// Expired reports whether the conversation's retention window has
// elapsed at the given instant. Conversations without a retention
// window never expire.
func (c *Conversation) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}
