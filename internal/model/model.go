package model

import (
	"time"

	"github.com/google/uuid"
)

// Author identifies which side of the conversation produced a message.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// AuthorForRole maps a backend message role to a display author. The backend
// emits "user" for the user's own messages; everything else (assistant,
// system, tool roles) renders as the bot.
func AuthorForRole(role string) Author {
	if role == "user" {
		return AuthorUser
	}
	return AuthorBot
}

// Message is a single rendered chat message. The ID is generated client-side
// for render bookkeeping only and is never shared with the backend.
type Message struct {
	ID     string
	Author Author
	Text   string
	At     string
}

// NewMessage builds a message stamped with the current wall-clock time.
func NewMessage(author Author, text string) Message {
	return Message{
		ID:     uuid.NewString(),
		Author: author,
		Text:   text,
		At:     time.Now().Format("15:04:05"),
	}
}

// HistoryMessage mirrors the backend DTO returned by
// GET /conversations/{id}/messages.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is one sidebar entry. Title stays empty until the backend
// assigns one after the first exchange.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayTitle returns the title to render, falling back to a placeholder
// for conversations the backend has not titled yet.
func (c Conversation) DisplayTitle() string {
	if c.Title == "" {
		return "New Conversation"
	}
	return c.Title
}
