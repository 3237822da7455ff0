package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatType classifies the conversation context of a channel message.
type ChatType string

const (
	ChatTypeDM    ChatType = "dm"
	ChatTypeGroup ChatType = "group"
)

// AttachmentField is a single labelled value rendered inside an attachment card.
type AttachmentField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Attachment is structured, non-text payload carried by an assistant message
// (a task card, a list of meetings, ...). The presentation layer decides how
// to render it.
type Attachment struct {
	Kind   string            `json:"kind"`
	Title  string            `json:"title,omitempty"`
	Fields []AttachmentField `json:"fields,omitempty"`
	Items  []string          `json:"items,omitempty"`
	Link   string            `json:"link,omitempty"`
}

// ChatMessage is one bubble of the conversation transcript. The transcript
// itself belongs to the host; the engine only produces messages.
type ChatMessage struct {
	ID         string      `json:"id"`
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Attachment *Attachment `json:"attachment,omitempty"`
	IsError    bool        `json:"isError,omitempty"`
}

// NewAssistantMessage builds an assistant message stamped with a fresh id.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage builds a user message stamped with a fresh id.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// InboundMessage is a message received from a chat channel.
type InboundMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	From      string    `json:"from"`
	FromName  string    `json:"fromName,omitempty"`
	ChatID    string    `json:"chatId"`
	ChatType  ChatType  `json:"chatType"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// OutboundMessage is a message to be sent via a chat channel.
type OutboundMessage struct {
	ChannelID string `json:"channelId"`
	To        string `json:"to"`
	Body      string `json:"body"`
}
