package domain

import "context"

// MessageRef identifies a previously sent message so it can be edited.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Messenger is the chat channel the pipeline talks through. The core never
// sees transport details; the Telegram adapter lives in infrastructure.
type Messenger interface {
	// SendText sends a plain text message
	SendText(chatID int64, text string) error

	// SendStatus sends a text message and returns a reference for later edits
	SendStatus(chatID int64, text string) (MessageRef, error)

	// EditStatus replaces the text of a previously sent status message
	EditStatus(ref MessageRef, text string) error

	// SendFile uploads a local media file with a caption
	SendFile(ctx context.Context, chatID int64, path, caption string) error

	// PresentChoices shows an indexed option list bound to a choice token.
	// The answer is delivered through the pending-choice table, not here.
	PresentChoices(chatID int64, prompt string, options []string, token string) error
}
