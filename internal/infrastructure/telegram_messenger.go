package infrastructure

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// callbackPrefix versions the inline keyboard callback payload so stale
// buttons from older deployments are ignored cleanly.
const callbackPrefix = "cr1"

// TelegramMessenger adapts the bot API to the pipeline's chat channel.
type TelegramMessenger struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegramMessenger connects to the bot API with the configured token.
func NewTelegramMessenger(token string, logger *zap.Logger) (*TelegramMessenger, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return &TelegramMessenger{bot: bot, logger: logger}, nil
}

// Bot exposes the underlying API for the update loop.
func (m *TelegramMessenger) Bot() *tgbotapi.BotAPI {
	return m.bot
}

func (m *TelegramMessenger) SendText(chatID int64, text string) error {
	_, err := m.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (m *TelegramMessenger) SendStatus(chatID int64, text string) (domain.MessageRef, error) {
	sent, err := m.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (m *TelegramMessenger) EditStatus(ref domain.MessageRef, text string) error {
	_, err := m.bot.Send(tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text))
	return err
}

// SendFile uploads a local media file. Audio containers go out as audio
// messages so clients render a player instead of a generic document.
func (m *TelegramMessenger) SendFile(ctx context.Context, chatID int64, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := tgbotapi.FilePath(path)
	var msg tgbotapi.Chattable
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "m4a", "mp3", "opus", "ogg", "webm_audio", "weba":
		audio := tgbotapi.NewAudio(chatID, file)
		audio.Caption = caption
		msg = audio
	case "mp4", "mov", "webm", "mkv":
		video := tgbotapi.NewVideo(chatID, file)
		video.Caption = caption
		video.SupportsStreaming = true
		msg = video
	default:
		doc := tgbotapi.NewDocument(chatID, file)
		doc.Caption = caption
		msg = doc
	}

	if _, err := m.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram upload failed: %w", err)
	}
	return nil
}

// PresentChoices renders the options as an inline keyboard, one button per
// row. Each button carries the choice token plus its option index; the
// update loop routes the callback back through the choice table.
func (m *TelegramMessenger) PresentChoices(chatID int64, prompt string, options []string, token string) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for i, label := range options {
		data := fmt.Sprintf("%s:%s:%d", callbackPrefix, token, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}

	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := m.bot.Send(msg)
	return err
}
