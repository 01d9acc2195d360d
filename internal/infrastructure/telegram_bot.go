package infrastructure

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/app"
)

const (
	msgWelcome = "Welcome! Send me a video link from YouTube, Facebook, LinkedIn, or TikTok and I'll download it for you.\n\nUse /connect_instagram to link your Instagram account so videos you DM to the bot's Instagram arrive here."

	msgAskInstagram     = "Please reply with your Instagram username."
	msgInstagramLinked  = "Done! Your Instagram account is linked. DM a video to the bot's Instagram account and it will show up here."
	msgInstagramInvalid = "That doesn't look like an Instagram username. Use /connect_instagram to try again."
)

// TelegramBot runs the long-polling update loop and routes each update to
// the right place: commands are answered inline, plain messages start a
// pipeline on their own goroutine, and inline keyboard callbacks resolve
// pending choice tokens.
type TelegramBot struct {
	messenger    *TelegramMessenger
	orchestrator *app.Orchestrator
	choices      *app.ChoiceTable
	logger       *zap.Logger

	// awaitingLink tracks chats whose next message is an Instagram
	// username, keyed per chat so one user's /connect_instagram never
	// captures another user's messages.
	mu           sync.Mutex
	awaitingLink map[int64]bool
}

// NewTelegramBot wires the update loop.
func NewTelegramBot(messenger *TelegramMessenger, orchestrator *app.Orchestrator, choices *app.ChoiceTable, logger *zap.Logger) *TelegramBot {
	return &TelegramBot{
		messenger:    messenger,
		orchestrator: orchestrator,
		choices:      choices,
		logger:       logger,
		awaitingLink: make(map[int64]bool),
	}
}

// Run polls for updates until ctx is cancelled.
func (b *TelegramBot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.messenger.Bot().GetUpdatesChan(updateConfig)

	b.logger.Info("Telegram update loop started")
	for {
		select {
		case <-ctx.Done():
			b.messenger.Bot().StopReceivingUpdates()
			b.logger.Info("Telegram update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *TelegramBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *TelegramBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(chatID, msg.Command())
		return
	}

	if b.consumeAwaitingLink(chatID) {
		b.linkInstagram(chatID, text)
		return
	}

	username := ""
	if msg.From != nil {
		username = msg.From.UserName
	}
	go b.orchestrator.HandleRequest(ctx, chatID, username, text)
}

func (b *TelegramBot) handleCommand(chatID int64, command string) {
	switch command {
	case "start":
		b.reply(chatID, msgWelcome)
	case "connect_instagram":
		b.setAwaitingLink(chatID)
		b.reply(chatID, msgAskInstagram)
	default:
		b.reply(chatID, "Unknown command. Send a video link, or use /start for help.")
	}
}

// handleCallback resolves one inline keyboard press. Payload format:
// "cr1:<token>:<index>". Anything stale gets a short alert instead of a
// silent dead button.
func (b *TelegramBot) handleCallback(query *tgbotapi.CallbackQuery) {
	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		b.answerCallback(query.ID, "")
		return
	}

	token := parts[1]
	index := 0
	for _, c := range parts[2] {
		if c < '0' || c > '9' {
			b.answerCallback(query.ID, "")
			return
		}
		index = index*10 + int(c-'0')
	}

	requesterID := query.Message.Chat.ID
	if err := b.choices.Resolve(token, requesterID, index); err != nil {
		b.logger.Debug("Stale choice callback",
			zap.String("token", token),
			zap.Int64("requester", requesterID))
		b.answerCallback(query.ID, "This choice has expired. Send the link again.")
		return
	}
	b.answerCallback(query.ID, "")
}

func (b *TelegramBot) linkInstagram(chatID int64, username string) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" || strings.ContainsAny(username, " /\n") {
		b.reply(chatID, msgInstagramInvalid)
		return
	}

	if err := b.orchestrator.LinkInstagram(chatID, strings.ToLower(username)); err != nil {
		b.logger.Error("Failed to link Instagram account",
			zap.Int64("requester", chatID),
			zap.Error(err))
		b.reply(chatID, "Sorry, saving the link failed. Please try again.")
		return
	}
	b.reply(chatID, msgInstagramLinked)
}

func (b *TelegramBot) setAwaitingLink(chatID int64) {
	b.mu.Lock()
	b.awaitingLink[chatID] = true
	b.mu.Unlock()
}

func (b *TelegramBot) consumeAwaitingLink(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.awaitingLink[chatID] {
		delete(b.awaitingLink, chatID)
		return true
	}
	return false
}

func (b *TelegramBot) reply(chatID int64, text string) {
	if err := b.messenger.SendText(chatID, text); err != nil {
		b.logger.Error("Failed to send reply", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *TelegramBot) answerCallback(id, text string) {
	callback := tgbotapi.NewCallback(id, text)
	if _, err := b.messenger.Bot().Request(callback); err != nil {
		b.logger.Debug("Failed to answer callback query", zap.Error(err))
	}
}
