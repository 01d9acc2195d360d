package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/app"
	"github.com/yourusername/clip-relay-go/internal/domain"
)

// InstagramBridge polls the bridge account's DM inbox and forwards shared
// videos into the linked requester's chat. Senders without a link get a
// one-time pointer to the bot instead.
type InstagramBridge struct {
	inbox        InboxClient
	repo         domain.UserLinkRepository
	orchestrator *app.Orchestrator
	botUsername  string
	pollInterval time.Duration
	logger       *zap.Logger

	// prompted remembers unlinked senders already told how to connect, so
	// the bridge does not nag on every poll while the item stays unread.
	prompted map[string]bool
}

// NewInstagramBridge wires the poll loop.
func NewInstagramBridge(inbox InboxClient, repo domain.UserLinkRepository, orchestrator *app.Orchestrator, botUsername string, pollInterval time.Duration, logger *zap.Logger) *InstagramBridge {
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &InstagramBridge{
		inbox:        inbox,
		repo:         repo,
		orchestrator: orchestrator,
		botUsername:  botUsername,
		pollInterval: pollInterval,
		logger:       logger,
		prompted:     make(map[string]bool),
	}
}

// Run logs in and polls until ctx is cancelled. Poll failures are logged
// and retried on the next tick; only login failures abort.
func (b *InstagramBridge) Run(ctx context.Context) error {
	if err := b.inbox.Login(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	b.logger.Info("Instagram bridge started",
		zap.Duration("poll_interval", b.pollInterval))

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Instagram bridge stopped")
			return nil
		case <-ticker.C:
			if err := b.poll(ctx); err != nil {
				b.logger.Error("Instagram poll failed", zap.Error(err))
			}
		}
	}
}

func (b *InstagramBridge) poll(ctx context.Context) error {
	messages, err := b.inbox.FetchUnread(ctx)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := b.handleMessage(ctx, msg); err != nil {
			b.logger.Error("Failed to handle Instagram message",
				zap.String("thread", msg.ThreadID),
				zap.String("sender", msg.SenderName),
				zap.Error(err))
		}
	}
	return nil
}

func (b *InstagramBridge) handleMessage(ctx context.Context, msg InstagramMessage) error {
	link, err := b.repo.FindByInstagram(strings.ToLower(msg.SenderName))
	if err != nil {
		return err
	}

	if link == nil {
		if b.prompted[msg.SenderID] {
			return nil
		}
		b.prompted[msg.SenderID] = true
		text := fmt.Sprintf("Hi! To receive this video on Telegram, open t.me/%s and use /connect_instagram to link this account.", b.botUsername)
		return b.inbox.SendText(ctx, msg.ThreadID, text)
	}

	caption := fmt.Sprintf("Forwarded from Instagram (@%s)", msg.SenderName)
	if err := b.orchestrator.DeliverDirect(ctx, link.RequesterID, msg.MediaURL, caption); err != nil {
		// Delivery failures were already reported in the chat; keep the
		// item unread so the next poll can retry transient ones.
		if domain.Retryable(err) {
			return err
		}
	}

	return b.inbox.MarkSeen(ctx, msg.ThreadID, msg.ItemID)
}
