package infrastructure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// AdminNotifier sends operational notices to the configured admin chat
// through the same messenger the pipelines use. A zero chat ID disables it.
type AdminNotifier struct {
	messenger domain.Messenger
	chatID    int64
	logger    *zap.Logger
}

// NewAdminNotifier creates a notifier; Enabled reports whether notices go
// anywhere.
func NewAdminNotifier(messenger domain.Messenger, chatID int64, logger *zap.Logger) *AdminNotifier {
	return &AdminNotifier{messenger: messenger, chatID: chatID, logger: logger}
}

// Enabled reports whether an admin chat is configured.
func (n *AdminNotifier) Enabled() bool {
	return n.chatID != 0
}

// NotifyPipelineFailed reports one pipeline failure with its kind so the
// operator can spot breakage patterns (expired cookies, removed binaries)
// without reading logs.
func (n *AdminNotifier) NotifyPipelineFailed(platform domain.Platform, url string, err error) {
	text := fmt.Sprintf("Pipeline failed\nPlatform: %s\nKind: %s\nURL: %s\nError: %v",
		platform, domain.KindOf(err), url, err)
	n.send(text)
}

// NotifyStarted announces service startup.
func (n *AdminNotifier) NotifyStarted(version string) {
	n.send(fmt.Sprintf("Relay started (version %s)", version))
}

// NotifyStopped announces graceful shutdown.
func (n *AdminNotifier) NotifyStopped() {
	n.send("Relay shutting down")
}

func (n *AdminNotifier) send(text string) {
	if !n.Enabled() {
		return
	}
	if err := n.messenger.SendText(n.chatID, text); err != nil {
		n.logger.Warn("Failed to notify admin", zap.Error(err))
	}
}
