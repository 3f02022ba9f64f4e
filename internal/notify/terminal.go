package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"moneybot/internal/models"
)

// TerminalNotifier prints notifications to a terminal. It backs the chat REPL
// and is always enabled.
type TerminalNotifier struct {
	out  io.Writer
	bell bool
	mu   sync.Mutex
}

// NewTerminalNotifier creates a TerminalNotifier writing to out.
func NewTerminalNotifier(out io.Writer, bell bool) *TerminalNotifier {
	return &TerminalNotifier{out: out, bell: bell}
}

// Name returns the name of the notifier.
func (tn *TerminalNotifier) Name() string {
	return "terminal"
}

// IsEnabled returns whether the notifier is enabled.
func (tn *TerminalNotifier) IsEnabled() bool {
	return true
}

// Send prints the notification.
func (tn *TerminalNotifier) Send(ctx context.Context, n models.Notification) error {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	if tn.bell && n.Kind == models.NotificationAlert {
		fmt.Fprint(tn.out, "\a") // Terminal bell
	}

	title := color.New(color.FgYellow, color.Bold)
	if n.Kind == models.NotificationDigest {
		title = color.New(color.FgCyan, color.Bold)
	}

	if _, err := title.Fprintf(tn.out, "[%s] %s", n.UserID, n.Title); err != nil {
		return err
	}
	_, err := fmt.Fprintf(tn.out, "\n%s\n", n.Message)
	return err
}
