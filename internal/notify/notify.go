// Package notify delivers user-facing messages such as update
// announcements.
package notify

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(title, message string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title, message string) error

func (f NotifierFunc) Notify(title, message string) error {
	return f(title, message)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// TerminalNotifier renders messages in a rounded box.
type TerminalNotifier struct {
	out   io.Writer
	width int
}

// NewTerminalNotifier creates a TerminalNotifier writing to out. Messages
// wrap at width columns; zero means no wrapping.
func NewTerminalNotifier(out io.Writer, width int) *TerminalNotifier {
	return &TerminalNotifier{out: out, width: width}
}

func (n *TerminalNotifier) Notify(title, message string) error {
	body := message
	if n.width > 0 {
		body = lipgloss.NewStyle().Width(n.width).Render(message)
	}
	if title != "" {
		body = titleStyle.Render(title) + "\n\n" + body
	}

	_, err := fmt.Fprintln(n.out, boxStyle.Render(body))
	return err
}

// LogNotifier writes messages to a logger.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(title, message string) error {
	n.log.Info().Str("title", title).Msg(message)
	return nil
}

// Multi delivers every message to all notifiers. Errors are joined.
type Multi []Notifier

func (m Multi) Notify(title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
