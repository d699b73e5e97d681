// Package notify delivers user-facing notifications.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Level of a notification.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(level Level, title, message string)
}

// Console prints notifications to a terminal and records them in the log.
type Console struct {
	out    io.Writer
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewConsole returns a notifier printing to out.
func NewConsole(out io.Writer, logger zerolog.Logger) *Console {
	return &Console{out: out, logger: logger}
}

// Notify implements Notifier.
func (c *Console) Notify(level Level, title, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := "→"
	switch level {
	case Success:
		prefix = "✓"
	case Warning:
		prefix = "!"
	case Error:
		prefix = "✗"
	}
	if title != "" {
		fmt.Fprintf(c.out, "%s %s: %s\n", prefix, title, message)
	} else {
		fmt.Fprintf(c.out, "%s %s\n", prefix, message)
	}

	ev := c.logger.Debug()
	if level == Error {
		ev = c.logger.Warn()
	}
	ev.Str("level_ui", level.String()).Str("title", title).Msg(message)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notification is one recorded notification.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notify implements Notifier.
func (r *Recorder) Notify(level Level, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Title: title, Message: message})
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
