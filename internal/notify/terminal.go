package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Terminal writes notifications to an io.Writer, one block per message.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal creates a terminal notifier.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Send(_ context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, "[%s] %s (%s)\n%s\n",
		n.Type, n.Title, n.Timestamp.Format("2006-01-02 15:04:05"), n.Message)
	return err
}
