package docker

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/cli/cli/streams"
	"github.com/moby/moby/client"
	"github.com/vesselkit/vessel/internal"
)

type TTY struct {
	client EngineClient
	out    *streams.Out
	id     string
	writer internal.Writer
}

// NewTTY creates a TTY handler that keeps the container's terminal size
// in sync with the local terminal.
func NewTTY(client EngineClient, out *streams.Out, id string, writer internal.Writer) TTY {
	return TTY{
		client: client,
		out:    out,
		id:     id,
		writer: writer,
	}
}

// Monitor watches for terminal resize events (SIGWINCH) and resizes the
// container's TTY to match. If the initial resize fails, it retries with
// backoff, since the container may not be ready yet. Returns after
// starting the background monitoring goroutines.
func (t TTY) Monitor(ctx context.Context) error {
	err := t.Resize(ctx)
	if err != nil {
		go func() {
			var err error
			for retry := range ttyRetries {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(retry+1) * ttyRetryDelay):
					if err = t.Resize(ctx); err == nil {
						return
					}
				}
			}
			if err != nil {
				t.writer.Fatalf("failed to resize tty: %v", err)
			}
		}()
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGWINCH)
	go func() {
		defer signal.Stop(sigchan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigchan:
				_ = t.Resize(ctx)
			}
		}
	}()

	return nil
}

// Resize resizes the container's TTY to the current terminal dimensions.
// A zero-sized terminal means there is nothing to sync, so that is not
// an error.
func (t TTY) Resize(ctx context.Context) error {
	height, width := t.out.GetTtySize()

	if height == 0 && width == 0 {
		return nil
	}

	_, err := t.client.ContainerResize(ctx, t.id, client.ContainerResizeOptions{
		Height: height,
		Width:  width,
	})
	if err != nil {
		return err
	}

	return nil
}
