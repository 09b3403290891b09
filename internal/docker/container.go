package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/docker/cli/cli/streams"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"
	"github.com/moby/term"
	"github.com/vesselkit/vessel/internal"
	"golang.org/x/sync/errgroup"
)

const (
	// stopTimeout is the grace period in seconds for stopping a
	// container on signal before the engine kills it.
	stopTimeout = 10

	// ttyRetries and ttyRetryDelay control how the initial TTY resize
	// is retried while the container is still coming up.
	ttyRetries    = 10
	ttyRetryDelay = 10 * time.Millisecond
)

// Container is a handle to a running container. It is constructed only
// by ContainerBuilder.Build, so holding one means the container was
// successfully created and started. Its accessors read the inspection
// snapshot captured at build time and never re-query the engine.
//
// Delete invalidates the handle; a Container must not be used after
// Delete returns.
type Container struct {
	client EngineClient

	details client.ContainerInspectResult
}

// ID returns the engine-assigned container identifier.
func (c Container) ID() string {
	return c.details.Container.ID
}

// Name returns the container's resolved name, without the leading slash
// the engine prefixes names with.
func (c Container) Name() string {
	return strings.TrimPrefix(c.details.Container.Name, "/")
}

// Running reports whether the container was running when it was
// inspected at build time.
func (c Container) Running() bool {
	return c.details.Container.State != nil && c.details.Container.State.Running
}

// Ports returns the network port bindings captured when the container
// was inspected at build time, keyed by port and protocol. This is a
// snapshot: if the bindings change out-of-band the returned data is
// stale.
func (c Container) Ports() network.PortMap {
	if c.details.Container.NetworkSettings == nil {
		return nil
	}
	return c.details.Container.NetworkSettings.Ports
}

// Delete forcibly removes the container, even if it is still running;
// the engine stops it first. The handle must not be used afterwards.
// Returns an error if the container cannot be removed, which may
// indicate an inconsistent state.
func (c Container) Delete(ctx context.Context) error {
	_, err := c.client.ContainerRemove(ctx, c.ID(), client.ContainerRemoveOptions{
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete container %q: %w\nContainer may be in an inconsistent state", c.ID(), err)
	}

	return nil
}

// Attach attaches to the container's stdin, stdout, and stderr streams
// with TTY support. It sets the terminal to raw mode, monitors terminal
// resize events, and forwards I/O between the local terminal and the
// container. The container must have been built with WithTTY. Returns
// an error if terminal setup or the attach call fails.
func (c Container) Attach(ctx context.Context, w internal.Writer) error {
	stdin, stdout, _ := term.StdStreams()
	in := streams.NewIn(stdin)
	out := streams.NewOut(stdout)

	// Attempt an initial resize - if it fails, the TTY monitor retries
	height, width := out.GetTtySize()
	_, err := c.client.ContainerResize(ctx, c.ID(), client.ContainerResizeOptions{
		Height: height,
		Width:  width,
	})
	if err != nil {
		w.Warningf("failed to resize tty: %v", err)
	}

	tty := NewTTY(c.client, out, c.ID(), w)
	err = tty.Monitor(ctx)
	if err != nil {
		return fmt.Errorf("failed to monitor tty size: %w", err)
	}

	restore := sync.OnceFunc(func() {
		in.RestoreTerminal()
		out.RestoreTerminal()
	})

	err = in.SetRawTerminal()
	if err != nil {
		return fmt.Errorf("failed to set stdin to raw terminal mode: %w\nYour terminal may not support TTY operations", err)
	}

	response, err := c.client.ContainerAttach(ctx, c.ID(), client.ContainerAttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return fmt.Errorf("failed to attach to container %q: %w\nContainer may have exited prematurely or Docker API is unreachable", c.ID(), err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Forward stdin to the container
	g.Go(func() error {
		defer restore()
		defer response.Conn.Close()

		_, err := io.Copy(response.Conn, in)
		// Context cancellation is expected, not an error
		if gctx.Err() != nil {
			return nil
		}
		if err != nil {
			w.Warningf("stdin forwarding error: %v", err)
		}
		return nil
	})

	err = out.SetRawTerminal()
	if err != nil {
		return fmt.Errorf("failed to set stdout to raw terminal mode: %w\nYour terminal may not support TTY operations", err)
	}

	// Forward container output to stdout
	g.Go(func() error {
		defer restore()

		_, err := io.Copy(out, response.Reader)
		// Context cancellation is expected, not an error
		if gctx.Err() != nil {
			return nil
		}
		if err != nil && err != io.EOF {
			w.Warningf("stdout/stderr forwarding error: %v", err)
		}
		return nil
	})

	// The forwarding goroutines end when the container exits or the
	// context is cancelled, so waiting here would block the main flow
	go func() {
		_ = g.Wait()
	}()

	return nil
}

// Wait blocks until the container exits or an interrupt signal (SIGINT,
// SIGTERM) arrives. On signal it attempts a graceful stop with the
// default grace period. Returns an error if waiting on the container
// fails.
func (c Container) Wait(ctx context.Context, w internal.Writer) error {
	wait := c.client.ContainerWait(ctx, c.ID(), client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-wait.Error:
		if err != nil {
			return fmt.Errorf("failed to wait for container %q: %w\nDocker daemon may have encountered an error", c.ID(), err)
		}
	case status := <-wait.Result:
		w.Printf("\nContainer exited with status: %d\n", status.StatusCode)
	case <-sigChan:
		w.Println("\nReceived signal, stopping container...")
		timeout := stopTimeout
		// The signal that got us here may also have cancelled ctx, and
		// the stop must still reach the daemon
		_, err := c.client.ContainerStop(context.WithoutCancel(ctx), c.ID(), client.ContainerStopOptions{Timeout: &timeout})
		if err != nil {
			w.Warningf("failed to stop container: %v", err)
		}
	}
	return nil
}
