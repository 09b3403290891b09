package docker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	containertypes "github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/jsonstream"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"
)

type mockWriter struct {
	buf *bytes.Buffer
}

func newMockWriter() *mockWriter {
	return &mockWriter{buf: &bytes.Buffer{}}
}

func (m *mockWriter) Print(v ...interface{}) { fmt.Fprint(m.buf, v...) }
func (m *mockWriter) Printf(format string, v ...interface{}) {
	fmt.Fprintf(m.buf, format, v...)
}
func (m *mockWriter) Println(v ...interface{}) { fmt.Fprintln(m.buf, v...) }
func (m *mockWriter) Warningf(format string, v ...interface{}) {
	fmt.Fprintf(m.buf, "Warning: "+format+"\n", v...)
}
func (m *mockWriter) Fatalf(format string, v ...interface{}) {
	fmt.Fprintf(m.buf, "Fatal: "+format+"\n", v...)
}
func (m *mockWriter) String() string { return m.buf.String() }

// pullResponse is a scripted progress stream satisfying
// client.ImagePullResponse. It records whether the stream was read to
// EOF and closed, and decodes messages the way the real response does.
type pullResponse struct {
	reader    io.Reader
	exhausted bool
	closed    bool
}

// emptyStream returns a pull progress stream with no records.
func emptyStream() *pullResponse {
	return &pullResponse{reader: strings.NewReader("")}
}

// pullStream returns a pull progress stream from newline-delimited JSON lines.
func pullStream(lines ...string) *pullResponse {
	return &pullResponse{reader: strings.NewReader(strings.Join(lines, "\n"))}
}

func (p *pullResponse) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if err == io.EOF {
		p.exhausted = true
	}
	return n, err
}

func (p *pullResponse) Close() error {
	p.closed = true
	return nil
}

func (p *pullResponse) JSONMessages(ctx context.Context) iter.Seq2[jsonstream.Message, error] {
	decoder := json.NewDecoder(p)
	return func(yield func(jsonstream.Message, error) bool) {
		defer p.Close()
		for {
			var message jsonstream.Message
			err := decoder.Decode(&message)
			if errors.Is(err, io.EOF) {
				return
			}
			if ctx.Err() != nil {
				yield(message, ctx.Err())
				return
			}
			if !yield(message, err) {
				return
			}
		}
	}
}

func (p *pullResponse) Wait(ctx context.Context) error {
	for _, err := range p.JSONMessages(ctx) {
		if err != nil {
			return err
		}
	}
	return nil
}

// inspectResult builds the inspect response the mock engine returns for
// a started container.
func inspectResult(id, name string, running bool, ports network.PortMap) client.ContainerInspectResult {
	return client.ContainerInspectResult{
		Container: containertypes.InspectResponse{
			ID:   id,
			Name: name,
			State: &containertypes.State{
				Running: running,
			},
			NetworkSettings: &containertypes.NetworkSettings{
				Ports: ports,
			},
		},
	}
}
