package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
)

// ErrEmptyCommand is returned when a stdio target is spawned with no argv.
var ErrEmptyCommand = errors.New("stdio transport: empty spawn command")

// Stdio wraps a spawned child process and translates each logical request
// into one line-delimited JSON-RPC message on the process's stdin, decoding
// the next stdout line as the response. Responses are matched by read
// order, not by id correlation: the design assumes a responding target
// answers requests in the order received.
//
// The child's streams are exclusively owned by this transport; requests are
// serialized internally so interleaved writes cannot corrupt the protocol.
type Stdio struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *cappedBuffer

	// lines carries stdout lines from the single reader goroutine.
	// readErr is set before lines is closed; readDone is closed after.
	lines    chan []byte
	readErr  error
	readDone chan struct{}

	readTimeout time.Duration
	stopGrace   time.Duration
	nextID      atomic.Int64

	mu        sync.Mutex // serializes Request: one write, one read
	closeOnce sync.Once
	waitDone  chan struct{} // closed once the child has been reaped
}

// StdioOption customizes a stdio transport.
type StdioOption func(*Stdio)

// WithReadTimeout sets the default per-request read deadline (default 5s).
func WithReadTimeout(d time.Duration) StdioOption {
	return func(t *Stdio) {
		if d > 0 {
			t.readTimeout = d
		}
	}
}

// WithStopGrace sets how long Close waits after SIGTERM before SIGKILL
// (default 5s).
func WithStopGrace(d time.Duration) StdioOption {
	return func(t *Stdio) {
		if d > 0 {
			t.stopGrace = d
		}
	}
}

// SpawnStdio starts the target command with its streams captured and
// returns a live transport. A spawn failure is the one transport error
// that propagates: no per-plugin results can exist without a process.
func SpawnStdio(argv []string, opts ...StdioOption) (*Stdio, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("capturing stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capturing stdout: %w", err)
	}
	stderr := &cappedBuffer{limit: defaults.MaxStderrCapture}
	cmd.Stderr = stderr

	t := &Stdio{
		cmd:         cmd,
		stdin:       stdin,
		stderr:      stderr,
		lines:       make(chan []byte, 16),
		readDone:    make(chan struct{}),
		readTimeout: defaults.StdioReadTimeout,
		stopGrace:   defaults.StdioStopGrace,
		waitDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning %q: %w", argv[0], err)
	}

	go t.readLoop(stdout)
	go func() {
		// Wait closes the stdout pipe, so the child may only be reaped
		// after the read loop has drained it; a target that answers and
		// exits immediately must not lose its final line.
		<-t.readDone
		_ = cmd.Wait()
		close(t.waitDone)
	}()

	return t, nil
}

// readLoop is the only reader of the child's stdout. It pumps complete
// lines into t.lines and closes the channel when the stream ends.
func (t *Stdio) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64<<10), defaults.MaxResponseLine)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		t.lines <- line
	}
	if err := scanner.Err(); err != nil {
		t.readErr = err
	} else {
		t.readErr = io.EOF
	}
	close(t.lines)
	close(t.readDone)
}

// Request writes one newline-terminated JSON-RPC line and reads exactly one
// response line within the read deadline. Every target-side fault resolves
// to a classified Response; the error return covers only caller-side
// problems such as unmarshalable params.
func (t *Stdio) Request(ctx context.Context, method string, params any, opts ...RequestOption) (*Response, error) {
	o := applyOptions(t.readTimeout, opts)

	var line []byte
	if o.rawSet {
		line = o.rawBody
	} else {
		b, err := marshalEnvelope(newEnvelope(t.nextID.Add(1), method, params))
		if err != nil {
			return nil, err
		}
		line = b
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.stdin.Write(append(line, '\n')); err != nil {
		return failureResponse(fmt.Errorf("writing request: %w", err)), nil
	}
	return t.readResponse(ctx, o.timeout), nil
}

// Get is a Request with method "ping": the stdio protocol exposes no
// distinct verb semantics.
func (t *Stdio) Get(ctx context.Context) (*Response, error) {
	return t.Request(ctx, "ping", nil)
}

// readResponse resolves the next stdout line against the deadline. A late
// line after a timeout stays queued and is consumed by the next request,
// mirroring the read-order matching contract.
func (t *Stdio) readResponse(ctx context.Context, timeout time.Duration) *Response {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-t.lines:
		if !ok {
			return failureResponse(fmt.Errorf("target stdout closed: %w", t.readErr))
		}
		return classifyLine(line)
	case <-timer.C:
		return timeoutResponse()
	case <-ctx.Done():
		return failureResponse(ctx.Err())
	}
}

// Close terminates the child: stdin is closed first to signal end-of-input
// to a well-behaved target, then SIGTERM, then SIGKILL once the grace
// period expires. All teardown failures are swallowed; results are already
// finalized by the time teardown runs. Idempotent.
func (t *Stdio) Close() error {
	t.closeOnce.Do(func() {
		_ = t.stdin.Close()

		select {
		case <-t.waitDone:
			return // already exited
		default:
		}

		if t.cmd.Process != nil {
			_ = t.cmd.Process.Signal(syscall.SIGTERM)
		}

		timer := time.NewTimer(t.stopGrace)
		defer timer.Stop()
		select {
		case <-t.waitDone:
		case <-timer.C:
			if t.cmd.Process != nil {
				_ = t.cmd.Process.Kill()
			}
			<-t.waitDone
		}
	})
	return nil
}

// Done reports whether the child process has been reaped.
func (t *Stdio) Done() bool {
	select {
	case <-t.waitDone:
		return true
	default:
		return false
	}
}

// Stderr returns the captured child stderr for diagnostics.
func (t *Stdio) Stderr() []byte { return t.stderr.Bytes() }

// marshalEnvelope rejects embedded newlines: the wire protocol is one line
// per direction, and encoding/json never emits raw newlines, so any present
// would have come from a raw body misuse.
func marshalEnvelope(env envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshaling request envelope: %w", err)
	}
	if bytes.ContainsRune(b, '\n') {
		return nil, errors.New("request envelope contains newline")
	}
	return b, nil
}

// cappedBuffer is a concurrency-safe write sink that retains at most limit
// bytes. The child writes stderr from its own process; tests read it after.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if remaining := b.limit - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}
