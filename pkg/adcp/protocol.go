package adcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Defaults taken from the ADCP documentation.
const (
	DefaultPort          = 53595
	DefaultName          = "Projector Picture Memory"
	DefaultCommand       = "pic_pos_sel {picture_memory}"
	DefaultPictureMemory = "1.85_1"

	// PictureMemoryPlaceholder is replaced in command templates by the
	// requested picture memory slot.
	PictureMemoryPlaceholder = "{picture_memory}"

	// maxPending bounds how many unmatched bytes are buffered while waiting
	// for a token.
	maxPending = 4096
)

var (
	tokenPassword = []byte("Password:")
	tokenOK       = []byte("OK")
)

var (
	ErrInvalidConfig   = errors.New("invalid device config")
	ErrConnection      = errors.New("connection error")
	ErrTimeout         = errors.New("protocol timeout")
	ErrEncoding        = errors.New("not representable as ASCII")
	ErrAuthRejected    = errors.New("authentication rejected")
	ErrCommandRejected = errors.New("command rejected")
)

// RenderCommand substitutes every occurrence of {picture_memory} in template.
// A template without the placeholder is returned unchanged.
func RenderCommand(template, pictureMemory string) string {
	return strings.ReplaceAll(template, PictureMemoryPlaceholder, pictureMemory)
}

// encodeLine returns s as an ASCII line terminated by a newline.
func encodeLine(field, s string) ([]byte, error) {
	if err := checkASCII(field, s); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(s)+1)
	buf = append(buf, s...)
	return append(buf, '\n'), nil
}

func checkASCII(field, s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return fmt.Errorf("%s: %w (byte 0x%02X at offset %d)", field, ErrEncoding, s[i], i)
		}
	}
	return nil
}

// session wraps the connection of a single exchange. Bytes received after
// a matched token are kept for the next wait.
type session struct {
	conn        net.Conn
	readTimeout time.Duration
	pending     []byte
	scratch     [512]byte
}

func newSession(conn net.Conn, readTimeout time.Duration) *session {
	return &session{conn: conn, readTimeout: readTimeout}
}

// waitFor blocks until token has been received, the read timeout or
// context expires, or the connection fails. If reject is non-nil a
// complete "NG" or "err_*" line ends the wait with reject.
func (s *session) waitFor(ctx context.Context, token []byte, reject error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: waiting for %q: %w", ErrTimeout, token, err)
	}
	deadline := time.Now().Add(s.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	// ctx may have been cancelled after the check above, in which case the
	// deadline set on cancellation was just overwritten.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: waiting for %q: %w", ErrTimeout, token, err)
	}

	for {
		if idx := bytes.Index(s.pending, token); idx >= 0 {
			s.pending = s.pending[idx+len(token):]
			return nil
		}
		if err := s.scanLines(reject); err != nil {
			return err
		}

		n, err := s.conn.Read(s.scratch[:])
		s.pending = append(s.pending, s.scratch[:n]...)
		if err == nil {
			continue
		}
		if idx := bytes.Index(s.pending, token); idx >= 0 {
			s.pending = s.pending[idx+len(token):]
			return nil
		}
		return s.readError(ctx, token, err)
	}
}

// scanLines checks complete lines for a rejection and drops them. A token
// never spans a newline, so nothing before the last newline can start a
// match.
func (s *session) scanLines(reject error) error {
	last := bytes.LastIndexByte(s.pending, '\n')
	if last < 0 {
		if len(s.pending) > maxPending {
			s.pending = s.pending[len(s.pending)-maxPending:]
		}
		return nil
	}
	if reject != nil {
		for _, line := range bytes.Split(s.pending[:last], []byte{'\n'}) {
			line = bytes.TrimSpace(line)
			if bytes.Equal(line, []byte("NG")) || bytes.HasPrefix(line, []byte("err_")) {
				return fmt.Errorf("%w: %s", reject, line)
			}
		}
	}
	s.pending = s.pending[last+1:]
	return nil
}

func (s *session) readError(ctx context.Context, token []byte, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: waiting for %q: %w", ErrTimeout, token, ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: no %q within %s", ErrTimeout, token, s.readTimeout)
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: closed by peer while waiting for %q", ErrConnection, token)
	}
	return fmt.Errorf("%w: %w", ErrConnection, err)
}

// writeLine sends an already encoded line. Writes share the read timeout.
func (s *session) writeLine(ctx context.Context, line []byte) error {
	deadline := time.Now().Add(s.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if _, err := s.conn.Write(line); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrTimeout, ctxErr)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: write: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}
	return nil
}
