// Package scpi implements a minimal write-only SCPI client for steering lab
// instruments over a raw TCP socket. Commands are fire-and-forget: the
// client never reads device responses, so it only suits imperative setup
// sequences (output on/off, mode, frequency) where the instrument state is
// verified out of band.
package scpi

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var (
	ErrConnect = errors.New("scpi: connect failed")
	ErrWrite   = errors.New("scpi: write failed")
)

// Client sends ordered ASCII command sequences to one instrument. Each Send
// call opens a fresh connection and closes it before returning, so a Client
// holds no connection state and is cheap to keep around.
type Client struct {
	Address string
	Timeout time.Duration
}

// NewClient returns a client for the instrument at addr (host:port).
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{Address: addr, Timeout: timeout}
}

// Send writes each command on its own line, in order, over a single
// connection. A dial failure fails with ErrConnect; a failure mid-sequence
// fails with ErrWrite and may leave the instrument with a partial sequence
// applied. The connection is closed on every exit path.
func (c *Client) Send(commands ...string) error {
	conn, err := net.DialTimeout("tcp", c.Address, c.Timeout)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnect, c.Address, err)
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	for _, cmd := range commands {
		if c.Timeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(c.Timeout))
		}
		if _, err := w.WriteString(ensureNewline(cmd)); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrWrite, cmd, err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrWrite, cmd, err)
		}
	}
	return nil
}

// ensureNewline ensures commands sent to the instrument always end with \n.
func ensureNewline(s string) string {
	if !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}
