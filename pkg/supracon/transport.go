// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
)

// Transport carries whole frames over a byte-oriented connection. The device
// owns exactly one Transport for its open lifetime; every exchange is one
// frame out, one frame back.
type Transport interface {
	WriteFrame(Frame) error
	ReadFrame() (Frame, error)
	Close() error
}

// serialTransport drives a local serial port at 8-N-1 framing.
type serialTransport struct {
	port serial.Port
}

// OpenSerialTransport opens a serial port with the fixed 8-N-1 framing the
// electronics require and the package read timeout.
func OpenSerialTransport(portName string, baudRate int) (Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %v", portName, err)
	}

	return &serialTransport{port: port}, nil
}

func (s *serialTransport) WriteFrame(f Frame) error {
	b := f.Bytes()
	if _, err := s.port.Write(b[:]); err != nil {
		return err
	}
	return nil
}

func (s *serialTransport) ReadFrame() (Frame, error) {
	var b [4]byte
	// The serial library signals a timeout as a zero-byte read.
	for filled := 0; filled < len(b); {
		n, err := s.port.Read(b[filled:])
		if err != nil {
			return Frame{}, err
		}
		if n == 0 {
			return Frame{}, fmt.Errorf("%w after %d of 4 bytes", ErrReadTimeout, filled)
		}
		filled += n
	}
	return FrameFromBytes(b), nil
}

func (s *serialTransport) Close() error {
	return s.port.Close()
}

// wsTransport drives a serial-over-WebSocket bridge. Frame bytes travel as
// binary messages; a frame may span message boundaries, so reads buffer.
type wsTransport struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

// OpenWebSocketTransport connects to a serial bridge over ws:// or wss://
// with optional HTTP Basic auth.
func OpenWebSocketTransport(wsURL, username, password string, skipSSLVerify bool) (Transport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &wsTransport{conn: conn}, nil
}

func (w *wsTransport) WriteFrame(f Frame) error {
	b := f.Bytes()
	return w.conn.WriteMessage(websocket.BinaryMessage, b[:])
}

func (w *wsTransport) ReadFrame() (Frame, error) {
	var b [4]byte
	for filled := 0; filled < len(b); {
		n, err := w.readBytes(b[filled:])
		if err != nil {
			return Frame{}, err
		}
		filled += n
	}
	return FrameFromBytes(b), nil
}

func (w *wsTransport) readBytes(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("websocket connection closed")
	}

	// Drain buffered data from a previous message first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		// Only binary messages carry frame bytes
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *wsTransport) Close() error {
	return w.conn.Close()
}
