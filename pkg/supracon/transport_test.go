// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Cryolab Instruments

package supracon

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// startBridge runs a fake serial-over-WebSocket bridge that passes every
// received binary message to handle and writes back whatever it returns,
// possibly split across several messages.
func startBridge(t *testing.T, requireAuth string, handle func(req []byte) [][]byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requireAuth != "" && r.Header.Get("Authorization") != requireAuth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			for _, chunk := range handle(data) {
				if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsBridgeURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// ============================================================
// WebSocket Transport Tests
// ============================================================

func TestWebSocketTransport_RoundTrip(t *testing.T) {
	server := startBridge(t, "", func(req []byte) [][]byte {
		// ack echo: opcode byte replaced
		resp := append([]byte{}, req...)
		resp[1] = OpcodeAck
		return [][]byte{resp}
	})

	transport, err := OpenWebSocketTransport(wsBridgeURL(server), "", "", false)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer transport.Close()

	req := Frame{Address: 0x05, Opcode: 0x0A, Data0: 0xBF, Data1: 0xFF}
	if err := transport.WriteFrame(req); err != nil {
		t.Fatalf("WriteFrame error: %v", err)
	}
	resp, err := transport.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	want := Frame{Address: 0x05, Opcode: OpcodeAck, Data0: 0xBF, Data1: 0xFF}
	if resp != want {
		t.Errorf("ReadFrame = % X, want % X", resp.Bytes(), want.Bytes())
	}
}

func TestWebSocketTransport_FrameSpansMessages(t *testing.T) {
	server := startBridge(t, "", func(req []byte) [][]byte {
		// reply one byte per message; the transport must reassemble
		return [][]byte{req[:1], req[1:2], req[2:]}
	})

	transport, err := OpenWebSocketTransport(wsBridgeURL(server), "", "", false)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer transport.Close()

	req := Frame{Address: 0x01, Opcode: 0x40, Data0: 0x00, Data1: 0xF0}
	if err := transport.WriteFrame(req); err != nil {
		t.Fatalf("WriteFrame error: %v", err)
	}
	resp, err := transport.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	if resp != req {
		t.Errorf("ReadFrame = % X, want the echoed probe", resp.Bytes())
	}
}

func TestWebSocketTransport_BasicAuth(t *testing.T) {
	// "user:secret" in basic auth
	const header = "Basic dXNlcjpzZWNyZXQ="
	server := startBridge(t, header, func(req []byte) [][]byte {
		return [][]byte{req}
	})

	if _, err := OpenWebSocketTransport(wsBridgeURL(server), "", "", false); err == nil {
		t.Error("dial without credentials should fail")
	}

	transport, err := OpenWebSocketTransport(wsBridgeURL(server), "user", "secret", false)
	if err != nil {
		t.Fatalf("authenticated dial error: %v", err)
	}
	transport.Close()
}

func TestWebSocketTransport_RejectsBadScheme(t *testing.T) {
	for _, url := range []string{"http://host/path", "ftp://host", "not a url at all://"} {
		if _, err := OpenWebSocketTransport(url, "", "", false); err == nil {
			t.Errorf("dial %q should fail", url)
		}
	}
}
