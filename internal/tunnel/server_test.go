package tunnel

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler upgrades to a websocket and echoes every message back
func echoHandler(t *testing.T, wantAuth string) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		if wantAuth != "" {
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestServer_ProxiesBothWays(t *testing.T) {
	remote := httptest.NewServer(echoHandler(t, "Basic dXNlcjpwYXNz"))
	defer remote.Close()

	header := http.Header{}
	header.Set("Authorization", "Basic dXNlcjpwYXNz")

	server, err := NewServer(ServerConfig{RemoteURL: wsURL(remote.URL), Header: header}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotZero(t, server.Port())
	assert.True(t, strings.HasPrefix(server.Addr(), "127.0.0.1:"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	conn, err := net.Dial("tcp", server.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("SSH-2.0-OpenSSH\r\n"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, len("SSH-2.0-OpenSSH\r\n"))
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "SSH-2.0-OpenSSH\r\n", string(buf))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_ClosesClientWhenDialFails(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer remote.Close()

	server, err := NewServer(ServerConfig{RemoteURL: wsURL(remote.URL)}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)

	conn, err := net.Dial("tcp", server.Addr())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestServer_IdleTimeout(t *testing.T) {
	remote := httptest.NewServer(echoHandler(t, ""))
	defer remote.Close()

	server, err := NewServer(ServerConfig{RemoteURL: wsURL(remote.URL), IdleTimeout: 100 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)

	conn, err := net.Dial("tcp", server.Addr())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err, "idle connection should be closed by the server")
}

func TestNewServer_RequiresRemote(t *testing.T) {
	_, err := NewServer(ServerConfig{}, zerolog.Nop())
	assert.Error(t, err)
}
