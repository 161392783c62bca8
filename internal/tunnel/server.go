package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const copyBufferSize = 32 * 1024

// Server forwards local TCP connections to the remote tunnel websocket
type Server struct {
	listener    net.Listener
	remoteURL   string
	header      http.Header
	dialer      *websocket.Dialer
	idleTimeout time.Duration
	logger      zerolog.Logger

	wg sync.WaitGroup
}

// ServerConfig contains configuration for the tunnel server
type ServerConfig struct {
	// Port on 127.0.0.1 to listen on; 0 picks a free port
	Port        int
	RemoteURL   string
	Header      http.Header
	Dialer      *websocket.Dialer
	IdleTimeout time.Duration
}

// NewServer binds the local listener. The bound port is available through Port
// before Serve is called.
func NewServer(config ServerConfig, logger zerolog.Logger) (*Server, error) {
	if config.RemoteURL == "" {
		return nil, fmt.Errorf("remote tunnel url is required")
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	idle := config.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	return &Server{
		listener:    listener,
		remoteURL:   config.RemoteURL,
		header:      config.Header,
		dialer:      dialer,
		idleTimeout: idle,
		logger:      logger.With().Str("component", "tunnel-server").Logger(),
	}, nil
}

// Port returns the local port the server is bound to
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns the local listen address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx is cancelled. Open connections are torn
// down before it returns.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	defer s.wg.Wait()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, local net.Conn) {
	logger := s.logger.With().Str("client", local.RemoteAddr().String()).Logger()
	logger.Info().Msg("Client connected")

	remote, resp, err := s.dialer.DialContext(ctx, s.remoteURL, s.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		logger.Error().Err(err).Str("url", s.remoteURL).Msg("Failed to open tunnel websocket")
		local.Close()
		return
	}

	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			local.Close()
			remote.Close()
		})
	}
	defer closeBoth()

	g, gctx := errgroup.WithContext(ctx)

	// Tear down the pair as soon as either pump stops or ctx is done
	g.Go(func() error {
		<-gctx.Done()
		closeBoth()
		return nil
	})
	g.Go(func() error {
		return s.localToRemote(local, remote)
	})
	g.Go(func() error {
		return s.remoteToLocal(remote, local)
	})

	if err := g.Wait(); err != nil && !isClosedError(err) {
		logger.Debug().Err(err).Msg("Tunnel connection ended")
	}
	logger.Info().Msg("Client disconnected")
}

func (s *Server) localToRemote(local net.Conn, remote *websocket.Conn) error {
	buf := make([]byte, copyBufferSize)
	for {
		if err := local.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			return err
		}

		n, err := local.Read(buf)
		if n > 0 {
			if werr := remote.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				_ = remote.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return io.EOF
			}
			return err
		}
	}
}

func (s *Server) remoteToLocal(remote *websocket.Conn, local net.Conn) error {
	for {
		if err := remote.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			return err
		}

		_, reader, err := remote.NextReader()
		if err != nil {
			return err
		}
		if _, err := io.Copy(local, reader); err != nil {
			return err
		}
	}
}

// isClosedError reports errors that are the normal result of a pair shutdown
func isClosedError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
