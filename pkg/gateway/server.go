package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sameehj/boxsh/pkg/shell"
)

// SessionFactory opens the shell for one connection. confirm reads y/N
// answers from that connection.
type SessionFactory func(id string, confirm shell.Confirmer) (*shell.Session, error)

// Server exposes one shell session per TCP connection using a line protocol:
// the server writes a prompt, the client sends a line, the server writes the
// rendered response.
type Server struct {
	factory     SessionFactory
	authorizer  Authorizer
	maxSessions int
	banner      string
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewServer(factory SessionFactory, authorizer Authorizer) *Server {
	if authorizer == nil {
		authorizer = NoopAuthorizer{}
	}
	return &Server{factory: factory, authorizer: authorizer, sessions: make(map[string]*Session)}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) SetMaxSessions(max int) {
	s.maxSessions = max
}

// SetBanner sets text sent to each client before the first prompt.
func (s *Server) SetBanner(banner string) {
	s.banner = banner
}

// Serve accepts on listener until ctx is done or Accept fails, then closes
// every open session and waits for them.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer listener.Close()
	defer s.drain(cancel)
	s.logInfo("gateway_listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.logError("accept_failed", "error", err)
			return err
		}

		remote := conn.RemoteAddr().String()
		if s.maxSessions > 0 && s.sessionCount() >= s.maxSessions {
			s.logWarn("session_limit_reached", "remote", remote, "limit", s.maxSessions)
			_, _ = io.WriteString(conn, shell.ErrorPrefix+"too many sessions\n")
			_ = conn.Close()
			continue
		}

		if err := s.authorizer.Allow(ctx, remote); err != nil {
			s.logWarn("session_denied", "remote", remote, "error", err)
			_ = conn.Close()
			continue
		}

		session := &Session{
			ID:         uuid.NewString(),
			RemoteAddr: remote,
			StartedAt:  time.Now(),
		}
		s.register(session)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.unregister(session.ID)
			s.logInfo("session_start", "id", session.ID, "remote", session.RemoteAddr)
			if err := s.serveConn(ctx, conn, session); err != nil {
				s.logWarn("session_error", "id", session.ID, "error", err)
			}
			s.logInfo("session_end", "id", session.ID, "remote", session.RemoteAddr)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, session *Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	reader := bufio.NewReader(conn)
	sh, err := s.factory(session.ID, shell.NewLineConfirmer(reader, conn))
	if err != nil {
		_, _ = io.WriteString(conn, shell.ErrorPrefix+err.Error()+"\n")
		return fmt.Errorf("open shell: %w", err)
	}
	defer func() {
		if err := sh.Close(); err != nil {
			s.logWarn("session_close_failed", "id", session.ID, "error", err)
		}
	}()
	if s.banner != "" {
		if _, err := io.WriteString(conn, s.banner+"\n"); err != nil {
			return err
		}
	}

	for {
		if _, err := io.WriteString(conn, sh.Prompt()); err != nil {
			return err
		}
		line, readErr := reader.ReadString('\n')
		if line == "" && readErr != nil {
			if errors.Is(readErr, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return readErr
		}

		resp := sh.Execute(ctx, strings.TrimRight(line, "\r\n"))
		if out := resp.Render(); out != "" {
			if _, err := io.WriteString(conn, out); err != nil {
				return err
			}
		}
		if resp.Exit || readErr != nil {
			return nil
		}
	}
}

func (s *Server) register(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// drain cancels every connection and waits for its session to end.
func (s *Server) drain(cancel context.CancelFunc) {
	open := s.ListSessions()
	ids := make([]string, 0, len(open))
	for _, session := range open {
		ids = append(ids, session.ID)
	}
	s.logInfo("gateway_shutdown", "open_sessions", len(ids), "ids", ids)
	cancel()
	s.wg.Wait()
}

func (s *Server) ListSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
