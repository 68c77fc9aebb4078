// Package server hosts the private-space HTTP service: storage, token,
// membership, game, and generation wiring plus the process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kopcaptz/daybookai/internal/platform/config"
	"github.com/kopcaptz/daybookai/internal/platform/otel"
	"github.com/kopcaptz/daybookai/internal/services/space/api/httpapi"
	"github.com/kopcaptz/daybookai/internal/services/space/game"
	"github.com/kopcaptz/daybookai/internal/services/space/generation"
	"github.com/kopcaptz/daybookai/internal/services/space/membership"
	"github.com/kopcaptz/daybookai/internal/services/space/notify"
	spacesqlite "github.com/kopcaptz/daybookai/internal/services/space/storage/sqlite"
	"github.com/kopcaptz/daybookai/internal/services/space/token"
)

// serverEnv holds env-parsed configuration for the space server.
type serverEnv struct {
	DBPath          string `env:"DAYBOOK_SPACE_DB_PATH"`
	TokenSecret     string `env:"DAYBOOK_SPACE_TOKEN_SECRET"`
	PINSecret       string `env:"DAYBOOK_SPACE_PIN_SECRET"`
	TokenTTLSeconds int    `env:"DAYBOOK_SPACE_TOKEN_TTL_SECONDS" envDefault:"86400"`

	OpenAIAPIKey  string `env:"DAYBOOK_SPACE_OPENAI_API_KEY"`
	OpenAIModel   string `env:"DAYBOOK_SPACE_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"DAYBOOK_SPACE_OPENAI_BASE_URL"`
}

func loadServerEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return serverEnv{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "space.db")
	}
	cfg.TokenSecret = strings.TrimSpace(cfg.TokenSecret)
	if len(cfg.TokenSecret) < 32 {
		// Refuse startup rather than sign tokens with weak key material.
		return serverEnv{}, errors.New("DAYBOOK_SPACE_TOKEN_SECRET must be at least 32 bytes")
	}
	cfg.PINSecret = strings.TrimSpace(cfg.PINSecret)
	if cfg.PINSecret == "" {
		cfg.PINSecret = cfg.TokenSecret
	}
	if cfg.TokenTTLSeconds <= 0 {
		return serverEnv{}, errors.New("DAYBOOK_SPACE_TOKEN_TTL_SECONDS must be positive")
	}
	return cfg, nil
}

// Server hosts the private-space service.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *spacesqlite.Store
	closeOnce  sync.Once
}

// New creates a configured server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured server listening on the provided address.
func NewWithAddr(addr string) (*Server, error) {
	srvEnv, err := loadServerEnv()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	store, err := spacesqlite.Open(srvEnv.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	codec, err := token.NewCodec([]byte(srvEnv.TokenSecret))
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("build token codec: %w", err)
	}
	tokens := token.NewService(codec, store, store, time.Duration(srvEnv.TokenTTLSeconds)*time.Second)

	var generator generation.Generator = generation.Disabled{}
	if strings.TrimSpace(srvEnv.OpenAIAPIKey) != "" {
		generator = generation.NewOpenAIGenerator(srvEnv.OpenAIAPIKey, srvEnv.OpenAIModel, srvEnv.OpenAIBaseURL)
	} else {
		log.Printf("no generation API key configured; generate/reflect/skip will fail")
	}

	notifier := notify.NewLogNotifier(nil)
	members := membership.NewService(store, tokens, notifier, []byte(srvEnv.PINSecret))
	games := game.NewService(store, store, generator, notifier)

	handler := httpapi.NewHandler(tokens, members, games)
	httpServer := &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		listener:   listener,
		httpServer: httpServer,
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until the context ends.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// RunWithAddr creates and serves a server until the context ends.
func RunWithAddr(ctx context.Context, addr string) error {
	server, err := NewWithAddr(addr)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the server and blocks until it stops or context ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	shutdownOtel, err := otel.Setup(ctx, "space")
	if err != nil {
		log.Printf("otel setup: %v", err)
	}
	if shutdownOtel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(shutdownCtx)
		}()
	}

	log.Printf("space server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources. Safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.httpServer != nil {
			_ = s.httpServer.Close()
		}
		if s.store != nil {
			_ = s.store.Close()
		}
	})
}
