// Package gateway is the network edge of the server: the websocket endpoint
// clients play through and a small read-only HTTP API.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/snake-rooms/internal/config"
	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
	"github.com/vovakirdan/snake-rooms/internal/storage"
)

// ScoreSource is the read side of the score history.
type ScoreSource interface {
	TopScores(limit int) ([]storage.ScoreEntry, error)
	Stats() (*storage.Stats, error)
}

// Options configures the listener and per-connection behaviour.
type Options struct {
	Addr           string
	AllowedOrigins []string // "*" allows any origin
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Timing         Timing
	SendBuffer     int
}

// OptionsFromConfig maps the server config section onto Options.
func OptionsFromConfig(c config.ServerConfig) Options {
	return Options{
		Addr:           c.HTTPAddr,
		AllowedOrigins: c.AllowedOrigins,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		Timing: Timing{
			PingInterval: c.PingInterval,
			PongWait:     c.PongWait,
			WriteWait:    c.WriteWait,
		},
		SendBuffer: c.SendBuffer,
	}
}

// Server serves /ws and /v1 on one http.Server.
type Server struct {
	opts     Options
	coord    *multiplayer.Coordinator
	scores   ScoreSource // nil when storage is disabled
	logger   *log.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

// New builds the router and the http.Server. Pass a nil scores to run
// without a score history.
func New(opts Options, coord *multiplayer.Coordinator, scores ScoreSource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Timing.PongWait <= 0 {
		opts.Timing.PongWait = 60 * time.Second
	}
	if opts.Timing.PingInterval <= 0 || opts.Timing.PingInterval >= opts.Timing.PongWait {
		opts.Timing.PingInterval = opts.Timing.PongWait * 9 / 10
	}
	if opts.Timing.WriteWait <= 0 {
		opts.Timing.WriteWait = 10 * time.Second
	}

	s := &Server{
		opts:   opts,
		coord:  coord,
		scores: scores,
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Handler returns the complete router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ws", s.handleWS)
	r.Route("/v1", func(sub chi.Router) {
		newAPI(s.coord, s.scores).Routes(sub)
	})

	return r
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.opts.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers to return.
// Hijacked websocket connections are not tracked by http.Server; they end
// when their sessions close.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := multiplayer.SessionID(uuid.NewString())
	codec := ParseCodec(r.URL.Query().Get("codec"))
	session := multiplayer.NewChannelSession(id, s.opts.SendBuffer)
	logger := s.logger.With("session", id)

	s.coord.Sessions().Register(session)
	s.coord.Send(multiplayer.SessionConnectedMsg{SessionID: id})
	logger.Debug("websocket open", "remote", r.RemoteAddr, "codec", codec)

	client := newClient(conn, session, codec, s.coord, s.opts.Timing, logger)
	go client.writePump()
	go client.readPump()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.opts.AllowedOrigins) == 0 || slices.Contains(s.opts.AllowedOrigins, "*") {
		return true
	}
	return slices.ContainsFunc(s.opts.AllowedOrigins, func(allowed string) bool {
		return strings.EqualFold(allowed, origin)
	})
}

// requestLogger logs each HTTP request through charmbracelet/log.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"took", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
