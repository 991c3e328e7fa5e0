package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/susu3304/kongklang/internal/commands"
	"github.com/susu3304/kongklang/internal/config"
	"github.com/susu3304/kongklang/internal/ledger"
	"github.com/susu3304/kongklang/internal/metrics"
)

// Dispatcher runs one chat message; *commands.Dispatcher implements it.
type Dispatcher interface {
	Handle(ctx context.Context, msg commands.Message) (commands.Reply, error)
}

// Replier sends reply texts for a webhook event; *line.Client implements it.
type Replier interface {
	Reply(ctx context.Context, replyToken string, texts []string) error
}

type API struct {
	router        *mux.Router
	book          *ledger.Book
	dispatcher    Dispatcher
	replier       Replier
	metrics       *metrics.Metrics
	channelSecret string
	jwtSecret     []byte
	eventTimeout  time.Duration
	bind          string

	server   *http.Server
	inflight sync.WaitGroup
}

// New wires the routes. The LINE webhook is only mounted when a channel
// secret is configured, the admin API only when a JWT secret is.
func New(cfg *config.Config, book *ledger.Book, dispatcher Dispatcher, replier Replier, m *metrics.Metrics) *API {
	api := &API{
		router:        mux.NewRouter(),
		book:          book,
		dispatcher:    dispatcher,
		replier:       replier,
		metrics:       m,
		channelSecret: cfg.LineChannelSecret,
		jwtSecret:     []byte(cfg.JWTSecret),
		eventTimeout:  cfg.EventTimeout,
		bind:          cfg.WebBind,
	}
	if api.eventTimeout <= 0 {
		api.eventTimeout = 10 * time.Second
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Public endpoints
	a.router.HandleFunc("/", a.handleHealth).Methods("GET")
	if a.channelSecret != "" {
		a.router.HandleFunc("/webhook", a.handleLineWebhook).Methods("POST")
	}
	if a.metrics != nil {
		a.router.Handle("/metrics", a.metrics.Handler()).Methods("GET")
	}

	// Protected endpoints
	if len(a.jwtSecret) == 0 {
		slog.Info("JWT_SECRET not set, admin API disabled")
		return
	}
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/conversations/{conversation_id}/entries", a.handleListEntries).Methods("GET")
	protected.HandleFunc("/conversations/{conversation_id}/summary", a.handleSummary).Methods("GET")
	protected.HandleFunc("/conversations/{conversation_id}/export", a.handleExport).Methods("GET")
}

// Handler is the router wrapped in request logging, panic recovery and CORS.
func (a *API) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return withMiddleware(cors.New(corsOptions).Handler(a.router), slog.Default())
}

// withMiddleware puts the logger outside the recoverer so a recovered panic
// is logged with its 500 status.
func withMiddleware(h http.Handler, logger *slog.Logger) http.Handler {
	return requestLogger(logger)(middleware.Recoverer(h))
}

func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.bind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("API server listening", "addr", a.bind)
	return a.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for webhook events that are
// still being handled in the background.
func (a *API) Shutdown(ctx context.Context) error {
	var err error
	if a.server != nil {
		err = a.server.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
