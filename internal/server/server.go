package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/backup"
	"github.com/dukerupert/chorejar/internal/handler"
	"github.com/dukerupert/chorejar/internal/issues"
	"github.com/dukerupert/chorejar/internal/middleware"
	ws "github.com/dukerupert/chorejar/internal/websocket"
)

// Bug reports reach a third-party API, so each client IP gets a small budget.
const (
	issueRateLimit  = 5
	issueRateWindow = time.Minute
)

type Server struct {
	data          *appdata.Client
	hub           *ws.Hub
	childH        *handler.ChildHandler
	choreH        *handler.ChoreHandler
	payoutH       *handler.PayoutHandler
	settingsH     *handler.SettingsHandler
	transferH     *handler.TransferHandler
	issueH        *handler.IssueHandler
	backupH       *handler.BackupHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(data *appdata.Client, issueClient *issues.Client, backupCfg backup.S3Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	// A (re)connecting UI may have missed invalidations, so it starts by
	// refetching everything.
	hub.SetGreeting(ws.NewInvalidateMessage(keyNames(appdata.RootKeys)))

	// Every cache invalidation is forwarded so connected UIs refetch the
	// same keys.
	data.OnInvalidate(func(keys []appdata.Key) {
		hub.Broadcast(ws.NewInvalidateMessage(keyNames(keys)))
	})

	backupMgr := backup.NewManager(backupCfg, data, logger.With("component", "backup"), func(s backup.Status) {
		hub.Broadcast(ws.NewMessage(ws.TypeBackupStatus, map[string]any{
			"state":      string(s.State),
			"inProgress": s.InProgress,
			"error":      s.Error,
		}))
	})

	return &Server{
		data:          data,
		hub:           hub,
		childH:        handler.NewChildHandler(data, logger.With("component", "child")),
		choreH:        handler.NewChoreHandler(data, logger.With("component", "chore")),
		payoutH:       handler.NewPayoutHandler(data, logger.With("component", "payout")),
		settingsH:     handler.NewSettingsHandler(data, logger.With("component", "settings")),
		transferH:     handler.NewTransferHandler(data, logger.With("component", "transfer")),
		issueH:        handler.NewIssueHandler(issueClient, logger.With("component", "issues")),
		backupH:       handler.NewBackupHandler(backupMgr, data, logger.With("component", "backup")),
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Children
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.HandleFunc("PATCH /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)
	mux.HandleFunc("POST /api/children/{id}/complete", s.childH.Complete)
	mux.HandleFunc("POST /api/children/{id}/payout", s.childH.Payout)
	mux.HandleFunc("GET /api/children/{id}/payouts", s.childH.Payouts)
	mux.HandleFunc("GET /api/children/{id}/favorites", s.childH.Favorites)
	mux.HandleFunc("POST /api/children/{id}/favorites/{choreId}", s.childH.ToggleFavorite)
	mux.HandleFunc("GET /api/totals", s.childH.Totals)

	// Chores
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("PATCH /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)

	mux.HandleFunc("GET /api/payouts", s.payoutH.List)

	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)

	// Whole data set
	mux.HandleFunc("GET /api/export", s.transferH.Export)
	mux.HandleFunc("POST /api/import", s.transferH.Import)

	mux.HandleFunc("POST /api/issues/create", s.rateLimitedHandler(s.issueH.Create))

	// Backups
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Run)
	mux.HandleFunc("POST /api/backups/restore", s.backupH.Restore)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func keyNames(keys []appdata.Key) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return names
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, issueRateLimit, issueRateWindow)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
