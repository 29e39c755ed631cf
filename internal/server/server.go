// Package server wires the stores, adapters, and handlers into one HTTP
// surface on a single LAN-facing listener.
package server

import (
	"database/sql"
	"log/slog"
	"net"
	"net/http"

	"github.com/alvslovescyber/dashingly/internal/ai"
	"github.com/alvslovescyber/dashingly/internal/handler"
	"github.com/alvslovescyber/dashingly/internal/middleware"
	"github.com/alvslovescyber/dashingly/internal/oauth"
	"github.com/alvslovescyber/dashingly/internal/snapshot"
	"github.com/alvslovescyber/dashingly/internal/spotify"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/strava"
	"github.com/alvslovescyber/dashingly/internal/vault"
	"github.com/alvslovescyber/dashingly/internal/weather"
	ws "github.com/alvslovescyber/dashingly/internal/websocket"
)

// Config carries the deployment knobs main resolves from the environment.
type Config struct {
	DBPath          string
	BaseURL         string
	VaultPassphrase string
	HealthSecret    string
	AIMaxRunsPerDay int
}

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	generator *ai.Generator

	snapshotH    *handler.SnapshotHandler
	taskH        *handler.TaskHandler
	suggestionH  *handler.SuggestionHandler
	settingsH    *handler.SettingsHandler
	integrationH *handler.IntegrationHandler
	spotifyH     *handler.SpotifyHandler
	oauthH       *handler.OAuthHandler
	healthH      *handler.HealthHandler
	qrH          *handler.QRHandler
	systemH      *handler.SystemHandler
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	settingsStore := store.NewSettingsStore(db)
	taskStore := store.NewTaskStore(db)
	suggestionStore := store.NewSuggestionStore(db)
	healthStore := store.NewHealthStore(db)
	stravaStore := store.NewStravaStore(db)
	spotifyStore := store.NewSpotifyStore(db)
	weatherCache := store.NewWeatherCacheStore(db)
	bibleStore := store.NewBibleStore(db)
	syncStore := store.NewSyncStore(db)

	v := vault.New(settingsStore, cfg.VaultPassphrase, logger)
	oauthMgr := oauth.NewManager(v, settingsStore, logger)

	stravaAdapter := strava.New(settingsStore, stravaStore, syncStore)
	spotifyAdapter := spotify.New(oauthMgr, spotifyStore, settingsStore, syncStore, logger)
	weatherAdapter := weather.New(settingsStore, weatherCache, syncStore, logger)
	generator := ai.NewGenerator(settingsStore, suggestionStore, taskStore, stravaStore, healthStore, syncStore, v, cfg.AIMaxRunsPerDay, logger)

	builder := snapshot.NewBuilder(settingsStore, taskStore, suggestionStore, healthStore, bibleStore, syncStore,
		stravaAdapter, spotifyAdapter, weatherAdapter, generator, logger)

	return &Server{
		db:           db,
		hub:          hub,
		generator:    generator,
		snapshotH:    handler.NewSnapshotHandler(builder, logger.With("component", "snapshot_handler")),
		taskH:        handler.NewTaskHandler(taskStore, hub, logger.With("component", "task_handler")),
		suggestionH:  handler.NewSuggestionHandler(suggestionStore, generator, hub, logger.With("component", "suggestion_handler")),
		settingsH:    handler.NewSettingsHandler(settingsStore, weatherAdapter, hub, logger.With("component", "settings_handler")),
		integrationH: handler.NewIntegrationHandler(oauthMgr, generator, spotifyAdapter, weatherAdapter, syncStore, hub, logger.With("component", "integration_handler")),
		spotifyH:     handler.NewSpotifyHandler(spotifyAdapter, hub, logger.With("component", "spotify_handler")),
		oauthH:       handler.NewOAuthHandler(oauthMgr, cfg.BaseURL, hub, logger.With("component", "oauth_handler")),
		healthH:      handler.NewHealthHandler(healthStore, syncStore, cfg.HealthSecret, cfg.BaseURL, hub, logger.With("component", "health_handler")),
		qrH:          handler.NewQRHandler(cfg.BaseURL, logger.With("component", "qr_handler")),
		systemH:      handler.NewSystemHandler(db, cfg.DBPath, bibleStore, hub, logger.With("component", "system_handler")),
		logger:       logger,
	}
}

// Generator exposes the AI generator so main can reset its daily counters
// at the day boundary.
func (s *Server) Generator() *ai.Generator {
	return s.generator
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Presentation API
	mux.HandleFunc("GET /api/snapshot", s.snapshotH.Get)

	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)

	mux.HandleFunc("POST /api/suggestions/{id}/accept", s.suggestionH.Accept)
	mux.HandleFunc("POST /api/suggestions/{id}/dismiss", s.suggestionH.Dismiss)
	mux.HandleFunc("POST /api/suggestions/generate", s.suggestionH.Generate)

	mux.HandleFunc("POST /api/bible/complete", s.systemH.BibleComplete)

	mux.HandleFunc("GET /api/settings/weather", s.settingsH.GetWeather)
	mux.HandleFunc("PUT /api/settings/weather", s.settingsH.PutWeather)
	mux.HandleFunc("GET /api/cities", s.settingsH.SearchCities)
	mux.HandleFunc("GET /api/settings/{key}", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings/{key}", s.settingsH.Put)

	mux.HandleFunc("GET /api/integrations", s.integrationH.Status)
	mux.HandleFunc("PUT /api/integrations/{service}/credentials", s.integrationH.PutCredentials)
	mux.HandleFunc("POST /api/integrations/{service}/disconnect", s.integrationH.Disconnect)
	mux.HandleFunc("POST /api/integrations/{service}/test", s.integrationH.Test)
	mux.HandleFunc("GET /api/openai-key", s.integrationH.GetOpenAIKey)
	mux.HandleFunc("PUT /api/openai-key", s.integrationH.PutOpenAIKey)

	mux.HandleFunc("POST /api/spotify/{action}", s.spotifyH.Control)

	mux.HandleFunc("POST /api/export", s.systemH.Export)
	mux.HandleFunc("POST /api/seed", s.systemH.Seed)

	// Browser-facing connect flow and phone push
	mux.HandleFunc("GET /oauth/{provider}/start", s.oauthH.Start)
	mux.HandleFunc("GET /oauth/{provider}/callback", s.oauthH.Callback)
	mux.HandleFunc("POST /health", s.healthH.Push)
	mux.HandleFunc("GET /health-info", s.healthH.Info)
	mux.HandleFunc("GET /qr/{service}", s.qrH.Get)

	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

// LANIP finds the address other devices on the network can reach this
// host at. The UDP dial never sends a packet; it just selects the
// outbound interface.
func LANIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
