package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/oauth2"

	"github.com/susu3304/chipbot/internal/config"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/store"
)

const discordAPIBase = "https://discord.com/api"

type API struct {
	router      *mux.Router
	store       store.Store
	sessions    *session.Manager
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	discordAPI  string
	httpClient  *http.Client
	server      *http.Server
}

func New(cfg *config.Config, st store.Store, sessions *session.Manager) *API {
	api := &API{
		router:     mux.NewRouter(),
		store:      st,
		sessions:   sessions,
		config:     cfg,
		jwtSecret:  []byte(cfg.JWTSecret),
		discordAPI: discordAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Public endpoints
	a.router.HandleFunc("/api/health", a.handleHealth).Methods("GET")
	a.router.HandleFunc("/api/ready", a.handleReady).Methods("GET")
	a.router.HandleFunc("/api/status", a.handleStatus).Methods("GET")

	if !a.config.OAuthEnabled() {
		log.Info("Discord OAuth not configured, chat history endpoints disabled")
		return
	}

	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Protected endpoints
	protected := a.router.PathPrefix("/api/chats").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/{chat_id}/history", a.handleHistory).Methods("GET")
	protected.HandleFunc("/{chat_id}/stats", a.handleStats).Methods("GET")
}

// Handler is the router wrapped in CORS.
func (a *API) Handler() http.Handler {
	// AllowCredentials must stay false with a wildcard origin.
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start serves until Shutdown is called.
func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("API server listening on http://%s", a.config.WebBind)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
