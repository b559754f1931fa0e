package bootstrap

import (
	"PetAdoptAPI/internal/adapter"
	"PetAdoptAPI/internal/broker"
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/controller"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/middleware"
	"PetAdoptAPI/internal/repository"
	"PetAdoptAPI/internal/service"
	"PetAdoptAPI/internal/websocket"
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type App struct {
	Router *chi.Mux
	Broker *broker.Broker
	Hub    *websocket.Hub

	sendLimiter *config.RateLimiter
}

// Init wires services, controllers and routes on top of an already connected store and change feed.
func Init(appConfig *config.AppConfig, repo *repository.Repository, changes feed.Feed, validator *validator.Validate, storageAdapter *adapter.StorageAdapter, opts ...Option) *App {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	b := broker.New(changes, appConfig.FeedBackoffBase, appConfig.FeedBackoffMax)
	sendLimiter := config.NewSendRateLimiter(appConfig)

	authService := service.NewAuthService(repo, appConfig, validator)
	if o.idTokenVerifier != nil {
		authService = authService.WithIDTokenVerifier(o.idTokenVerifier)
	}
	chatService := service.NewChatService(repo, appConfig, validator, b, storageAdapter)
	messageService := service.NewMessageService(repo, appConfig, validator, b, sendLimiter)
	readService := service.NewReadService(repo, b)
	inboxService := service.NewInboxService(repo, appConfig, validator, storageAdapter)

	hub := websocket.NewHub(websocket.Services{
		Chats:    chatService,
		Messages: messageService,
		Inbox:    inboxService,
		Reads:    readService,
		Broker:   b,
	})

	limitStore := o.rateLimitStore
	if limitStore == nil && repo.RateLimit != nil {
		limitStore = repo.RateLimit
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limitStore, appConfig)

	route := NewRoute(
		appConfig,
		config.NewChi(appConfig),
		authMiddleware,
		rateLimitMiddleware,
		controller.NewAuthController(authService),
		controller.NewChatController(chatService, inboxService, readService),
		controller.NewMessageController(messageService),
		controller.NewWebSocketController(hub, appConfig.AppCorsAllowedOrigins),
	)
	route.Register()

	return &App{
		Router:      route.chi,
		Broker:      b,
		Hub:         hub,
		sendLimiter: sendLimiter,
	}
}

// Run starts the broker and the hub. Both stop when ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	go a.Broker.Run(ctx)
	go a.Hub.Run(ctx)
}

func (a *App) Close() {
	a.sendLimiter.Stop()
}

type options struct {
	idTokenVerifier service.IDTokenVerifier
	rateLimitStore  middleware.RateLimitStore
}

type Option func(*options)

// WithIDTokenVerifier replaces Google ID token validation, used by tests and local setups.
func WithIDTokenVerifier(v service.IDTokenVerifier) Option {
	return func(o *options) {
		o.idTokenVerifier = v
	}
}

// WithRateLimitStore replaces the Redis counters behind the HTTP rate limits.
func WithRateLimitStore(store middleware.RateLimitStore) Option {
	return func(o *options) {
		o.rateLimitStore = store
	}
}
