package bootstrap

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/controller"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/middleware"
	"log/slog"
	"net/http"

	_ "PetAdoptAPI/docs"

	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"
)

type Route struct {
	cfg                 *config.AppConfig
	chi                 *chi.Mux
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	authController      *controller.AuthController
	chatController      *controller.ChatController
	messageController   *controller.MessageController
	wsController        *controller.WebSocketController
}

func NewRoute(
	cfg *config.AppConfig,
	chi *chi.Mux,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	authController *controller.AuthController,
	chatController *controller.ChatController,
	messageController *controller.MessageController,
	wsController *controller.WebSocketController,
) *Route {
	return &Route{
		cfg:                 cfg,
		chi:                 chi,
		authMiddleware:      authMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		authController:      authController,
		chatController:      chatController,
		messageController:   messageController,
		wsController:        wsController,
	}
}

func (route *Route) Register() {
	route.chi.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to PetAdoptAPI"))
	})

	route.chi.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			slog.Error("Failed to read swagger doc", "error", err)
			helper.WriteError(w, helper.NewInternalServerError(""))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	})

	route.chi.With(route.authMiddleware.VerifyWSToken).Get("/ws", route.wsController.ServeWS)

	route.chi.Route("/api", func(r chi.Router) {
		exchangeLimit := route.rateLimitMiddleware.Limit("google_exchange", route.cfg.AuthRateLimit, route.cfg.AuthRateWindow)
		r.With(exchangeLimit).Post("/auth/google", route.authController.GoogleExchange)

		r.Group(func(r chi.Router) {
			r.Use(route.authMiddleware.VerifyToken)

			r.Get("/auth/me", route.authController.Me)
			r.Post("/auth/logout", route.authController.Logout)

			createLimit := route.rateLimitMiddleware.Limit("create_chat", route.cfg.ChatCreateRateLimit, route.cfg.ChatCreateRateWindow)
			r.With(createLimit).Post("/pets/{petID}/chat", route.chatController.StartConversation)

			r.Route("/chats", func(r chi.Router) {
				r.With(createLimit).Post("/", route.chatController.CreateConversation)
				r.Get("/", route.chatController.GetChats)
				r.Get("/{chatID}", route.chatController.GetChatByID)
				r.Post("/{chatID}/read", route.chatController.MarkAsRead)
				r.Get("/{chatID}/messages", route.messageController.GetMessages)
				r.Post("/{chatID}/messages", route.messageController.SendMessage)
			})
		})
	})
}
