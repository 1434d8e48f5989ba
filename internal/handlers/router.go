package handlers

import (
	"net/http"

	"pokebattle-backend/internal/middleware"
	"pokebattle-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services bundles what the router needs
type Services struct {
	Users   *services.UserService
	Friends *services.FriendService
	Battles *services.BattleService
	Hub     *services.WSHub
}

// NewRouter builds the HTTP routes
func NewRouter(svc Services) http.Handler {
	userHandler := NewUserHandler(svc.Users)
	friendHandler := NewFriendHandler(svc.Friends)
	battleHandler := NewBattleHandler(svc.Battles, svc.Hub)
	wsHandler := NewWebSocketHandler(svc.Hub, svc.Users, svc.Battles)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(svc.Users))

			r.Get("/auth/me", userHandler.Me)

			r.Get("/user/favorites", userHandler.GetFavorites)
			r.Post("/user/favorites", userHandler.ToggleFavorite)
			r.Get("/user/teams", userHandler.GetTeams)
			r.Post("/user/teams", userHandler.SaveTeam)
			r.Delete("/user/teams/{teamId}", userHandler.DeleteTeam)
			r.Put("/user/push-token", userHandler.UpdatePushToken)

			r.Post("/friends/add", friendHandler.AddFriend)
			r.Get("/friends", friendHandler.ListFriends)

			r.Post("/battles/create", battleHandler.CreateBattle)
			r.Get("/battles", battleHandler.ListBattles)
			r.Get("/battles/{id}", battleHandler.GetBattle)
			r.Post("/battles/{id}/join", battleHandler.JoinBattle)
			r.Post("/battles/{id}/move", battleHandler.Move)
			r.Post("/battles/{id}/forfeit", battleHandler.Forfeit)
		})
	})

	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
