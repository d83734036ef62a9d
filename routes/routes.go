package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bekzat-dev/tournament-app/handlers"
	"github.com/bekzat-dev/tournament-app/middleware"
	"github.com/bekzat-dev/tournament-app/models"
)

type Config struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(
	router *chi.Mux,
	cfg Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	tournamentHandler *handlers.TournamentHandler,
	ticketHandler *handlers.TicketHandler,
	checkinHandler *handlers.CheckinHandler,
	bracketHandler *handlers.BracketHandler,
	adminUserHandler *handlers.AdminUserHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(cfg.JWTSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров и сеток
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/{tournamentID}/bracket", bracketHandler.GetByTournament)

		// Управление турнирами только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}", tournamentHandler.Update)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Post("/{tournamentID}/bracket/generate", bracketHandler.Generate)
		})
	})

	router.Route("/profiles", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", profileHandler.Create)
		r.Get("/", profileHandler.List)
		r.Put("/{profileID}", profileHandler.Update)
		r.Delete("/{profileID}", profileHandler.Delete)
		r.Post("/{profileID}/avatar", profileHandler.UploadAvatar)

		r.Post("/{profileID}/tickets", ticketHandler.Purchase)
		r.Get("/{profileID}/tickets", ticketHandler.List)
	})

	router.Route("/tickets", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/{ticketID}/cancel", ticketHandler.Cancel)
	})

	router.Route("/checkin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Post("/scan-qr", checkinHandler.ScanQR)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Get("/dashboard", dashboardHandler.GetStats)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", adminUserHandler.List)
			r.Get("/{userID}", adminUserHandler.GetByID)
			r.Put("/{userID}", adminUserHandler.Update)
			r.Delete("/{userID}", adminUserHandler.Delete)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
