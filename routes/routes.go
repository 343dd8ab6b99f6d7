package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/courtside/pickleball-backend/docs"
	"github.com/courtside/pickleball-backend/handlers"
	"github.com/courtside/pickleball-backend/middleware"
)

// Handlers bundles everything SetupRoutes mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Tournament *handlers.TournamentHandler
	Team       *handlers.TeamHandler
	State      *handlers.StateHandler
	Score      *handlers.ScoreHandler
	Dupr       *handlers.DuprHandler
	WebSocket  *handlers.WebSocketHandler
}

// SetupRoutes wires the full HTTP surface. Reads are public; writes require
// a bearer token, and lifecycle plus rating submission are admin-only.
func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", h.User.GetMe)
		r.Patch("/me", h.User.UpdateMe)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAdmin)
			r.Post("/", h.Tournament.Create)
		})

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.Get)
			r.Get("/teams", h.Team.ListByTournament)
			r.Get("/state", h.State.GetView)
			r.Get("/standings", h.State.GetStandings)
			r.Get("/schedule", h.State.GetSchedule)
			r.Get("/bracket", h.State.GetBracket)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Post("/teams", h.Team.Register)
				r.Put("/matches/{matchID}/score", h.Score.UpdateRoundRobinScore)
				r.Put("/playoff/{round}/{match}/score", h.Score.UpdatePlayoffScore)

				// The reconciler checks the submitter's club role itself, so
				// linked directors can submit without platform admin rights.
				r.Post("/dupr/submit", h.Dupr.Submit)
				r.Post("/dupr/verify", h.Dupr.Verify)
				r.Get("/dupr/matches", h.Dupr.ListSubmittedMatches)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireAdmin)

				r.Patch("/", h.Tournament.Update)
				r.Delete("/", h.Tournament.Delete)
				r.Post("/logo", h.Tournament.UploadLogo)

				r.Post("/start-round-robin", h.State.StartRoundRobin)
				r.Post("/start-playoff", h.State.StartPlayoff)
				r.Post("/archive", h.State.Archive)
				r.Post("/reset", h.State.Reset)
			})
		})
	})

	router.Route("/teams/{teamID}", func(r chi.Router) {
		r.Get("/", h.Team.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Delete("/", h.Team.Remove)
		})
	})

	router.Route("/dupr/matches/{submittedMatchID}", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireAdmin)
		r.Put("/", h.Dupr.UpdateSubmittedMatch)
		r.Delete("/", h.Dupr.DeleteSubmittedMatch)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
}
