package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/booktrade/backend/api/controllers"
	"github.com/booktrade/backend/api/middleware"
	"github.com/booktrade/backend/internal/auth"
	"github.com/booktrade/backend/internal/listings"
	"github.com/booktrade/backend/internal/notifications"
	"github.com/booktrade/backend/internal/offers"
	"github.com/booktrade/backend/pkg/auth/session"
	"github.com/booktrade/backend/pkg/config"
	"github.com/booktrade/backend/pkg/logger"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DBPinger             controllers.Pinger
	RedisPinger          controllers.Pinger
	SessionChecker       session.AccessSessionChecker
	AuthService          auth.Service
	RegisterService      auth.RegisterService
	ListingsService      listings.Service
	OffersService        offers.Service
	NotificationsService notifications.Service
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisPinger))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(params.RegisterService, params.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, params.SessionChecker, logg)).
			Post("/logout", controllers.AuthLogout(params.AuthService, logg))
	})

	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Get("/", controllers.ListPosts(params.ListingsService, logg))
		r.Get("/{postID}", controllers.GetPost(params.ListingsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
			r.Post("/", controllers.CreatePost(params.ListingsService, logg))
			r.Post("/{postID}/sold", controllers.MarkPostSold(params.ListingsService, logg))
			r.Post("/{postID}/hide", controllers.HidePost(params.ListingsService, logg))
			r.Post("/{postID}/unhide", controllers.UnhidePost(params.ListingsService, logg))
			r.Post("/{postID}/available", controllers.RelistPost(params.ListingsService, logg))
			r.Post("/{postID}/pending", controllers.MarkPostPending(params.ListingsService, logg))

			r.Post("/{postID}/offers", controllers.SubmitOffer(params.OffersService, logg))
			r.Get("/{postID}/offers", controllers.ListPostOffers(params.OffersService, logg))
		})
	})

	r.Route("/api/v1/offers", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
		r.Get("/", controllers.ListMyOffers(params.OffersService, logg))
		r.Get("/{offerID}", controllers.GetOffer(params.OffersService, logg))
		r.Post("/{offerID}/respond", controllers.RespondToOffer(params.OffersService, logg))
		r.Post("/{offerID}/respond-counter", controllers.RespondToCounter(params.OffersService, logg))
		r.Post("/{offerID}/withdraw", controllers.WithdrawOffer(params.OffersService, logg))
	})

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
		r.Get("/", controllers.ListNotifications(params.NotificationsService, logg))
		r.Get("/unread-count", controllers.UnreadNotificationCount(params.NotificationsService, logg))
		r.Post("/{notificationID}/read", controllers.MarkNotificationRead(params.NotificationsService, logg))
		r.Post("/read-all", controllers.MarkAllNotificationsRead(params.NotificationsService, logg))
	})

	return r
}
