package cmd

import (
	"context"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"travel-agency/config"
	"travel-agency/internal/handlers"
	"travel-agency/models"
	"travel-agency/security"
	"travel-agency/utils"
)

type group = router.RouterGroup[*core.RequestEvent]

func registerRoutes(se *core.ServeEvent, cfg *config.Config, svc *container, redisClient redis.Cmdable) {
	limiter := security.NewRateLimiter(redisClient)
	formLimit := limiter.Limit("forms", cfg.RateLimitForms, cfg.RateLimitWindow)

	se.Router.Bind(security.CookieAuth(), security.SessionGuard(svc.sessions))
	se.Router.BindFunc(security.CSRF(cfg.CSRFEnabled))

	api := se.Router.Group("/api")

	// Content
	contentRoutes(api, "/categories", handlers.NewContentHandler[*models.Category](svc.categories, func() *models.Category { return &models.Category{} }, "kind"))
	contentRoutes(api, "/tours", handlers.NewContentHandler[*models.Tour](svc.tours, func() *models.Tour { return &models.Tour{} }, "category", "destination"))
	contentRoutes(api, "/events", handlers.NewContentHandler[*models.Event](svc.events, func() *models.Event { return &models.Event{} }, "category"))
	contentRoutes(api, "/vehicles", handlers.NewContentHandler[*models.Vehicle](svc.vehicles, func() *models.Vehicle { return &models.Vehicle{} }, "vehicle_type"))
	contentRoutes(api, "/faqs", handlers.NewContentHandler[*models.FAQ](svc.faqs, func() *models.FAQ { return &models.FAQ{} }, "topic"))
	contentRoutes(api, "/blogs", handlers.NewContentHandler[*models.Blog](svc.blogs, func() *models.Blog { return &models.Blog{} }, "category"))
	contentRoutes(api, "/images", handlers.NewContentHandler[*models.Image](svc.images, func() *models.Image { return &models.Image{} }, "album"))

	testimonials := handlers.NewContentHandler[*models.Testimonial](svc.testimonials, func() *models.Testimonial { return &models.Testimonial{} })
	contentRoutes(api, "/testimonials", testimonials)
	api.POST("/testimonials/submit", testimonials.Submit).BindFunc(security.BlockBots(), formLimit)

	// Bookings
	bookingHandler := handlers.NewBookingHandler(svc.bookings)
	api.POST("/bookings/{kind}", bookingHandler.Submit).BindFunc(security.BlockBots(), formLimit)

	admin := api.Group("/admin")
	admin.BindFunc(security.RequireUser())
	admin.GET("/dashboard", bookingHandler.Dashboard).BindFunc(security.Require(models.PermViewDashboard))

	adminBookings := admin.Group("/bookings/{kind}")
	adminBookings.BindFunc(security.Require(models.PermManageBookings))
	adminBookings.GET("", bookingHandler.List)
	adminBookings.GET("/{id}", bookingHandler.Get)
	adminBookings.PATCH("/{id}/status", bookingHandler.UpdateStatus)
	adminBookings.DELETE("/{id}", bookingHandler.Delete)

	// Newsletter
	newsletterHandler := handlers.NewNewsletterHandler(svc.newsletter)
	api.POST("/newsletter/subscribe", newsletterHandler.Subscribe).BindFunc(security.BlockBots(), formLimit)
	api.GET("/newsletter/unsubscribe", newsletterHandler.Unsubscribe)
	manageNewsletter := security.Require(models.PermManageNewsletter)
	admin.GET("/newsletter", newsletterHandler.List).BindFunc(manageNewsletter)
	admin.DELETE("/newsletter/{id}", newsletterHandler.Delete).BindFunc(manageNewsletter)

	// Auth, sessions and staff accounts
	authHandler := handlers.NewAuthHandler(svc.sessions, cfg.SessionTTL, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(svc.users)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login).BindFunc(limiter.Limit("login", cfg.RateLimitLogin, cfg.RateLimitWindow))
	auth.POST("/logout", authHandler.Logout)

	staff := auth.Group("")
	staff.BindFunc(security.RequireUser())
	staff.GET("/me", userHandler.Me)
	staff.GET("/sessions", authHandler.Sessions)
	staff.DELETE("/sessions/{id}", authHandler.RevokeSession)
	manageUsers := security.Require(models.PermManageUsers)
	staff.GET("/users", userHandler.List).BindFunc(manageUsers)
	staff.POST("/users", userHandler.Create).BindFunc(manageUsers)
	staff.GET("/users/{id}", userHandler.Get)
	staff.PUT("/users/{id}", userHandler.Update)
	staff.PATCH("/users/{id}", userHandler.Update)
	staff.DELETE("/users/{id}", userHandler.Delete).BindFunc(manageUsers)
	staff.POST("/users/{id}/sessions/revoke", authHandler.RevokeAll)

	// Health check
	health := handlers.NewHealthHandler(map[string]handlers.Check{
		"redis": func(ctx context.Context) error {
			return utils.RedisHealthCheck(ctx, redisClient)
		},
		"db": func(ctx context.Context) error {
			_, err := se.App.DB().NewQuery("SELECT 1").WithContext(ctx).Execute()
			return err
		},
	})
	se.Router.GET("/health", health.Health)

	if cfg.EnableMetrics {
		se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
	}
}

// contentRoutes mounts the CMS endpoints of one content type. Reads are
// public; writes need a staff account and the permission checked by the service.
func contentRoutes[T models.Resource](api *group, path string, h *handlers.ContentHandler[T]) {
	g := api.Group(path)
	g.GET("", h.List)
	g.GET("/{id}", h.Get)
	g.POST("", h.Create).BindFunc(security.RequireUser())
	g.PUT("/{id}", h.Update).BindFunc(security.RequireUser())
	g.PATCH("/{id}", h.Update).BindFunc(security.RequireUser())
	g.DELETE("/{id}", h.Delete).BindFunc(security.RequireUser())
}
