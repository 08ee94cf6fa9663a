package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/pocketbase/pocketbase/tools/mailer"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"travel-agency/config"
	"travel-agency/internal/clock"
	"travel-agency/internal/services"
	"travel-agency/internal/store"
	_ "travel-agency/migrations"
	"travel-agency/models"
	"travel-agency/monitoring"
	"travel-agency/utils"
)

// stores groups the persistence layer of the application.
type stores struct {
	categories   *store.RecordStore[*models.Category]
	tours        *store.RecordStore[*models.Tour]
	events       *store.RecordStore[*models.Event]
	vehicles     *store.RecordStore[*models.Vehicle]
	faqs         *store.RecordStore[*models.FAQ]
	blogs        *store.RecordStore[*models.Blog]
	images       *store.RecordStore[*models.Image]
	testimonials *store.RecordStore[*models.Testimonial]
	newsletter   *store.RecordStore[*models.NewsletterSubscriber]
	bookings     *store.BookingStore
	users        *store.UserStore
	sessions     *store.SessionStore
}

func newStores(app core.App) *stores {
	return &stores{
		categories:   store.NewRecordStore(app, store.CategoryCodec()),
		tours:        store.NewRecordStore(app, store.TourCodec()),
		events:       store.NewRecordStore(app, store.EventCodec()),
		vehicles:     store.NewRecordStore(app, store.VehicleCodec()),
		faqs:         store.NewRecordStore(app, store.FAQCodec()),
		blogs:        store.NewRecordStore(app, store.BlogCodec()),
		images:       store.NewRecordStore(app, store.ImageCodec()),
		testimonials: store.NewRecordStore(app, store.TestimonialCodec()),
		newsletter:   store.NewRecordStore(app, store.NewsletterCodec()),
		bookings:     store.NewBookingStore(app),
		users:        store.NewUserStore(app),
		sessions:     store.NewSessionStore(app),
	}
}

// container holds the services shared by routes, hooks and commands.
type container struct {
	categories   *services.ContentService[*models.Category]
	tours        *services.ContentService[*models.Tour]
	events       *services.ContentService[*models.Event]
	vehicles     *services.ContentService[*models.Vehicle]
	faqs         *services.ContentService[*models.FAQ]
	blogs        *services.ContentService[*models.Blog]
	images       *services.ContentService[*models.Image]
	testimonials *services.ContentService[*models.Testimonial]

	bookings      *services.BookingService
	users         *services.UserService
	sessions      *services.SessionService
	newsletter    *services.NewsletterService
	notifications *services.NotificationService
	publisher     *services.PubNubPublisher
}

func newContainer(app core.App, cfg *config.Config, st *stores, redisClient redis.Cmdable, pn *pubnub.PubNub) (*container, error) {
	clk := clock.NewSystem()

	breaker := utils.NewCircuitBreaker("mail",
		utils.WithStateChange(func(name string, from, to utils.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
	)
	notifications, err := services.NewNotificationService(services.NotificationConfig{
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		StaffEmail:  cfg.StaffNotifyEmail,
		AppURL:      cfg.AppURL,
		Workers:     cfg.MailWorkers,
		QueueSize:   cfg.MailQueueSize,
	}, func() mailer.Mailer { return app.NewMailClient() }, breaker)
	if err != nil {
		return nil, err
	}

	publisher := services.NewPubNubPublisher(pn, cfg.AdminChannel, cfg.PublishQueueSize)
	sessions := services.NewSessionService(st.sessions, st.users, redisClient, clk, cfg.SessionTTL, cfg.SessionCacheTTL)

	return &container{
		categories: services.NewContentService[*models.Category]("categories", models.PermManageContent, st.categories, clk,
			services.WithDeleteGuard[*models.Category](st.tours, st.events, st.blogs)),
		tours: services.NewContentService[*models.Tour]("tours", models.PermManageContent, st.tours, clk,
			services.WithCategoryCheck[*models.Tour](st.categories)),
		events: services.NewContentService[*models.Event]("events", models.PermManageContent, st.events, clk,
			services.WithCategoryCheck[*models.Event](st.categories)),
		vehicles: services.NewContentService[*models.Vehicle]("vehicles", models.PermManageContent, st.vehicles, clk),
		faqs:     services.NewContentService[*models.FAQ]("faqs", models.PermManageFAQ, st.faqs, clk),
		blogs: services.NewContentService[*models.Blog]("blogs", models.PermManageBlog, st.blogs, clk,
			services.WithCategoryCheck[*models.Blog](st.categories)),
		images: services.NewContentService[*models.Image]("images", models.PermManageGallery, st.images, clk),
		testimonials: services.NewContentService[*models.Testimonial]("testimonials", models.PermManageContent, st.testimonials, clk,
			services.WithPublicSubmit(func(t *models.Testimonial) { t.Approved = false })),

		bookings: services.NewBookingService(st.bookings, services.Catalog{
			Tours:    st.tours,
			Events:   st.events,
			Vehicles: st.vehicles,
		}, notifications, publisher, clk),
		users:         services.NewUserService(st.users, sessions),
		sessions:      sessions,
		newsletter:    services.NewNewsletterService(st.newsletter, notifications, clk),
		notifications: notifications,
		publisher:     publisher,
	}, nil
}

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	st := newStores(app)
	svc, err := newContainer(app, cfg, st, redisClient, pn)
	if err != nil {
		return err
	}

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: !cfg.IsProduction(),
	})
	app.RootCmd.AddCommand(newExportCommand(cfg, st.bookings))

	app.OnBootstrap().BindFunc(func(e *core.BootstrapEvent) error {
		if err := e.Next(); err != nil {
			return err
		}
		applyMailSettings(e.App, cfg)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Start background tasks
		svc.notifications.Start(ctx)
		svc.publisher.Start(ctx)
		if cfg.EnableMetrics {
			go monitoring.NewMonitor(st.bookings, cfg.MetricsInterval).Run(ctx)
		}

		registerRoutes(e, cfg, svc, redisClient)
		log.Println("Server routes registered")

		return e.Next()
	})

	registerHooks(app, svc)

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		log.Println("Shutdown signal received, cleaning up...")
		cancel()
		svc.notifications.Wait()
		svc.publisher.Wait()
		return e.Next()
	})

	// Start server
	os.Args = serveArgs(os.Args, cfg.Port)
	return app.Start()
}

// applyMailSettings overrides the stored SMTP settings when SMTP_HOST is set.
func applyMailSettings(app core.App, cfg *config.Config) {
	settings := app.Settings()
	settings.Meta.AppURL = cfg.AppURL
	settings.Meta.SenderAddress = cfg.MailFromAddress
	settings.Meta.SenderName = cfg.MailFromName

	if cfg.SMTPHost == "" {
		return
	}
	settings.SMTP.Enabled = true
	settings.SMTP.Host = cfg.SMTPHost
	settings.SMTP.Port = cfg.SMTPPort
	settings.SMTP.Username = cfg.SMTPUsername
	settings.SMTP.Password = cfg.SMTPPassword
	settings.SMTP.TLS = cfg.SMTPTLS
}

// serveArgs makes "serve" listen on PORT unless --http was passed explicitly.
func serveArgs(args []string, port string) []string {
	if len(args) < 2 || args[1] != "serve" || port == "" {
		return args
	}
	for _, arg := range args[2:] {
		if arg == "--http" || strings.HasPrefix(arg, "--http=") {
			return args
		}
	}
	return append(args, "--http=0.0.0.0:"+port)
}
