package routes

import (
	"github.com/Townsmeet/imentor-sub000/internal/config"
	"github.com/Townsmeet/imentor-sub000/internal/handlers"
	"github.com/Townsmeet/imentor-sub000/internal/middleware"
	"github.com/Townsmeet/imentor-sub000/internal/payments"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/Townsmeet/imentor-sub000/internal/services"
	notifyws "github.com/Townsmeet/imentor-sub000/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewMentorProfileRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	bankRepo := repository.NewBankAccountRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	gateway := payments.NewStripeGateway(cfg.StripeSecretKey)
	verifier := payments.NewStripeWebhookVerifier(cfg.StripeWebhookSecret)
	meetings := services.NewMeetingLinkProvider(cfg.MeetingLinkBaseURL)

	hub := notifyws.NewHub()
	go hub.Run()

	notificationService := services.NewNotificationService(notificationRepo, hub, logger)
	availabilityService := services.NewAvailabilityService(db, availabilityRepo, bookingRepo)
	earningsService := services.NewEarningsService(db, earningRepo, cfg.PlatformFeeRate)
	bookingService := services.NewBookingService(
		db,
		bookingRepo,
		earningRepo,
		userRepo,
		profileRepo,
		earningsService,
		gateway,
		meetings,
		notificationService,
		logger,
		cfg.Currency,
	)
	paymentEventService := services.NewPaymentEventService(db, bookingRepo, earningsService, gateway, notificationService, logger)
	payoutService := services.NewPayoutService(
		db,
		earningRepo,
		payoutRepo,
		bankRepo,
		gateway,
		notificationService,
		logger,
		cfg.MinimumPayout,
		cfg.Currency,
	)

	bookingHandler := handlers.NewBookingHandler(bookingService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	earningsHandler := handlers.NewEarningsHandler(earningsService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	adminHandler := handlers.NewAdminHandler(payoutService)
	webhookHandler := handlers.NewWebhookHandler(verifier, paymentEventService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWSHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	// Stripe signs but does not bear a user token; verification happens in
	// the handler.
	api.Post("/webhooks/stripe", webhookHandler.HandleStripeEvent)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	bookings := authProtected.Group("/bookings")
	bookings.Post("", bookingHandler.Create)
	bookings.Get("", bookingHandler.List)
	bookings.Get("/:id", bookingHandler.Get)
	bookings.Post("/:id/confirm", bookingHandler.Confirm)
	bookings.Post("/:id/cancel", bookingHandler.Cancel)
	bookings.Post("/:id/complete", bookingHandler.Complete)
	bookings.Post("/:id/payment-intent", bookingHandler.RetryPaymentIntent)

	availability := authProtected.Group("/availability")
	availability.Get("", availabilityHandler.ListSlots)
	availability.Post("", availabilityHandler.AddSlot)
	availability.Put("", availabilityHandler.ReplaceSlots)
	availability.Delete("", availabilityHandler.ClearSlots)
	availability.Put("/:id", availabilityHandler.SetSlotAvailable)
	availability.Delete("/:id", availabilityHandler.DeleteSlot)
	availability.Get("/calendar/:mentorId", availabilityHandler.Calendar)

	earnings := authProtected.Group("/earnings")
	earnings.Get("/summary", earningsHandler.Summary)
	earnings.Get("", earningsHandler.History)

	payouts := authProtected.Group("/payouts")
	payouts.Get("/eligibility", payoutHandler.Eligibility)
	payouts.Get("", payoutHandler.History)

	authProtected.Get("/bank-account", payoutHandler.GetBankAccount)
	authProtected.Put("/bank-account", payoutHandler.SetupBankAccount)

	admin := authProtected.Group("/admin")
	admin.Get("/payouts/eligible", adminHandler.PayoutCandidates)
	admin.Post("/payouts/:mentorId", adminHandler.ProcessPayout)
	admin.Put("/bank-accounts/:mentorId/verify", adminHandler.VerifyBankAccount)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.List)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	api.Use("/v1/ws", wsHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(wsHandler.HandleWebSocket))
}
