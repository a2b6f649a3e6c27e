package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/config"
	"github.com/salonhub/salon-booking-platform/internal/database"
	"github.com/salonhub/salon-booking-platform/internal/handler"
	"github.com/salonhub/salon-booking-platform/internal/middleware"
	"github.com/salonhub/salon-booking-platform/internal/payment"
	"github.com/salonhub/salon-booking-platform/internal/queue"
	"github.com/salonhub/salon-booking-platform/internal/repository"
	"github.com/salonhub/salon-booking-platform/internal/router"
	"github.com/salonhub/salon-booking-platform/internal/service"
	"github.com/salonhub/salon-booking-platform/internal/sweep"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the settings snapshot cache.
	// A nil client degrades both to direct operation.
	rdb := config.NewRedisClient()

	txRunner := repository.NewDB(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	salons := repository.NewSalonRepo(db)
	schedule := repository.NewScheduleRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	vendors := repository.NewVendorRepo(db)
	ledger := repository.NewLedgerRepo(db)
	settings := repository.NewSettingsRepo(db, rdb)

	processor := payment.NewHTTPClient(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentSecret, cfg.PaymentTimeout)
	broker := queue.Broker{}

	bookingSvc := service.NewBookingService(txRunner, bookings, payments, salons, schedule, settings, processor)
	paymentSvc := service.NewPaymentService(txRunner, payments, bookings, cfg.PaymentSecret, broker)
	approvalSvc := service.NewApprovalService(txRunner, vendors, salons, ledger, payments, users,
		settings, processor, broker, cfg.ActivationSecret)
	ledgerSvc := service.NewLedgerService(ledger)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	catalogH := handler.NewCatalogHandler(salons, schedule)
	bookingH := handler.NewBookingHandler(bookingSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	scheduleH := handler.NewScheduleHandler(salons, schedule)
	vendorH := handler.NewVendorHandler(approvalSvc)
	adminH := handler.NewAdminHandler(approvalSvc, ledgerSvc, paymentSvc, settings)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, catalogH, bookingH, vendorH, paymentH)
	router.RegisterCustomer(e, bookingH, paymentH, cfg.JWTSecret)
	router.RegisterOwner(e, scheduleH, bookingH, cfg.JWTSecret)
	router.RegisterVendor(e, vendorH, adminH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background hold-expiry sweep frees slots whose payment never
	// arrived.
	go sweep.New(bookings, cfg.SweepInterval, cfg.SweepBatch).Run(ctx)

	// Event consumer drains the booking and vendor queues; it
	// reconnects on its own and never takes the API down.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
