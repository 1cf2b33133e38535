// Command server runs the ticketing API and, unless disabled, the
// notification worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/notify"
	"github.com/iliyamo/event-ticketing/internal/payment"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
	"github.com/iliyamo/event-ticketing/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrate := flags.Bool("migrate", false, "apply the schema before serving")
	consumer := flags.Bool("consumer", true, "run the notification worker in this process")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no %s file loaded, using the environment", *envFile)
	}
	cfg := config.Load()
	lg := logger.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(lg)
	clk := clock.NewSystem()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if *migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		lg.Info("schema applied")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), lg)
	var orders service.OrderStore
	if rdb != nil {
		defer rdb.Close()
		orders = store.NewRedisOrderStore(rdb, "evt:order", cfg.OrderTTL)
	} else {
		lg.Warn("redis unavailable, order contexts kept in memory")
		orders = store.NewMemoryOrderStore(cfg.OrderTTL, clk)
	}

	// Payments.
	gateway := payment.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret)
	verifier := payment.NewVerifier(cfg.Gateway.KeySecret, gateway)

	// Notifications.
	mailer := notify.NewResendMailer(cfg.Mail.APIKey, cfg.Mail.From, lg)
	dispatcher := notify.NewDispatcher(mailer, lg, clk)
	dispatcher.Brand = cfg.Brand

	var publisher service.Publisher
	var inline *notify.Inline
	if cfg.Queue.Enabled {
		publisher = queue.NewPublisher(cfg.Queue.URL, lg)
		if *consumer {
			c := queue.NewConsumer(cfg.Queue.URL, lg)
			c.Prefetch = cfg.Queue.Prefetch
			dispatcher.Register(c)
			go func() {
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					lg.Error("notification worker stopped", "err", err)
				}
			}()
		}
	} else {
		inline = &notify.Inline{D: dispatcher}
		publisher = inline
	}

	// Repositories and services.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)

	writer := service.NewBookingWriter(repository.NewBookingTxStore(events, bookings), clk)
	checkoutSvc := service.NewCheckoutService(service.CheckoutDeps{
		Events:    events,
		Gateway:   gateway,
		Verifier:  verifier,
		Orders:    orders,
		Writer:    writer,
		Publisher: publisher,
		Clock:     clk,
		Log:       lg,
		KeyID:     cfg.Gateway.KeyID,
	})
	bookingSvc := service.NewBookingService(bookings, clk)
	bookingSvc.Brand = cfg.Brand
	checkInSvc := service.NewCheckInService(bookings, publisher, clk, lg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "ip", v.RemoteIP}
			if v.Error != nil {
				lg.Warn("request", append(attrs, "err", v.Error)...)
				return nil
			}
			lg.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(corsConfig(cfg.CORSOrigins)))

	admin := handler.NewAdminHandler(bookingSvc, checkInSvc, lg)
	admin.Events = service.NewEventAdmin(events, lg)

	auth := handler.NewAuthHandler(handler.AuthSettings{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost: cfg.BcryptCost,
	}, users, tokens, clk, lg)

	router.Register(e, router.Handlers{
		Health:   handler.Health(db),
		Auth:     auth,
		Events:   handler.NewEventHandler(service.NewEventService(events), lg),
		Checkout: handler.NewCheckoutHandler(checkoutSvc, lg),
		Bookings: handler.NewBookingHandler(bookingSvc, lg),
		Admin:    admin,
		Notify:   handler.NewNotifyHandler(dispatcher, lg),
	}, router.Options{
		JWTSecret:         cfg.JWTSecret,
		Redis:             rdb,
		Cache:             config.LoadCacheConfig(),
		RateLimit:         config.LoadRateLimitConfig(),
		CheckoutRateLimit: config.LoadCheckoutRateLimitConfig(),
		Clock:             clk,
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		lg.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if inline != nil {
		inline.Wait()
	}
	return nil
}

// corsConfig allows every method the router mounts, PUT included for
// event edits.
func corsConfig(origins []string) echomw.CORSConfig {
	return echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}
}
