package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "github.com/LixUb/ZoNaTrip/internal/config"
	"github.com/LixUb/ZoNaTrip/internal/domain"
	router "github.com/LixUb/ZoNaTrip/internal/http"
	"github.com/LixUb/ZoNaTrip/internal/logger"
	"github.com/LixUb/ZoNaTrip/internal/mail"
	"github.com/LixUb/ZoNaTrip/internal/metrics"
	"github.com/LixUb/ZoNaTrip/internal/repositories"
	"github.com/LixUb/ZoNaTrip/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(env.LogLevel)
	defer log.Sync()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx := context.Background()

	catalog, err := domain.LoadPriceCatalog(env.CatalogFile)
	if err != nil {
		log.Fatal("Gagal memuat katalog harga", "file", env.CatalogFile, "error", err)
	}
	log.Info("Katalog harga dimuat", "items", catalog.Len(),
		"codes", lo.Map(catalog.Entries(), func(e domain.CatalogEntry, _ int) string { return e.Code }))

	store, closeStore, err := openBookingStore(ctx, env)
	if err != nil {
		log.Fatal("Gagal menyiapkan penyimpanan booking", "backend", env.StoreBackend, "error", err)
	}
	defer closeStore()

	mailer, err := newMailer(ctx, env, log)
	if err != nil {
		log.Fatal("Gagal menyiapkan mailer", "backend", env.MailBackend, "error", err)
	}

	m := metrics.New()
	docs := repositories.NewIdentityDocumentStore(env.UploadsDir, env.UploadPrefix, env.MaxUploadBytes)
	notifier := services.Notifier{Mailer: mailer, Documents: docs, OperatorEmail: env.OperatorEmail}
	bookings := services.NewBookingService(catalog, docs, store, notifier, log, m, services.BookingServiceConfig{
		AsyncNotify:   env.NotifyMode == intconfig.NotifyAsync,
		NotifyTimeout: env.NotifyTimeout,
		StoreTimeout:  env.StoreTimeout,
	})

	r := router.NewRouter(router.Deps{Env: env, Logger: log, Metrics: m, Bookings: bookings})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       env.ReadTimeout,
		WriteTimeout:      env.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server berjalan", "addr", env.AppAddr, "store", env.StoreBackend, "mail", env.MailBackend, "notify", env.NotifyMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Gagal menjalankan server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Mematikan server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown server gagal", "error", err)
	}
	if err := bookings.Wait(shutdownCtx); err != nil {
		log.Error("Notifikasi belum selesai terkirim", "error", err)
	}

	log.Info("Server berhenti dengan aman.")
}

// openBookingStore builds the configured backend and its cleanup.
func openBookingStore(ctx context.Context, env intconfig.Env) (repositories.BookingStore, func(), error) {
	switch env.StoreBackend {
	case intconfig.StoreMySQL:
		db, err := intconfig.ConnectMySQL(ctx, env.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.MySQLBookingRepo{DB: db}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil

	case intconfig.StoreMongo:
		client, err := intconfig.NewMongoClient(ctx, env.MongoURI, env.MongoUser, env.MongoPassword)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewMongoBookingRepo(client.Database(env.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		if err := os.MkdirAll(env.BookingsDir, 0o750); err != nil {
			return nil, nil, err
		}
		return repositories.FileBookingRepo{Dir: env.BookingsDir}, func() {}, nil
	}
}

func newMailer(ctx context.Context, env intconfig.Env, log logger.Logger) (mail.Mailer, error) {
	switch env.MailBackend {
	case intconfig.MailSMTP:
		return mail.SMTPMailer{
			Host:     env.SMTPHost,
			Port:     env.SMTPPort,
			Username: env.SMTPUsername,
			Password: env.SMTPPassword,
			From:     env.MailFrom,
		}, nil
	case intconfig.MailGmail:
		ts := mail.GmailTokenSource(ctx, env.GmailClientID, env.GmailClientSecret, env.GmailRefreshToken)
		gm, err := mail.NewGmailMailer(ctx, ts, env.MailFrom)
		if err != nil {
			return nil, err
		}
		return gm, nil
	default:
		return mail.LogMailer{From: env.MailFrom, Logger: log}, nil
	}
}
