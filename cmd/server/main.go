package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"accounts-service/internal/application/services"
	"accounts-service/internal/config"
	deliveryhttp "accounts-service/internal/delivery/http"
	"accounts-service/internal/infrastructure"
	"accounts-service/internal/infrastructure/db/postgres"
)

func main() {
	cfg := config.Load()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	if err := postgres.AutoMigrate(db); err != nil {
		log.Fatal("failed to run migrations: ", err)
	}
	store := postgres.NewStore(db)

	cache, err := infrastructure.NewRedisService(infrastructure.RedisConfig{
		URL:      cfg.RedisURL,
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatal("failed to connect to redis: ", err)
	}
	defer cache.Close()

	jwtService, err := infrastructure.NewJWTService(infrastructure.JWTConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		log.Fatal("failed to configure token issuer: ", err)
	}

	mailer := infrastructure.NewSendGridMailer(infrastructure.MailerConfig{
		APIKey:          cfg.SendGridAPIKey,
		SenderName:      cfg.EmailSenderName,
		SenderEmail:     cfg.EmailSenderAddress,
		ConfirmationURL: cfg.EmailConfirmationURL,
	})

	dispatcher := infrastructure.NewDispatcher(cfg.DispatchQueueSize, cfg.DispatchTimeout)
	defer dispatcher.Close()

	verifier := services.NewVerificationService(store, cache, mailer, dispatcher, cfg.VerificationCodeTTL)
	accounts, err := services.NewAccountService(store, jwtService, verifier, infrastructure.NewGoogleService(cfg.GoogleUserInfoURL))
	if err != nil {
		log.Fatal("failed to build account service: ", err)
	}

	handler := deliveryhttp.NewHandler(accounts, deliveryhttp.CookieConfig{
		Name:       cfg.RefreshCookieName,
		Domain:     cfg.RefreshCookieDomain,
		SessionAge: cfg.SessionCookieAge,
	})
	auth := deliveryhttp.NewAuthMiddleware(jwtService)
	limiter := infrastructure.NewRateLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)

	e := deliveryhttp.NewServer(handler, auth, limiter)

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil {
			log.Println("server stopped: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Println("forced shutdown: ", err)
	}
}
