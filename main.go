package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/controllers"
	"github.com/Haoran-716/MallSphere/payment"
	"github.com/Haoran-716/MallSphere/routes"
	"github.com/Haoran-716/MallSphere/utils"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	// Initialize database
	config.InitDB()

	// Create sample admin
	if err := controllers.CreateSampleAdmin(); err != nil {
		utils.LogError("Failed to create sample admin: %v", err)
		log.Fatal("Failed to create sample admin:", err)
	}

	// Payment gateway client. Missing credentials keep the server usable;
	// payment endpoints report the misconfiguration at call time.
	payClient, err := payment.NewClient(payment.Config{
		AppID:      cfg.AlipayAppID,
		PrivateKey: cfg.AlipayPrivateKey,
		PublicKey:  cfg.AlipayPublicKey,
		NotifyURL:  cfg.AlipayNotifyURL,
		Production: cfg.AlipayProduction,
		Timeout:    cfg.AlipayTimeout,
	})
	if err != nil {
		utils.LogError("Failed to initialize payment client: %v", err)
		log.Fatal("Failed to initialize payment client:", err)
	}
	if !payClient.Configured() {
		utils.LogInfo("Alipay credentials not configured, payment endpoints disabled")
	}

	// Notification verification: manual RSA check first, SDK check as the
	// fallback. Either passing accepts the callback.
	var strategies []payment.Strategy
	if cfg.AlipayPublicKey != "" {
		rsaStrategy, err := payment.NewRSAStrategy(cfg.AlipayPublicKey)
		if err != nil {
			utils.LogError("Failed to parse Alipay public key: %v", err)
			log.Fatal("Failed to parse Alipay public key:", err)
		}
		strategies = append(strategies, rsaStrategy)
	}
	if payClient.Configured() {
		strategies = append(strategies, payment.NewSDKStrategy(payClient))
	}
	verifier := payment.NewVerifier(cfg.AlipayAppID, strategies...)

	engine := payment.NewEngine(config.DB)
	if mailer := utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom); mailer != nil {
		engine.SetMailer(mailer)
	}

	controllers.InitPayment(payClient, verifier, engine)

	// Hourly safety net behind the webhook: re-query recent gateway orders
	// still marked pending.
	poller := payment.NewPoller(config.DB, payClient, engine, time.Hour)
	if payClient.Configured() {
		poller.Start()
	}

	router := routes.SetupRouter()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		utils.LogInfo("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.LogError("Error starting server: %v", err)
			log.Fatal("Error starting server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutdown signal received")

	poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError("Server forced to shutdown: %v", err)
	}
	utils.LogInfo("Server exited")
}
