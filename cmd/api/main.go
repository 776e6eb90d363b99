// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
    "bufio"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/go-chi/chi/v5/middleware"
    "github.com/go-redis/redis/v8"
    "github.com/gorilla/mux"
    "github.com/jmoiron/sqlx"
    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    // Internal packages
    "github.com/imadgeboyega/matchup-backend/internal/auth"
    "github.com/imadgeboyega/matchup-backend/internal/common/database"
    "github.com/imadgeboyega/matchup-backend/internal/config"
    "github.com/imadgeboyega/matchup-backend/internal/features"
    "github.com/imadgeboyega/matchup-backend/internal/images"
    "github.com/imadgeboyega/matchup-backend/internal/jobs"
    "github.com/imadgeboyega/matchup-backend/internal/matching"
    "github.com/imadgeboyega/matchup-backend/internal/messages"
    "github.com/imadgeboyega/matchup-backend/internal/metrics"
    "github.com/imadgeboyega/matchup-backend/internal/mpesa"
    "github.com/imadgeboyega/matchup-backend/internal/notification"
    "github.com/imadgeboyega/matchup-backend/internal/plans"
    "github.com/imadgeboyega/matchup-backend/internal/profile"
    "github.com/imadgeboyega/matchup-backend/internal/realtime"
    "github.com/imadgeboyega/matchup-backend/internal/subscriptions"
    "github.com/imadgeboyega/matchup-backend/internal/superlikes"
)

var startTime = time.Now()

func main() {
    log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

    log.Println("========================================")
    log.Println("🚀 Starting MatchUp Dating API")
    log.Println("========================================")

    // 1. Load environment variables
    log.Println("📁 Step 1: Loading .env file...")
    if err := godotenv.Load(); err != nil {
        log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
    } else {
        log.Println("✅ .env file loaded successfully")
    }

    // 2. Load and validate configuration
    log.Println("\n📋 Step 2: Loading configuration...")
    cfg := config.Load()
    if err := cfg.Validate(); err != nil {
        log.Fatal("❌ Configuration validation failed: ", err)
    }
    log.Println("✅ Configuration is valid")

    // 3. Connect to PostgreSQL
    log.Println("\n🗄️  Step 3: Connecting to PostgreSQL...")
    db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
    if err != nil {
        log.Fatal("❌ Failed to connect to PostgreSQL: ", err)
    }
    defer db.Close()
    log.Println("✅ Connected to PostgreSQL successfully")

    // 4. Connect to Redis (optional)
    log.Println("\n📮 Step 4: Connecting to Redis...")
    redisClient := connectRedis(cfg.RedisURL)
    if redisClient != nil {
        defer redisClient.Close()
    }

    // 5. Run database migrations
    log.Println("\n🔨 Step 5: Running database migrations...")
    migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
    if err := database.Migrate(migrateCtx, db); err != nil {
        cancelMigrate()
        log.Fatal("❌ Failed to run migrations: ", err)
    }
    cancelMigrate()
    log.Println("✅ Database migrations completed")

    // 6. Notifications
    log.Println("\n🔔 Step 6: Initializing notification providers...")
    mailer := newEmailService(cfg)
    sms := newSMSService(cfg)

    // 7. Auth
    log.Println("\n🔐 Step 7: Initializing authentication system...")
    var google auth.GoogleVerifier
    if cfg.GoogleClientID != "" {
        google = auth.NewGoogleVerifier(cfg.GoogleClientID)
        log.Println("   ✅ Google sign-in enabled")
    }
    authService := auth.NewService(auth.NewPostgresRepository(db), redisClient, mailer, google, &auth.Config{
        JWTSecret:           cfg.JWTSecret,
        Issuer:              "matchup-api",
        AccessTokenExpiry:   cfg.AccessTokenExpiry,
        RefreshTokenExpiry:  cfg.RefreshTokenExpiry,
        PasswordResetExpiry: cfg.PasswordResetExpiry,
        BCryptCost:          cfg.BCryptCost,
        MaxLoginAttempts:    cfg.LoginAttemptsMax,
        LockDuration:        cfg.LoginLockDuration,
        ResetURLBase:        cfg.BaseURL + "/reset-password",
    })
    authMiddleware := auth.NewMiddleware(authService)
    log.Println("✅ Authentication system initialized")

    // 8. Profiles and photos
    log.Println("\n👤 Step 8: Initializing profiles and photos...")
    profileService := profile.NewService(profile.NewPostgresRepository(db))

    var storage images.Storage
    if cfg.UseS3 {
        s3Storage, err := images.NewS3Storage(cfg.S3BucketName, cfg.AWSRegion)
        if err != nil {
            log.Printf("⚠️  Failed to init S3, using local storage: %v", err)
        } else {
            storage = s3Storage
            log.Println("   ✅ Using S3 for photo uploads")
        }
    }
    if storage == nil {
        storage = images.NewLocalStorage(cfg.LocalUploadDir, cfg.BaseURL+"/uploads")
        log.Println("   ✅ Using local storage for photo uploads")
    }
    imageService := images.NewService(images.NewPostgresRepository(db), storage, cfg.MaxUploadSize)
    log.Println("✅ Profiles initialized")

    // 9. Plans, subscriptions and feature access
    log.Println("\n💳 Step 9: Initializing plans and subscriptions...")
    planService := plans.NewService(plans.NewPostgresRepository(db))
    subscriptionService := subscriptions.NewService(subscriptions.NewPostgresRepository(db))
    featureService := features.NewService(features.NewPostgresRepository(db))
    log.Println("✅ Plans and subscriptions initialized")

    // 10. Realtime hub
    log.Println("\n💬 Step 10: Starting realtime hub...")
    hub := realtime.NewHub()
    go hub.Run()
    log.Println("✅ WebSocket hub started")

    matchingService := matching.NewService(matching.NewPostgresRepository(db), profileService)
    messageService := messages.NewService(messages.NewPostgresRepository(db), hub)

    // 11. Payments
    log.Println("\n📲 Step 11: Initializing M-Pesa payments...")
    gateway := mpesa.NewPayHeroClient(cfg.PayHeroBaseURL, cfg.PayHeroAuthToken, cfg.PayHeroChannelID,
        cfg.MpesaCallbackURL, cfg.GatewayTimeout)
    mpesaService := mpesa.NewService(mpesa.NewPostgresRepository(db), gateway, planService, profileService)
    mpesaService.RegisterCompleter(mpesa.PurposeSubscription,
        mpesa.NewSubscriptionCompleter(planService, subscriptionService, featureService, sms))
    log.Printf("   ✅ PayHero callbacks expected at %s", cfg.MpesaCallbackURL)

    var notifier superlikes.Notifier
    if redisClient != nil {
        notifier = superlikes.NewRedisNotifier(redisClient)
        log.Println("   ✅ Top-up updates fan out over Redis")
    } else {
        notifier = superlikes.NewLocalNotifier()
        log.Println("   ⚠️  Top-up updates are local to this instance")
    }
    superlikeService := superlikes.NewService(superlikes.NewPostgresStore(db), mpesaService, profileService, hub,
        notifier, sms, superlikes.Config{
            UnitPrice:      cfg.SuperlikeUnitPrice,
            PaymentTimeout: cfg.PaymentTimeout,
            PollInterval:   cfg.PaymentPollInterval,
            WaitMax:        cfg.PaymentWaitMax,
        })
    mpesaService.RegisterCompleter(mpesa.PurposeSuperlikes, superlikeService)
    log.Println("✅ Payments initialized")

    // 12. Background jobs
    log.Println("\n⏰ Step 12: Starting background jobs...")
    jobsCtx, stopJobs := context.WithCancel(context.Background())
    scheduler := jobs.NewScheduler()
    scheduler.Every("expire-topups", time.Minute, superlikeService.ExpireTopUps)
    scheduler.Every("purge-password-resets", time.Hour, authService.CleanupExpiredResets)
    scheduler.Daily("deactivate-features", 2, 0, featureService.DeactivateExpired)
    scheduler.Start(jobsCtx)

    // 13. Setup routes
    log.Println("\n🛣️  Step 13: Setting up routes...")
    router := mux.NewRouter()

    if !cfg.UseS3 {
        router.PathPrefix("/uploads/").Handler(
            http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.LocalUploadDir))))
        log.Println("   ✅ Static file server configured")
    }

    router.HandleFunc("/health", healthCheck(db)).Methods("GET")
    if cfg.EnableMetrics {
        router.Handle("/metrics", promhttp.Handler()).Methods("GET")
        log.Println("   ✅ Prometheus metrics at /metrics")
    }

    auth.RegisterRoutes(router, auth.NewHandler(authService), authMiddleware)
    profile.RegisterRoutes(router, profile.NewHandler(profileService), authMiddleware)
    images.RegisterRoutes(router, images.NewHandler(imageService, cfg.MaxUploadSize), authMiddleware)
    plans.RegisterRoutes(router, plans.NewHandler(planService), authMiddleware)
    subscriptions.RegisterRoutes(router, subscriptions.NewHandler(subscriptionService), authMiddleware)
    features.RegisterRoutes(router, features.NewHandler(featureService), authMiddleware)
    matching.RegisterRoutes(router, matching.NewHandler(matchingService), authMiddleware)
    messages.RegisterRoutes(router, messages.NewHandler(messageService), authMiddleware)
    mpesa.RegisterRoutes(router, mpesa.NewHandler(mpesaService, cfg.MpesaCallbackToken), authMiddleware)
    superlikes.RegisterRoutes(router, superlikes.NewHandler(superlikeService), authMiddleware)
    realtime.RegisterRoutes(router, realtime.NewHandler(hub), authMiddleware)
    log.Println("   ✅ API routes registered")

    router.Use(middleware.RequestID)
    router.Use(middleware.RealIP)
    router.Use(middleware.Recoverer)
    router.Use(loggingMiddleware)
    router.Use(corsMiddleware)

    // 14. Create and start HTTP server
    srv := &http.Server{
        Addr:    fmt.Sprintf(":%s", cfg.Port),
        Handler: router,
        // Status waits may hold a request for PaymentWaitMax
        ReadTimeout:  15 * time.Second,
        WriteTimeout: cfg.PaymentWaitMax + 15*time.Second,
        IdleTimeout:  60 * time.Second,
    }

    go func() {
        log.Println("\n========================================")
        log.Printf("🚀 Server starting on http://localhost%s", srv.Addr)
        log.Printf("🌍 Environment: %s", cfg.Environment)
        log.Println("========================================")

        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal("❌ Failed to start server: ", err)
        }
    }()

    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    log.Println("\n⚠️  Shutdown signal received...")

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    if err := srv.Shutdown(ctx); err != nil {
        log.Printf("❌ Server forced to shutdown: %v", err)
    }

    log.Println("   - Stopping background jobs...")
    stopJobs()
    scheduler.Wait()

    log.Println("   - Shutting down realtime hub...")
    hub.Shutdown()

    log.Println("✅ Server exited gracefully")
}

func connectRedis(url string) *redis.Client {
    if url == "" {
        log.Println("⚠️  Redis URL not configured, skipping Redis connection")
        return nil
    }
    client, err := database.NewRedisClientFromURL(url)
    if err != nil {
        log.Printf("⚠️  Redis unavailable (%v), continuing without Redis", err)
        return nil
    }
    log.Println("✅ Connected to Redis successfully")
    return client
}

func newEmailService(cfg *config.Config) notification.EmailService {
    switch cfg.EmailProvider {
    case "sendgrid":
        svc, err := notification.NewSendGridEmailService(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
        if err == nil {
            log.Println("   ✅ Using SendGrid for emails")
            return svc
        }
        log.Printf("   ⚠️  SendGrid unavailable: %v", err)
    case "smtp":
        svc, err := notification.NewSMTPEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
            cfg.EmailFrom, cfg.EmailFromName)
        if err == nil {
            log.Println("   ✅ Using SMTP for emails")
            return svc
        }
        log.Printf("   ⚠️  SMTP unavailable: %v", err)
    }
    log.Println("   ⚠️  Using mock email provider (development mode)")
    return notification.NewMockEmailService()
}

func newSMSService(cfg *config.Config) notification.SMSService {
    if cfg.EnableSMSNotifications && cfg.SMSProvider == "twilio" {
        svc, err := notification.NewTwilioSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
        if err == nil {
            log.Println("   ✅ Using Twilio for SMS receipts")
            return svc
        }
        log.Printf("   ⚠️  Twilio unavailable: %v", err)
    }
    log.Println("   ⚠️  Using mock SMS provider (development mode)")
    return notification.NewMockSMSService()
}

// healthCheck returns server health status
func healthCheck(db *sqlx.DB) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        status, code := "healthy", http.StatusOK
        ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            log.Printf("Health check database ping failed: %v", err)
            status, code = "degraded", http.StatusServiceUnavailable
        }

        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(code)
        json.NewEncoder(w).Encode(map[string]interface{}{
            "status":    status,
            "timestamp": time.Now().Format(time.RFC3339),
            "uptime":    time.Since(startTime).String(),
        })
    }
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

        next.ServeHTTP(wrapped, r)

        metrics.HTTPRequest(r.Method, wrapped.statusCode)
        log.Printf("← %s %s [%d] %v (%s)", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start),
            middleware.GetReqID(r.Context()))
    })
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
    http.ResponseWriter
    statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
    rw.statusCode = code
    rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the wrapper
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
    h, ok := rw.ResponseWriter.(http.Hijacker)
    if !ok {
        return nil, nil, fmt.Errorf("response writer does not support hijacking")
    }
    rw.statusCode = http.StatusSwitchingProtocols
    return h.Hijack()
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusOK)
            return
        }

        next.ServeHTTP(w, r)
    })
}
