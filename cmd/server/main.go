package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/winter-backend/internal/cache"
	"github.com/AnshRaj112/winter-backend/internal/config"
	"github.com/AnshRaj112/winter-backend/internal/database"
	"github.com/AnshRaj112/winter-backend/internal/handlers"
	"github.com/AnshRaj112/winter-backend/internal/middleware"
	"github.com/AnshRaj112/winter-backend/internal/queue"
	"github.com/AnshRaj112/winter-backend/internal/repository"
	"github.com/AnshRaj112/winter-backend/internal/routes"
	"github.com/AnshRaj112/winter-backend/internal/services"
	"github.com/AnshRaj112/winter-backend/internal/token"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis (cache + queue broker share one client)
	log.Printf("Connecting to Redis...")
	redisClient, err := database.NewRedisClient(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to configure Redis:", err)
	}
	defer redisClient.Close()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	mongoClient, db, err := database.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.DisconnectMongo(mongoClient)
	log.Println("✅ Connected to MongoDB")

	// Ensure unique indexes so racing signups resolve at the database
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Leaf components first, then the service that owns them
	authRepo := repository.NewAuthRepository(db)
	userRepo := repository.NewUserRepository(db)
	userCache := cache.NewUserCache(redisClient)

	authQueue := queue.NewQueue(redisClient, "auth")
	userQueue := queue.NewQueue(redisClient, "user")
	emailQueue := queue.NewQueue(redisClient, "email")

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	var avatars services.Avatars
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		avatars, err = services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Avatar uploads will not be available")
			avatars = nil
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Avatar uploads will not be available")
	}

	var mailer services.Mailer
	if cfg.SMTPHost != "" {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender)
		log.Println("✅ SMTP mailer configured")
	} else {
		mailer = services.LogMailer{}
		log.Println("Warning: SMTP not configured. Emails will be logged only")
	}

	authService := services.NewAuthService(
		authRepo, userRepo, userCache,
		authQueue, userQueue, emailQueue,
		issuer, avatars, cfg.ClientURL,
	)

	// Worker pools drain the queues into MongoDB / SMTP
	authQueue.Process(ctx, services.NewAuthWorker(authRepo))
	userQueue.Process(ctx, services.NewUserWorker(userRepo))
	emailQueue.Process(ctx, services.NewEmailWorker(mailer))
	log.Println("✅ Queue workers started (auth, user, email)")

	session := middleware.NewSession(cfg.CookieName, cfg.IsProduction())
	guard := middleware.NewAuthGuard(issuer, session)
	authHandler := handlers.NewAuthHandler(authService, session)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(redisClient))

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, cfg.APIURL, authHandler, guard)

	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Printf("  POST /%s/auth/signup", cfg.APIURL)
	log.Printf("  POST /%s/auth/signin", cfg.APIURL)
	log.Printf("  GET  /%s/auth/signout", cfg.APIURL)
	log.Printf("  POST /%s/auth/forgot-password", cfg.APIURL)
	log.Printf("  POST /%s/auth/reset-password/{token}", cfg.APIURL)
	log.Printf("  GET  /%s/auth/currentuser", cfg.APIURL)

	log.Printf("🚀 Winter backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
