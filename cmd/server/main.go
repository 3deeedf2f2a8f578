package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"nimbus/internal/config"
	"nimbus/internal/handler"
	"nimbus/internal/httputil"
	"nimbus/internal/middleware"
	"nimbus/internal/repository/postgres"
	"nimbus/internal/service/auth"
	"nimbus/internal/service/files"
	"nimbus/internal/storage"
	"nimbus/internal/thumbnail"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, config.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create blob stores
	blobStore, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to create upload store: %v", err)
	}
	thumbStore, err := storage.NewDiskStore(cfg.ThumbnailDir)
	if err != nil {
		log.Fatalf("Failed to create thumbnail store: %v", err)
	}

	// Thumbnail generator (image via imaging, video via ffmpeg)
	generator, err := thumbnail.NewGenerator()
	if err != nil {
		log.Fatalf("Failed to create thumbnail generator: %v", err)
	}

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)

	// Create services
	authService := auth.NewService(userRepo, cfg.JWTSecret, logger)
	fileService := files.NewService(nodeRepo, blobStore, thumbStore, logger)
	uploadService := files.NewUploadService(nodeRepo, blobStore, thumbStore, generator, cfg.MaxUploadBytes, logger)

	// Create handlers
	secureCookies := cfg.Environment == "prod"
	authHandler := handler.NewAuthHandler(authService, secureCookies, logger)
	fileHandler := handler.NewFileHandler(fileService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)
	contentHandler := handler.NewContentHandler(fileService, blobStore, thumbStore, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/profile", authHandler.Profile)
	mux.HandleFunc("GET /api/get-files", fileHandler.GetFiles)
	mux.HandleFunc("POST /api/create-directory", fileHandler.CreateDirectory)
	mux.HandleFunc("PUT /api/rename-file", fileHandler.RenameFile)
	mux.HandleFunc("DELETE /api/delete-file", fileHandler.DeleteFile)
	mux.HandleFunc("POST /api/upload-file", uploadHandler.UploadFile)
	mux.HandleFunc("GET /api/thumbnail/{id}", contentHandler.Thumbnail)
	mux.HandleFunc("GET /api/preview/{id}", contentHandler.Preview)
	mux.HandleFunc("GET /api/download/{id}", contentHandler.Download)

	// Build middleware chain. Sign-in is outside the auth gate; everything
	// else requires a valid session cookie.
	var apiHandler http.Handler = mux
	apiHandler = middleware.Auth(authService, logger)(apiHandler)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.HandleFunc("POST /api/sign-in", authHandler.SignIn)
	root.Handle("/api/", apiHandler)

	var httpHandler http.Handler = root
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server. Read and write timeouts stay disabled: uploads and
	// downloads of large files are long-lived by nature.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
