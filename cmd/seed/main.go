package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"nimbus/internal/config"
	"nimbus/internal/domain/services"
	"nimbus/internal/repository/postgres"
	"nimbus/internal/service/files"
	"nimbus/internal/storage"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed accounts or directories")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.CreateSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Ensure the admin account exists
	username := getEnv("ADMIN_USERNAME", "admin")
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		if cfg.Environment == "prod" {
			log.Fatalf("🚫 ADMIN_PASSWORD must be set when seeding prod")
		}
		password = "admin"
	}

	userID, err := ensureUser(ctx, pool, tables, username, password)
	if err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}
	log.Printf("✅ Account ready: %s (ID: %s)", username, userID)

	// Seed starter directories through the service layer so the tree gets the
	// same validation and paths the API produces
	blobStore, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to create upload store: %v", err)
	}
	thumbStore, err := storage.NewDiskStore(cfg.ThumbnailDir)
	if err != nil {
		log.Fatalf("Failed to create thumbnail store: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	fileService := files.NewService(postgres.NewNodeRepository(repoConfig), blobStore, thumbStore, logger)

	for _, name := range []string{"Documents", "Photos", "Videos"} {
		_, err := fileService.CreateDirectory(ctx, userID, &services.CreateDirectoryRequest{Name: name})
		if err != nil {
			// Already-seeded trees hit the duplicate guard; that's fine
			log.Printf("  ⏭️  %s: %v", name, err)
			continue
		}
		log.Printf("  ✅ Created /%s", name)
	}

	log.Println("🎉 Seeding complete!")
}

// ensureUser inserts the account if absent and returns its id either way.
func ensureUser(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	query := `
		INSERT INTO ` + tables.Users + ` (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
	`
	if _, err := pool.Exec(ctx, query, id, username, string(hash), time.Now()); err != nil {
		return "", err
	}

	// The insert is a no-op when the account already exists; read back the id
	var existingID string
	row := pool.QueryRow(ctx, "SELECT id FROM "+tables.Users+" WHERE username = $1", username)
	if err := row.Scan(&existingID); err != nil {
		return "", err
	}
	return existingID, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
