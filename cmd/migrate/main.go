package main

import (
	"flag"
	"log"
	"os"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-intelligence/migrations"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
)

// migrate applies, rolls back or lists the embedded schema migrations.
//
//	go run ./cmd/migrate -direction up
//	go run ./cmd/migrate -direction down -steps 1
//	go run ./cmd/migrate -direction status
func main() {
	direction := flag.String("direction", "up", "up, down or status")
	steps := flag.Int("steps", 0, "maximum migrations to apply, 0 for all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get database connection", zap.Error(err))
	}

	source := &migrate.EmbedFileSystemMigrationSource{FileSystem: migrations.FS, Root: "."}

	switch *direction {
	case "status":
		records, err := migrate.GetMigrationRecords(sqlDB, "postgres")
		if err != nil {
			logger.Fatal("failed to read migration records", zap.Error(err))
		}
		for _, r := range records {
			logger.Info("applied", zap.String("id", r.Id), zap.Time("at", r.AppliedAt))
		}
		planned, _, err := migrate.PlanMigration(sqlDB, "postgres", source, migrate.Up, 0)
		if err != nil {
			logger.Fatal("failed to plan migrations", zap.Error(err))
		}
		for _, p := range planned {
			logger.Info("pending", zap.String("id", p.Id))
		}
	case "up", "down":
		dir := migrate.Up
		if *direction == "down" {
			dir = migrate.Down
		}
		n, err := migrate.ExecMax(sqlDB, "postgres", source, dir, *steps)
		if err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		logger.Info("✅ Migrations applied", zap.String("direction", *direction), zap.Int("count", n))
	default:
		logger.Error("unknown direction", zap.String("direction", *direction))
		os.Exit(2)
	}
}
