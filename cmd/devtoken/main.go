package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
	pkgjwt "github.com/johnquangdev/meeting-intelligence/pkg/jwt"
)

// devtoken issues access tokens for local testing and, with -seed, stores settings rows
// for the test users so auto-join and the custom vocabulary can be exercised.
func main() {
	seed := flag.Bool("seed", false, "upsert user_settings rows for the test users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to mint development tokens in production")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	jwtManager := pkgjwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)

	testUsers := []struct {
		Email    string
		AutoJoin bool
		Style    entities.SummaryStyle
		Words    []string
	}{
		{Email: "alice@test.local", AutoJoin: true, Style: entities.SummaryStyleExecutive, Words: []string{"Kubernetes", "Grafana"}},
		{Email: "bob@test.local", Style: entities.SummaryStyleChronological},
		{Email: "charlie@test.local", AutoJoin: true, Style: entities.SummaryStyleSales},
	}

	var settingsOf func(*entities.UserSettings) error
	if *seed {
		db, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.CloseDB(db, logger)
		settingsOf = func(s *entities.UserSettings) error {
			return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error
		}
	}

	for i, u := range testUsers {
		// stable ids so tokens survive reseeding
		userID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(u.Email))

		if settingsOf != nil {
			s := entities.DefaultUserSettings(userID)
			s.AutoJoinEnabled = u.AutoJoin
			s.DefaultSummaryStyle = u.Style
			s.CustomVocabulary = u.Words
			if err := settingsOf(s); err != nil {
				logger.Error("failed to seed settings", zap.String("email", u.Email), zap.Error(err))
				continue
			}
		}

		token, err := jwtManager.GenerateAccessToken(userID, u.Email)
		if err != nil {
			logger.Error("failed to generate access token", zap.String("email", u.Email), zap.Error(err))
			continue
		}

		fmt.Printf("═══════════════════════════════════════════════════════════════\n")
		fmt.Printf("🟢 User %d: %s\n", i+1, u.Email)
		fmt.Printf("User ID:      %s\n", userID)
		fmt.Printf("Auto-join:    %v\n", u.AutoJoin)
		fmt.Printf("Summary:      %s\n", u.Style)
		fmt.Printf("\n📋 Access Token (expires in %v):\n%s\n\n", jwtManager.GetAccessExpiry(), token)
	}

	log.Println("💡 Set header: Authorization: Bearer <access_token>")
}
