package config

import (
	"os"
	"strconv"
	"time"

	"github.com/verisite/visit-service/internal/utils"
)

const AppName = "visit-service"

const (
	defaultChallengeTTL      = 120 * time.Second
	defaultMaxAccuracyMeters = 25.0
	defaultMaxPhotoBytes     = int64(10 << 20) // 10 MiB
)

type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	DBUrl   string

	// Challenge TTL also serves as the practical request deadline: a
	// signature built against an expired challenge is always rejected.
	ChallengeTTL      time.Duration
	MaxAccuracyMeters float64
	MaxPhotoBytes     int64
}

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DATABASE_URL env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "*"
	}

	cfg := &Config{
		AppName:           AppName,
		AppPort:           appPort,
		AppUrl:            appURL,
		DBUrl:             dbURL,
		ChallengeTTL:      defaultChallengeTTL,
		MaxAccuracyMeters: defaultMaxAccuracyMeters,
		MaxPhotoBytes:     defaultMaxPhotoBytes,
	}

	if v := os.Getenv("CHALLENGE_TTL_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			utils.Logger.Fatalf("Invalid CHALLENGE_TTL_SECONDS %q", v)
		}
		cfg.ChallengeTTL = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("MAX_ACCURACY_METERS"); v != "" {
		meters, err := strconv.ParseFloat(v, 64)
		if err != nil || meters <= 0 {
			utils.Logger.Fatalf("Invalid MAX_ACCURACY_METERS %q", v)
		}
		cfg.MaxAccuracyMeters = meters
	}
	if v := os.Getenv("MAX_PHOTO_BYTES"); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil || size <= 0 {
			utils.Logger.Fatalf("Invalid MAX_PHOTO_BYTES %q", v)
		}
		cfg.MaxPhotoBytes = size
	}

	utils.Logger.Infof("Loaded config for %s (challenge TTL %s, max accuracy %.0fm)",
		AppName, cfg.ChallengeTTL, cfg.MaxAccuracyMeters)
	return cfg
}
