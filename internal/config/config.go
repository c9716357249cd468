package config

import (
	"os"
	"strconv"
	"time"

	"ekehi_backend/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string
	GatewayKey  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Economy parameters. Defaults follow the shipped client values.
	SessionDuration time.Duration // full mining cycle
	SessionReward   float64       // EKH credited per claimed session
	StreakGrace     time.Duration // slack after the cycle before the streak resets
	AdBonusReward   float64
	AdBonusCooldown time.Duration

	ReferredBonus float64 // claimant side
	ReferrerBonus float64

	TokenPriceUSD  float64
	MinPurchaseUSD float64

	AccrualSweepSpec string // cron spec for the auto-mining sweep
}

// Load reads configuration from env (with .env support) and fails fast on
// anything the service cannot run without.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	gatewayKey := os.Getenv("GATEWAY_KEY")
	if gatewayKey == "" {
		logger.Fatal("GATEWAY_KEY is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	sweepSpec := os.Getenv("ACCRUAL_SWEEP_SPEC")
	if sweepSpec == "" {
		sweepSpec = "@every 1m"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,
		GatewayKey:  gatewayKey,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		SessionDuration: envDuration("SESSION_DURATION_SECONDS", 86400*time.Second),
		SessionReward:   envFloat("SESSION_REWARD", 2.0),
		StreakGrace:     envDuration("STREAK_GRACE_SECONDS", 6*time.Hour),
		AdBonusReward:   envFloat("AD_BONUS_REWARD", 0.5),
		AdBonusCooldown: envDuration("AD_BONUS_COOLDOWN_SECONDS", 300*time.Second),

		ReferredBonus: envFloat("REFERRED_BONUS", 2.0),
		ReferrerBonus: envFloat("REFERRER_BONUS", 1.0),

		TokenPriceUSD:  envFloat("TOKEN_PRICE_USD", 0.1),
		MinPurchaseUSD: envFloat("MIN_PURCHASE_USD", 10),

		AccrualSweepSpec: sweepSpec,
	}
}

// StreakWindow is the longest gap between consecutive claims that keeps the
// streak alive.
func (c *Config) StreakWindow() time.Duration {
	return c.SessionDuration + c.StreakGrace
}

// Zero is a valid setting (it disables the reward in question); only
// negatives and junk fall back to the default.
func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
