package config

import (
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GATEWAY_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_REWARD", "")
	t.Setenv("AD_BONUS_REWARD", "")

	cfg := Load()
	if cfg.SessionReward != 2.0 {
		t.Fatalf("session reward = %v, want 2.0", cfg.SessionReward)
	}
	if cfg.AdBonusReward != 0.5 {
		t.Fatalf("ad bonus reward = %v, want 0.5", cfg.AdBonusReward)
	}
	if cfg.AppPort != "8080" {
		t.Fatalf("port = %s, want 8080", cfg.AppPort)
	}
}

func TestLoadAllowsZeroRewards(t *testing.T) {
	setRequired(t)
	// zero is how an operator disables a reward
	t.Setenv("AD_BONUS_REWARD", "0")
	t.Setenv("REFERRER_BONUS", "0")

	cfg := Load()
	if cfg.AdBonusReward != 0 {
		t.Fatalf("ad bonus reward = %v, want 0", cfg.AdBonusReward)
	}
	if cfg.ReferrerBonus != 0 {
		t.Fatalf("referrer bonus = %v, want 0", cfg.ReferrerBonus)
	}
}

func TestLoadRejectsNegativeAndJunk(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_REWARD", "-1")
	t.Setenv("TOKEN_PRICE_USD", "not-a-number")

	cfg := Load()
	if cfg.SessionReward != 2.0 {
		t.Fatalf("session reward = %v, want default 2.0", cfg.SessionReward)
	}
	if cfg.TokenPriceUSD != 0.1 {
		t.Fatalf("token price = %v, want default 0.1", cfg.TokenPriceUSD)
	}
}

func TestStreakWindow(t *testing.T) {
	setRequired(t)
	cfg := Load()
	if cfg.StreakWindow() != cfg.SessionDuration+cfg.StreakGrace {
		t.Fatalf("streak window = %v, want duration+grace", cfg.StreakWindow())
	}
}
