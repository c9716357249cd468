package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"ekehi_backend/internal/repository"
	"ekehi_backend/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests run only against a real database (DATABASE_URL).

func connectDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	entries, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(migDir, name))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
}

func createUser(t *testing.T, db *pgxpool.Pool) string {
	t.Helper()
	id := "u-" + uuid.NewString()
	repo := repository.NewUserRepository(db)
	_, _, err := repo.GetOrCreate(context.Background(), id, "tester", repository.GenerateReferralCode())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func userBalance(t *testing.T, db *pgxpool.Pool, userID string) float64 {
	t.Helper()
	var coins float64
	err := db.QueryRow(context.Background(),
		`SELECT total_coins FROM users WHERE id = $1`, userID).Scan(&coins)
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return coins
}

func newMiningService(db *pgxpool.Pool) *service.MiningService {
	return service.NewMiningService(db, 24*time.Hour, 2.0, 30*time.Hour, 0.5, 5*time.Minute)
}

func TestMiningSessionLifecycle(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	svc := newMiningService(db)

	sess, err := svc.StartSession(ctx, userID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sess.DurationSeconds != 86400 {
		t.Fatalf("duration = %d, want 86400", sess.DurationSeconds)
	}

	// a second start while active must be rejected
	if _, err := svc.StartSession(ctx, userID); !errors.Is(err, service.ErrSessionActive) {
		t.Fatalf("second start err = %v, want ErrSessionActive", err)
	}

	// claiming before the countdown ends must be rejected
	if _, err := svc.ClaimSession(ctx, userID); !errors.Is(err, service.ErrNotClaimable) {
		t.Fatalf("early claim err = %v, want ErrNotClaimable", err)
	}

	// fast-forward: backdate the session past its duration
	if _, err := db.Exec(ctx,
		`UPDATE mining_sessions SET started_at = NOW() - INTERVAL '25 hours' WHERE id = $1`,
		sess.ID); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	before := userBalance(t, db, userID)
	user, err := svc.ClaimSession(ctx, userID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := user.TotalCoins - before; got != 2.0 {
		t.Fatalf("claim credited %v, want 2.0", got)
	}
	if user.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", user.CurrentStreak)
	}

	// the same session can never be claimed twice
	if _, err := svc.ClaimSession(ctx, userID); !errors.Is(err, service.ErrNotClaimable) {
		t.Fatalf("double claim err = %v, want ErrNotClaimable", err)
	}
	if got := userBalance(t, db, userID); got != before+2.0 {
		t.Fatalf("balance after double claim = %v, want %v", got, before+2.0)
	}

	// a new session can start after the claim
	if _, err := svc.StartSession(ctx, userID); err != nil {
		t.Fatalf("restart after claim: %v", err)
	}
}

func TestStreakContinuesInsideWindow(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	svc := newMiningService(db)

	claimBackdated := func() {
		t.Helper()
		sess, err := svc.StartSession(ctx, userID)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		if _, err := db.Exec(ctx,
			`UPDATE mining_sessions SET started_at = NOW() - INTERVAL '25 hours' WHERE id = $1`,
			sess.ID); err != nil {
			t.Fatalf("backdate: %v", err)
		}
		if _, err := svc.ClaimSession(ctx, userID); err != nil {
			t.Fatalf("claim: %v", err)
		}
	}

	claimBackdated()
	// previous claim just happened, well inside the 30h window
	claimBackdated()

	var streak, longest int
	if err := db.QueryRow(ctx,
		`SELECT current_streak, longest_streak FROM users WHERE id = $1`, userID,
	).Scan(&streak, &longest); err != nil {
		t.Fatalf("read streak: %v", err)
	}
	if streak != 2 || longest != 2 {
		t.Fatalf("streak = %d/%d, want 2/2", streak, longest)
	}

	// push the last claim outside the window; next claim resets to 1
	if _, err := db.Exec(ctx,
		`UPDATE users SET last_claim_at = NOW() - INTERVAL '40 hours' WHERE id = $1`,
		userID); err != nil {
		t.Fatalf("backdate last claim: %v", err)
	}
	claimBackdated()

	if err := db.QueryRow(ctx,
		`SELECT current_streak, longest_streak FROM users WHERE id = $1`, userID,
	).Scan(&streak, &longest); err != nil {
		t.Fatalf("read streak: %v", err)
	}
	if streak != 1 || longest != 2 {
		t.Fatalf("streak after lapse = %d/%d, want 1/2", streak, longest)
	}
}

func TestAdBonusCooldown(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	svc := newMiningService(db)

	before := userBalance(t, db, userID)
	user, err := svc.ClaimAdBonus(ctx, userID)
	if err != nil {
		t.Fatalf("first ad bonus: %v", err)
	}
	if got := user.TotalCoins - before; got != 0.5 {
		t.Fatalf("ad bonus credited %v, want 0.5", got)
	}

	// immediate retry hits the cooldown
	if _, err := svc.ClaimAdBonus(ctx, userID); !errors.Is(err, service.ErrCooldownActive) {
		t.Fatalf("retry err = %v, want ErrCooldownActive", err)
	}

	// expire the cooldown
	if _, err := db.Exec(ctx,
		`UPDATE users SET last_ad_bonus_at = NOW() - INTERVAL '6 minutes' WHERE id = $1`,
		userID); err != nil {
		t.Fatalf("backdate cooldown: %v", err)
	}
	if _, err := svc.ClaimAdBonus(ctx, userID); err != nil {
		t.Fatalf("bonus after cooldown: %v", err)
	}
	if got := userBalance(t, db, userID); got != before+1.0 {
		t.Fatalf("balance = %v, want %v", got, before+1.0)
	}
}

func TestReferralClaimOnce(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	referrerID := createUser(t, db)
	claimantID := createUser(t, db)
	svc := service.NewReferralService(db, 2.0, 1.0)

	var code string
	if err := db.QueryRow(ctx,
		`SELECT referral_code FROM users WHERE id = $1`, referrerID).Scan(&code); err != nil {
		t.Fatalf("read code: %v", err)
	}

	if _, err := svc.Claim(ctx, claimantID, "NOSUCH"); !errors.Is(err, service.ErrInvalidCode) {
		t.Fatalf("bad code err = %v, want ErrInvalidCode", err)
	}
	if _, err := svc.Claim(ctx, referrerID, code); !errors.Is(err, service.ErrSelfReferral) {
		t.Fatalf("self claim err = %v, want ErrSelfReferral", err)
	}

	refBefore := userBalance(t, db, referrerID)
	result, err := svc.Claim(ctx, claimantID, code)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.ReferrerID != referrerID {
		t.Fatalf("referrer = %s, want %s", result.ReferrerID, referrerID)
	}
	if result.Claimant.TotalCoins != 2.0 {
		t.Fatalf("claimant bonus = %v, want 2.0", result.Claimant.TotalCoins)
	}
	if got := userBalance(t, db, referrerID) - refBefore; got != 1.0 {
		t.Fatalf("referrer bonus = %v, want 1.0", got)
	}

	// a user can only ever be referred once, by anyone
	if _, err := svc.Claim(ctx, claimantID, code); !errors.Is(err, service.ErrAlreadyReferred) {
		t.Fatalf("second claim err = %v, want ErrAlreadyReferred", err)
	}
	otherID := createUser(t, db)
	var otherCode string
	if err := db.QueryRow(ctx,
		`SELECT referral_code FROM users WHERE id = $1`, otherID).Scan(&otherCode); err != nil {
		t.Fatalf("read code: %v", err)
	}
	if _, err := svc.Claim(ctx, claimantID, otherCode); !errors.Is(err, service.ErrAlreadyReferred) {
		t.Fatalf("claim other code err = %v, want ErrAlreadyReferred", err)
	}

	stats, referrals, err := svc.Stats(ctx, referrerID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalReferrals != 1 || len(referrals) != 1 {
		t.Fatalf("stats = %d referrals, list %d, want 1/1", stats.TotalReferrals, len(referrals))
	}
	if stats.TotalEarned != 1.0 {
		t.Fatalf("earnings = %v, want 1.0", stats.TotalEarned)
	}
}

func TestReferralMutualClaims(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userA := createUser(t, db)
	userB := createUser(t, db)
	svc := service.NewReferralService(db, 2.0, 1.0)

	codeOf := func(id string) string {
		t.Helper()
		var code string
		if err := db.QueryRow(ctx,
			`SELECT referral_code FROM users WHERE id = $1`, id).Scan(&code); err != nil {
			t.Fatalf("read code: %v", err)
		}
		return code
	}
	codeA, codeB := codeOf(userA), codeOf(userB)

	// A claims B's code while B claims A's; both must commit without
	// deadlocking on the two user rows
	errs := make(chan error, 2)
	go func() {
		_, err := svc.Claim(ctx, userA, codeB)
		errs <- err
	}()
	go func() {
		_, err := svc.Claim(ctx, userB, codeA)
		errs <- err
	}()
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("mutual claim: %v", err)
		}
	}

	// each side got both the claimant and the referrer bonus
	if got := userBalance(t, db, userA); got != 3.0 {
		t.Fatalf("balance A = %v, want 3.0", got)
	}
	if got := userBalance(t, db, userB); got != 3.0 {
		t.Fatalf("balance B = %v, want 3.0", got)
	}
}

func TestPresaleFinalizeOnce(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	svc := service.NewPresaleService(db, 0.1, 10)

	if _, err := svc.Submit(ctx, userID, 5, "card"); !errors.Is(err, service.ErrBelowMinimum) {
		t.Fatalf("below min err = %v, want ErrBelowMinimum", err)
	}
	if _, err := svc.Submit(ctx, userID, -1, "card"); !errors.Is(err, service.ErrInvalidAmount) {
		t.Fatalf("negative err = %v, want ErrInvalidAmount", err)
	}

	p, err := svc.Submit(ctx, userID, 2500, "card")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if p.TokensAmount != 25000 {
		t.Fatalf("tokens = %v, want 25000 at price 0.1", p.TokensAmount)
	}

	done, rate, err := svc.MarkCompleted(ctx, p.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.FinalizedAt == nil {
		t.Fatal("finalized_at not set")
	}
	// 25,000 tokens at 10,000 tokens per EKH/s
	if rate != 2.5 {
		t.Fatalf("rate = %v, want 2.5", rate)
	}

	var cps float64
	if err := db.QueryRow(ctx,
		`SELECT coins_per_second FROM users WHERE id = $1`, userID).Scan(&cps); err != nil {
		t.Fatalf("read rate: %v", err)
	}
	if cps != 2.5 {
		t.Fatalf("stored rate = %v, want 2.5", cps)
	}

	// finalization is terminal in both directions
	if _, _, err := svc.MarkCompleted(ctx, p.ID); !errors.Is(err, service.ErrAlreadyFinalized) {
		t.Fatalf("re-complete err = %v, want ErrAlreadyFinalized", err)
	}
	if _, err := svc.MarkFailed(ctx, p.ID); !errors.Is(err, service.ErrAlreadyFinalized) {
		t.Fatalf("fail-after-complete err = %v, want ErrAlreadyFinalized", err)
	}
	if _, _, err := svc.MarkCompleted(ctx, uuid.NewString()); !errors.Is(err, service.ErrPurchaseNotFound) {
		t.Fatalf("unknown purchase err = %v, want ErrPurchaseNotFound", err)
	}

	// a failed purchase never contributes to the rate
	p2, err := svc.Submit(ctx, userID, 1000, "card")
	if err != nil {
		t.Fatalf("submit second: %v", err)
	}
	if _, err := svc.MarkFailed(ctx, p2.ID); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := db.QueryRow(ctx,
		`SELECT coins_per_second FROM users WHERE id = $1`, userID).Scan(&cps); err != nil {
		t.Fatalf("read rate: %v", err)
	}
	if cps != 2.5 {
		t.Fatalf("rate after failed purchase = %v, want 2.5", cps)
	}
}

func TestRateChangeDoesNotBackfillIdleTime(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	presale := service.NewPresaleService(db, 0.1, 10)
	accrual := service.NewAccrualService(db)

	// an hour of account lifetime at rate zero earns nothing, ever
	if _, err := db.Exec(ctx,
		`UPDATE users SET last_accrual_at = NOW() - INTERVAL '1 hour' WHERE id = $1`,
		userID); err != nil {
		t.Fatalf("backdate cursor: %v", err)
	}

	p, err := presale.Submit(ctx, userID, 2500, "card")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := presale.MarkCompleted(ctx, p.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := accrual.CatchUp(ctx, userID); err != nil {
		t.Fatalf("catch up: %v", err)
	}

	// the new 2.5/s rate applies from the completion onward, not to the
	// backdated hour (which would be 9000 EKH)
	if got := userBalance(t, db, userID); got > 10 {
		t.Fatalf("balance after rate change = %v, want ~0 (no retroactive accrual)", got)
	}
}

func TestAccrualCatchUp(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	accrual := service.NewAccrualService(db)

	// simulate 100 seconds of auto-mining at 0.5 EKH/s
	if _, err := db.Exec(ctx,
		`UPDATE users
		    SET coins_per_second = 0.5,
		        last_accrual_at  = NOW() - INTERVAL '100 seconds'
		  WHERE id = $1`, userID); err != nil {
		t.Fatalf("seed rate: %v", err)
	}

	if err := accrual.CatchUp(ctx, userID); err != nil {
		t.Fatalf("catch up: %v", err)
	}

	got := userBalance(t, db, userID)
	if got < 49.9 || got > 50.2 {
		t.Fatalf("accrued = %v, want ~50", got)
	}

	// a second catch-up right away credits nothing extra
	if err := accrual.CatchUp(ctx, userID); err != nil {
		t.Fatalf("second catch up: %v", err)
	}
	again := userBalance(t, db, userID)
	if again-got > 0.1 {
		t.Fatalf("second catch-up credited %v, want ~0", again-got)
	}
}

func TestAccrualSweepAll(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	accrual := service.NewAccrualService(db)

	userID := createUser(t, db)
	if _, err := db.Exec(ctx,
		`UPDATE users
		    SET coins_per_second = 1.0,
		        last_accrual_at  = NOW() - INTERVAL '60 seconds'
		  WHERE id = $1`, userID); err != nil {
		t.Fatalf("seed rate: %v", err)
	}

	if _, err := accrual.SweepAll(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	got := userBalance(t, db, userID)
	if got < 59.9 || got > 60.2 {
		t.Fatalf("swept balance = %v, want ~60", got)
	}
}

func TestSocialTaskManualFlow(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	svc := service.NewSocialService(db)

	taskID := "t-" + uuid.NewString()
	if _, err := db.Exec(ctx,
		`INSERT INTO social_tasks (id, title, reward_coins, verification_method)
		 VALUES ($1, 'Follow on X', 3.0, 'manual')`, taskID); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	// verify before complete is rejected
	if _, err := svc.StartTask(ctx, userID, taskID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.VerifyTask(ctx, userID, taskID); !errors.Is(err, service.ErrTaskState) {
		t.Fatalf("early verify err = %v, want ErrTaskState", err)
	}

	before := userBalance(t, db, userID)
	ut, err := svc.CompleteTask(ctx, userID, taskID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ut.Status != "completed" {
		t.Fatalf("status = %s, want completed", ut.Status)
	}
	if got := userBalance(t, db, userID); got != before {
		t.Fatal("manual complete must not credit")
	}

	ut, err = svc.VerifyTask(ctx, userID, taskID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ut.Status != "verified" {
		t.Fatalf("status = %s, want verified", ut.Status)
	}
	if got := userBalance(t, db, userID) - before; got != 3.0 {
		t.Fatalf("task reward = %v, want 3.0", got)
	}

	// re-verifying is a no-op, never a second credit
	if _, err := svc.VerifyTask(ctx, userID, taskID); err != nil {
		t.Fatalf("re-verify: %v", err)
	}
	if got := userBalance(t, db, userID) - before; got != 3.0 {
		t.Fatalf("balance after re-verify = +%v, want +3.0", got)
	}
}

func TestSocialTaskAutoFlow(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	svc := service.NewSocialService(db)

	taskID := "t-" + uuid.NewString()
	if _, err := db.Exec(ctx,
		`INSERT INTO social_tasks (id, title, reward_coins, verification_method)
		 VALUES ($1, 'Join Telegram', 1.5, 'auto')`, taskID); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	if _, err := svc.StartTask(ctx, userID, taskID); err != nil {
		t.Fatalf("start: %v", err)
	}

	before := userBalance(t, db, userID)
	ut, err := svc.CompleteTask(ctx, userID, taskID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ut.Status != "verified" {
		t.Fatalf("auto task status = %s, want verified", ut.Status)
	}
	if got := userBalance(t, db, userID) - before; got != 1.5 {
		t.Fatalf("auto reward = %v, want 1.5", got)
	}

	// repeating the terminal transition credits nothing
	if _, err := svc.CompleteTask(ctx, userID, taskID); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if got := userBalance(t, db, userID) - before; got != 1.5 {
		t.Fatalf("balance after repeat = +%v, want +1.5", got)
	}
}

func TestLeaderboardTieBreak(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	svc := service.NewLeaderboardService(db)

	// three users on the same balance; the earliest account ranks first
	coins := 1e12 + float64(time.Now().UnixNano()%1e9)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = createUser(t, db)
		if _, err := db.Exec(ctx,
			`UPDATE users
			    SET total_coins = $2,
			        created_at  = NOW() - make_interval(mins => $3)
			  WHERE id = $1`,
			ids[i], coins, 30-i*10); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	entries, err := svc.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("got %d entries, want >= 3", len(entries))
	}
	for i := 0; i < 3; i++ {
		if entries[i].UserID != ids[i] {
			t.Fatalf("rank %d = %s, want %s (oldest account first)", i+1, entries[i].UserID, ids[i])
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("rank field = %d, want %d", entries[i].Rank, i+1)
		}
	}
	if entries[0].Tier != "LEGENDARY" || entries[1].Tier != "ELITE" {
		t.Fatalf("tiers = %s/%s, want LEGENDARY/ELITE", entries[0].Tier, entries[1].Tier)
	}

	rank, err := svc.MyRank(ctx, ids[1])
	if err != nil {
		t.Fatalf("my rank: %v", err)
	}
	if rank.Rank != 2 {
		t.Fatalf("my rank = %d, want 2", rank.Rank)
	}
}
