// Package budget enforces daily and monthly token limits for model providers.
package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/metrics"
)

// Action defines behavior when token budget is exceeded.
type Action string

const (
	// ActionWarn logs a warning but allows the request.
	ActionWarn Action = "warn"
	// ActionReject blocks the request.
	ActionReject Action = "reject"
)

// ParseAction maps a config value to an Action; anything but "reject" warns.
func ParseAction(s string) Action {
	if Action(s) == ActionReject {
		return ActionReject
	}
	return ActionWarn
}

// Store is the persistence interface for budget counters.
// Implementations must be idempotent (IncrBy can be called repeatedly).
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Settings describes one tracked budget.
type Settings struct {
	Kind         string // metrics.KindEmbedding or metrics.KindCompletion
	Provider     string
	DailyLimit   int64 // 0 = unlimited
	MonthlyLimit int64 // 0 = unlimited
	Action       Action
	// Exceeded is returned by Check under ActionReject.
	Exceeded error
}

// Tracker is an in-memory token budget tracker with optional persistence.
// Hot path (Check) is in-memory only, no round-trip.
// Record updates in-memory first, then write-behind to store.
type Tracker struct {
	mu             sync.Mutex
	dailyUsed      int64
	monthlyUsed    int64
	settings       Settings
	lastDayReset   time.Time
	lastMonthReset time.Time
	store          Store
	now            func() time.Time
	logger         *zap.Logger
}

// NewTracker creates a budget tracker.
func NewTracker(s Settings, logger *zap.Logger) *Tracker {
	if s.Exceeded == nil {
		s.Exceeded = domain.ErrEmbeddingQuotaExceeded
	}
	if s.Action == "" {
		s.Action = ActionWarn
	}
	t := &Tracker{settings: s, now: func() time.Time { return time.Now().UTC() }, logger: logger}
	now := t.now()
	t.lastDayReset = truncateToDay(now)
	t.lastMonthReset = truncateToMonth(now)
	return t
}

// WithStore attaches a persistence store and loads current counters.
func (b *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	b.store = store
	b.loadFromStore(ctx)
	return b
}

func (b *Tracker) loadFromStore(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if val, err := b.store.Get(ctx, b.dailyKey(now)); err == nil {
		b.dailyUsed = val
	} else {
		b.logger.Warn("Failed to load daily budget from store", zap.Error(err))
	}

	if val, err := b.store.Get(ctx, b.monthlyKey(now)); err == nil {
		b.monthlyUsed = val
	} else {
		b.logger.Warn("Failed to load monthly budget from store", zap.Error(err))
	}

	b.logger.Info("Budget loaded from store",
		zap.String("kind", b.settings.Kind),
		zap.String("provider", b.settings.Provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
}

func (b *Tracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:daily:%s",
		domain.KeyPrefix, b.settings.Kind, b.settings.Provider, t.Format("2006-01-02"))
}

func (b *Tracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:monthly:%s",
		domain.KeyPrefix, b.settings.Kind, b.settings.Provider, t.Format("2006-01"))
}

// Check verifies the budget allows a new request. In-memory only (hot path).
func (b *Tracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()

	s := b.settings
	dailyExceeded := s.DailyLimit > 0 && b.dailyUsed >= s.DailyLimit
	monthlyExceeded := s.MonthlyLimit > 0 && b.monthlyUsed >= s.MonthlyLimit

	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if s.Action == ActionReject {
		return s.Exceeded
	}

	// action=warn: log but allow the request through
	b.logger.Warn("Token budget exceeded",
		zap.String("kind", s.Kind),
		zap.String("provider", s.Provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", s.DailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", s.MonthlyLimit),
	)
	return nil
}

// Record registers consumed tokens after a request.
// Updates in-memory counters and the remaining-budget gauge, then write-behind to store (if attached).
func (b *Tracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	b.resetIfNeeded()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	daily, monthly := b.remainingLocked()
	store := b.store
	now := b.now()
	dailyKey := b.dailyKey(now)
	monthlyKey := b.monthlyKey(now)
	b.mu.Unlock()

	remaining := metrics.BudgetTokensRemaining
	remaining.WithLabelValues(b.settings.Kind, b.settings.Provider, "daily").Set(float64(daily))
	remaining.WithLabelValues(b.settings.Kind, b.settings.Provider, "monthly").Set(float64(monthly))

	if store == nil {
		return
	}

	// Write-behind: INCRBY under a short background deadline so a slow
	// store never holds up the caller's request context.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.IncrBy(ctx, dailyKey, tokens); err != nil {
		b.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.IncrBy(ctx, monthlyKey, tokens); err != nil {
		b.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// RemainingDaily returns tokens left in the daily budget (-1 if unlimited).
func (b *Tracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	daily, _ := b.remainingLocked()
	return daily
}

// RemainingMonthly returns tokens left in the monthly budget (-1 if unlimited).
func (b *Tracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	_, monthly := b.remainingLocked()
	return monthly
}

func (b *Tracker) remainingLocked() (daily, monthly int64) {
	return remaining(b.settings.DailyLimit, b.dailyUsed), remaining(b.settings.MonthlyLimit, b.monthlyUsed)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1 // unlimited
	}
	return max(limit-used, 0)
}

// DailyLimit returns the configured daily limit (0 if unlimited).
func (b *Tracker) DailyLimit() int64 { return b.settings.DailyLimit }

// MonthlyLimit returns the configured monthly limit (0 if unlimited).
func (b *Tracker) MonthlyLimit() int64 { return b.settings.MonthlyLimit }

// Kind returns the provider kind the tracker counts for.
func (b *Tracker) Kind() string { return b.settings.Kind }

// DailyUsed returns tokens consumed today.
func (b *Tracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.dailyUsed
}

// MonthlyUsed returns tokens consumed this month.
func (b *Tracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.monthlyUsed
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (b *Tracker) resetIfNeeded() {
	now := b.now()
	today := truncateToDay(now)
	thisMonth := truncateToMonth(now)

	if today.After(b.lastDayReset) {
		b.dailyUsed = 0
		b.lastDayReset = today
	}
	if thisMonth.After(b.lastMonthReset) {
		b.monthlyUsed = 0
		b.lastMonthReset = thisMonth
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
