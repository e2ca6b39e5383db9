// Package entitlement decides what a user's subscription allows. The
// parsing pipeline consults it before any model call; the API layer
// consults it for the history window.
package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/spendtext/spendtext/internal/parser"
)

// Plan names the supported subscription tiers.
const (
	PlanFree = "free"
	PlanPlus = "plus"
)

// Plan describes the limits attached to a subscription tier. A
// MonthlyLimit of zero means unlimited.
type Plan struct {
	Name         string
	MonthlyLimit int
	HistoryDays  int
}

var plans = map[string]Plan{
	PlanFree: {Name: PlanFree, MonthlyLimit: 100, HistoryDays: 90},
	PlanPlus: {Name: PlanPlus, MonthlyLimit: 0, HistoryDays: 365},
}

// PlanResolver reports which tier a user is on. Unknown users are on
// the free tier.
type PlanResolver interface {
	PlanFor(ctx context.Context, userID string) (string, error)
}

// UsageStore counts transactions created in a period. Satisfied by
// store.Store.
type UsageStore interface {
	CountForPeriod(ctx context.Context, userID string, from, to time.Time) (int, error)
}

// Service answers entitlement questions, memoizing usage counts
// briefly so a burst of parses does not hammer the database.
type Service struct {
	plans PlanResolver
	usage UsageStore
	memo  *cache.Cache
	now   func() time.Time
}

// NewService builds a Service. Usage counts are cached for 30 seconds.
func NewService(plans PlanResolver, usage UsageStore) *Service {
	return &Service{
		plans: plans,
		usage: usage,
		memo:  cache.New(30*time.Second, time.Minute),
		now:   time.Now,
	}
}

// Check reports whether the user may run another parse this month.
func (s *Service) Check(ctx context.Context, userID string) (parser.Decision, error) {
	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return parser.Decision{}, err
	}
	if plan.MonthlyLimit == 0 {
		return parser.Decision{Allowed: true, Remaining: -1}, nil
	}

	used, err := s.monthlyUsage(ctx, userID)
	if err != nil {
		return parser.Decision{}, err
	}

	remaining := plan.MonthlyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return parser.Decision{
		Allowed:   used < plan.MonthlyLimit,
		Limit:     plan.MonthlyLimit,
		Remaining: remaining,
	}, nil
}

// HistorySince returns the earliest transaction date the user's plan
// lets them see.
func (s *Service) HistorySince(ctx context.Context, userID string) (time.Time, error) {
	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	return s.now().AddDate(0, 0, -plan.HistoryDays), nil
}

// Invalidate drops the memoized usage count for a user. Called after
// transactions are inserted so the next Check sees fresh numbers.
func (s *Service) Invalidate(userID string) {
	s.memo.Delete(usageKey(userID))
}

func (s *Service) planFor(ctx context.Context, userID string) (Plan, error) {
	name, err := s.plans.PlanFor(ctx, userID)
	if err != nil {
		return Plan{}, fmt.Errorf("entitlement: resolve plan: %w", err)
	}
	plan, ok := plans[name]
	if !ok {
		plan = plans[PlanFree]
	}
	return plan, nil
}

func (s *Service) monthlyUsage(ctx context.Context, userID string) (int, error) {
	key := usageKey(userID)
	if cached, ok := s.memo.Get(key); ok {
		return cached.(int), nil
	}

	from := startOfMonth(s.now())
	to := from.AddDate(0, 1, 0)
	used, err := s.usage.CountForPeriod(ctx, userID, from, to)
	if err != nil {
		return 0, fmt.Errorf("entitlement: count usage: %w", err)
	}

	s.memo.Set(key, used, cache.DefaultExpiration)
	return used, nil
}

func usageKey(userID string) string {
	return "usage:" + userID
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StaticPlans resolves every user to the same tier. Used until real
// billing records exist.
type StaticPlans struct {
	Plan string
}

func (s StaticPlans) PlanFor(ctx context.Context, userID string) (string, error) {
	return s.Plan, nil
}
