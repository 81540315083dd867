// Package usage reports provider token budgets for the current day or month.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/discovery/internal/domain"
)

// Period selects the budget window a report covers.
type Period string

// Supported periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", domain.ErrInvalidQuery, s)
	}
}

// Budget is one provider kind's standing within the period.
type Budget struct {
	Kind      string
	Limit     int64 // 0 = unlimited
	Used      int64
	Remaining int64 // -1 = unlimited
	Exhausted bool
}

// Report is a usage snapshot.
type Report struct {
	Period      Period
	PeriodStart time.Time
	PeriodEnd   time.Time
	Budgets     []Budget
}

// Service handles usage reporting.
type Service struct {
	readers []BudgetReader
	now     func() time.Time
}

// New creates a Service over the given trackers. Nil readers are skipped,
// so a kind without limits simply does not appear in reports.
func New(readers ...BudgetReader) *Service {
	s := &Service{now: func() time.Time { return time.Now().UTC() }}
	for _, r := range readers {
		if r != nil {
			s.readers = append(s.readers, r)
		}
	}
	return s
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now()
	r := Report{Period: period, Budgets: make([]Budget, 0, len(s.readers))}

	switch period {
	case PeriodMonth:
		r.PeriodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 1, 0)
	default:
		r.Period = PeriodDay
		r.PeriodStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.Add(24 * time.Hour)
	}

	for _, br := range s.readers {
		b := Budget{Kind: br.Kind()}
		if r.Period == PeriodMonth {
			b.Limit, b.Used, b.Remaining = br.MonthlyLimit(), br.MonthlyUsed(), br.RemainingMonthly()
		} else {
			b.Limit, b.Used, b.Remaining = br.DailyLimit(), br.DailyUsed(), br.RemainingDaily()
		}
		b.Exhausted = b.Limit > 0 && b.Remaining <= 0
		r.Budgets = append(r.Budgets, b)
	}
	return r
}
