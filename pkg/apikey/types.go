package apikey

import (
	"time"

	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

// Stats is the server-owned view of the caller's API key and its usage.
type Stats struct {
	IsActive       bool           `json:"isActive"`
	KeyPrefix      string         `json:"keyPrefix"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastUsedAt     *time.Time     `json:"lastUsedAt,omitempty"`
	TotalHits      int64          `json:"totalHits"`
	MonthUsed      int64          `json:"monthUsed"`
	FreeQuota      int64          `json:"freeQuota"`
	PurchasedQuota int64          `json:"purchasedQuota"`
	TotalQuota     int64          `json:"totalQuota"`
	Remaining      int64          `json:"remaining"`
	PercentUsed    float64        `json:"percentUsed"`
	PlanID         plans.ID       `json:"planId"`
	Last7Days      []DailyUsage   `json:"last7Days,omitempty"`
	Last3Months    []MonthlyUsage `json:"last3Months,omitempty"`
}

// DailyUsage is one bucket of the seven-day series.
type DailyUsage struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// MonthlyUsage is one bucket of the three-month series.
type MonthlyUsage struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// StatsResponse is returned by GET /api/user/apikey/stats.
type StatsResponse struct {
	HasKey bool   `json:"hasKey"`
	Stats  *Stats `json:"stats"`
}

// Quota is the monthly allowance derived from the free and purchased parts.
type Quota struct {
	Total     int64
	Used      int64
	Remaining int64
	Percent   float64
}

// Quota recomputes the monthly allowance from the quota components:
// total = free + purchased, remaining = total - used, percent = used/total*100.
func (s *Stats) Quota() Quota {
	total := s.FreeQuota + s.PurchasedQuota
	q := Quota{
		Total:     total,
		Used:      s.MonthUsed,
		Remaining: total - s.MonthUsed,
	}
	switch {
	case total > 0:
		q.Percent = float64(s.MonthUsed) / float64(total) * 100
	case s.MonthUsed > 0:
		q.Percent = 100
	}
	return q
}

// DisplayPercent is Percent clamped to [0, 100] for progress bars.
func (q Quota) DisplayPercent() float64 {
	if q.Percent < 0 {
		return 0
	}
	if q.Percent > 100 {
		return 100
	}
	return q.Percent
}

// Plan returns the current plan, defaulting to Free.
func (s *Stats) Plan() plans.ID {
	if s == nil || plans.Index(s.PlanID) < 0 {
		return plans.Free
	}
	return s.PlanID
}

type keyEnvelope struct {
	APIKey struct {
		Key string `json:"key"`
	} `json:"apiKey"`
}

type passwordRequest struct {
	Password string `json:"password"`
}
