// Package plans holds the static API plan catalog and the ordering rules used
// to decide whether a user may move from one plan to another.
package plans

import (
	"fmt"
	"strings"
)

// ID identifies a plan tier.
type ID string

const (
	Free    ID = "free"
	Starter ID = "starter"
	Pro     ID = "pro"
	Ultra   ID = "ultra"
)

// Plan describes a tier as shown on the pricing grid.
type Plan struct {
	ID          ID       `json:"id"`
	Label       string   `json:"label"`
	PriceINR    int      `json:"priceINR"`
	Quota       int64    `json:"quota"`
	QuotaLabel  string   `json:"quotaLabel"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Highlighted bool     `json:"highlighted"`
	Badge       string   `json:"badge,omitempty"`
}

// catalog is ordered from the lowest to the highest capability. The slice
// position is the plan's order index.
var catalog = []Plan{
	{
		ID:          Free,
		Label:       "Free",
		PriceINR:    0,
		Quota:       100,
		QuotaLabel:  "100 requests / month",
		Description: "Explore the API with a small monthly allowance.",
		Features: []string{
			"Celebrity, movie and outfit endpoints",
			"100 requests every month",
			"Community support",
		},
	},
	{
		ID:          Starter,
		Label:       "Starter",
		PriceINR:    199,
		Quota:       1000,
		QuotaLabel:  "1,000 requests / month",
		Description: "For side projects and small fan sites.",
		Features: []string{
			"Everything in Free",
			"1,000 requests every month",
			"Email support",
		},
	},
	{
		ID:          Pro,
		Label:       "Pro",
		PriceINR:    499,
		Quota:       5000,
		QuotaLabel:  "5,000 requests / month",
		Description: "For production apps with steady traffic.",
		Features: []string{
			"Everything in Starter",
			"5,000 requests every month",
			"Priority email support",
		},
		Highlighted: true,
		Badge:       "Most popular",
	},
	{
		ID:          Ultra,
		Label:       "Ultra",
		PriceINR:    999,
		Quota:       20000,
		QuotaLabel:  "20,000 requests / month",
		Description: "For high-volume integrations.",
		Features: []string{
			"Everything in Pro",
			"20,000 requests every month",
			"Dedicated support channel",
		},
		Badge: "Best value",
	},
}

// Catalog returns a copy of every plan in ascending order.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// Index returns the order index of id, or -1 if the plan is unknown.
func Index(id ID) int {
	for i, p := range catalog {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Lookup returns the plan with the given id.
func Lookup(id ID) (Plan, bool) {
	i := Index(id)
	if i < 0 {
		return Plan{}, false
	}
	return Catalog()[i], true
}

// Parse converts user input into a known plan ID.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if Index(id) < 0 {
		return "", fmt.Errorf("unknown plan %q (expected one of %s)", s, strings.Join(ids(), ", "))
	}
	return id, nil
}

func ids() []string {
	out := make([]string, len(catalog))
	for i, p := range catalog {
		out[i] = string(p.ID)
	}
	return out
}

// CanUpgrade reports whether target sits strictly above current.
// An unknown current plan is treated as Free.
func CanUpgrade(current, target ID) bool {
	return Check(current, target) == Upgrade
}

// Eligibility is the relationship between a target plan and the current one.
type Eligibility int

const (
	Unknown Eligibility = iota
	Upgrade
	Current
	Downgrade
)

// Check classifies moving from current to target.
func Check(current, target ID) Eligibility {
	ti := Index(target)
	if ti < 0 {
		return Unknown
	}
	ci := Index(current)
	if ci < 0 {
		ci = 0
	}
	switch {
	case ti > ci:
		return Upgrade
	case ti == ci:
		return Current
	default:
		return Downgrade
	}
}

// Label is the text shown on the plan's action button.
func (e Eligibility) Label(target Plan) string {
	switch e {
	case Upgrade:
		return "Upgrade to " + target.Label
	case Current:
		return "Current plan"
	case Downgrade:
		return "Downgrade not available"
	default:
		return "Unavailable"
	}
}

// Selectable returns the plans a user on current may purchase.
func Selectable(current ID) []Plan {
	var out []Plan
	for _, p := range Catalog() {
		if CanUpgrade(current, p.ID) {
			out = append(out, p)
		}
	}
	return out
}
