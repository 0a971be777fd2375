package client

import (
	"errors"
	"fmt"
	"strings"
)

// Budget tiers offered by the trip form.
const (
	BudgetBackpacker = "Budget (Backpacker)"
	BudgetStandard   = "Standard (Comfort)"
	BudgetLuxury     = "Luxury (Premium)"
)

// BudgetTiers lists the tiers in ascending order.
var BudgetTiers = []string{BudgetBackpacker, BudgetStandard, BudgetLuxury}

// Countries are the destinations suggested by the trip form. Any other
// country may be typed in.
var Countries = []string{"Japan", "Thailand", "Vietnam", "India", "Indonesia", "South Korea", "China"}

// ErrIncompleteTrip is returned when country or city are missing.
var ErrIncompleteTrip = errors.New("trip needs a country and a city or tour point")

// IncompleteTripMessage is shown to the traveller for ErrIncompleteTrip.
const IncompleteTripMessage = "Please provide at least a Country and City/Tour Point."

// TripRequest is the trip form.
type TripRequest struct {
	Country string
	City    string
	Budget  string
	Notes   string
}

// Validate checks the required fields.
func (t TripRequest) Validate() error {
	if strings.TrimSpace(t.Country) == "" || strings.TrimSpace(t.City) == "" {
		return ErrIncompleteTrip
	}
	return nil
}

// Prompt renders the first user message of a conversation.
func (t TripRequest) Prompt() string {
	budget := strings.TrimSpace(t.Budget)
	if budget == "" {
		budget = BudgetStandard
	}

	return fmt.Sprintf(
		"Please plan a trip to %s, %s.\nBudget Level: %s.\nAdditional Notes: %s.",
		strings.TrimSpace(t.City),
		strings.TrimSpace(t.Country),
		budget,
		strings.TrimSpace(t.Notes),
	)
}

// ResolveBudget maps a short name (backpacker, standard, luxury or the
// tier label) to a budget tier.
func ResolveBudget(s string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch {
	case key == "":
		return BudgetStandard, nil
	case strings.HasPrefix(key, "budget"), strings.Contains(key, "backpacker"), key == "low":
		return BudgetBackpacker, nil
	case strings.HasPrefix(key, "standard"), strings.Contains(key, "comfort"), key == "medium":
		return BudgetStandard, nil
	case strings.HasPrefix(key, "luxury"), strings.Contains(key, "premium"), key == "high":
		return BudgetLuxury, nil
	default:
		return "", fmt.Errorf("unknown budget %q, choose one of: %s", s, strings.Join(BudgetTiers, ", "))
	}
}
