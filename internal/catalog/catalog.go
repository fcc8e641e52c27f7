// Package catalog is the static commercial plan catalog. It is the single
// source of truth mapping provider price identifiers to plan entitlements;
// every lookup is total so callers never handle a miss.
package catalog

// Plan describes one commercial tier and its entitlements.
type Plan struct {
	Name           string
	Seats          int
	AnalysisQuota  int
	MonthlyPriceID string
	YearlyPriceID  string
}

// Well-known plan names.
const (
	PlanFree = "Free"
	PlanSolo = "Solo"
	PlanTeam = "Team"
)

// Free-tier entitlement defaults, used whenever a lookup misses.
const (
	DefaultSeats = 1
	DefaultQuota = 100
)

// plans is the one table every lookup below derives from. Adding a tier
// means adding a row here and nothing else.
var plans = []Plan{
	{Name: PlanFree, Seats: DefaultSeats, AnalysisQuota: DefaultQuota},
	{Name: PlanSolo, Seats: 1, AnalysisQuota: 5, MonthlyPriceID: "price_solo_monthly", YearlyPriceID: "price_solo_yearly"},
	{Name: PlanTeam, Seats: 20, AnalysisQuota: 20000, MonthlyPriceID: "price_team_monthly", YearlyPriceID: "price_team_yearly"},
}

var (
	byPrice = map[string]Plan{}
	byName  = map[string]Plan{}
)

func init() {
	for _, plan := range plans {
		byName[plan.Name] = plan
		if plan.MonthlyPriceID != "" {
			byPrice[plan.MonthlyPriceID] = plan
		}
		if plan.YearlyPriceID != "" {
			byPrice[plan.YearlyPriceID] = plan
		}
	}
}

// Plans returns a copy of the full catalog.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// Lookup returns the catalog entry for a plan name.
func Lookup(planName string) (Plan, bool) {
	plan, ok := byName[planName]
	return plan, ok
}

// PlanForPrice maps a provider price identifier to a plan name. Unknown
// prices resolve to the Free tier.
func PlanForPrice(priceID string) string {
	if plan, ok := byPrice[priceID]; ok {
		return plan.Name
	}
	return PlanFree
}

// SeatsForPlan returns the seat entitlement for a plan name.
func SeatsForPlan(planName string) int {
	if plan, ok := byName[planName]; ok {
		return plan.Seats
	}
	return DefaultSeats
}

// QuotaForPlan returns the analysis quota for a plan name.
func QuotaForPlan(planName string) int {
	if plan, ok := byName[planName]; ok {
		return plan.AnalysisQuota
	}
	return DefaultQuota
}
