package trip

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Money renders a dollar amount with thousands separators and exactly two
// decimal places. Pure function of the number; non-finite values render as 0.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Summary renders the human-readable report used for clipboard copy and
// document export: per-leg lines in leg order, a totals block, one line per
// non-zero subtotal bucket, the estimated total, and the trip notes verbatim
// when present. Deterministic for a fixed estimate/totals pair.
func Summary(e *Estimate, t Totals) string {
	lines := []string{"Trip Cost Estimate", "", "Legs:"}

	density := e.Fuel.DensityLbPerGal
	for i, leg := range e.Legs {
		timeText := strings.TrimSpace(leg.Time)
		if timeText == "" {
			timeText = "0:00"
		}
		lb := amount(leg.FuelBurnLb)
		var gal float64
		if density > 0 && !math.IsInf(density, 0) {
			gal = lb / density
		}
		route := ""
		if leg.From != "" || leg.To != "" {
			route = fmt.Sprintf(" %s → %s", leg.From, leg.To)
		}
		lines = append(lines, fmt.Sprintf("- Leg %d:%s %s (%.0f lb / %.1f gal)",
			i+1, route, timeText, math.Round(lb), gal))
	}

	lines = append(lines, "", "Totals:",
		fmt.Sprintf("- Time: %s (%.2f h)", FormatHHMM(t.TotalMinutes), t.TotalHours),
		fmt.Sprintf("- Fuel: %.0f lb → %.1f gal @ %s/gal → %s",
			math.Round(t.FuelWithApuLb), t.FuelGallons, Money(amount(e.Fuel.PricePerGal)), Money(t.FuelCost)))

	buckets := []struct {
		label string
		value float64
	}{
		{"Hourly Programs/Reserves", t.HourlySubtotal},
		{"Crew Service", t.CrewService},
		{"Crew Expenses", t.CrewLiving},
		{"Airport & Ground", t.AirportSubtotal},
		{"Misc", t.MiscSubtotal},
	}
	for _, b := range buckets {
		if b.value != 0 {
			lines = append(lines, fmt.Sprintf("- %s: %s", b.label, Money(b.value)))
		}
	}

	lines = append(lines, "", "Estimated Total: "+Money(t.GrandTotal))

	if notes := strings.TrimSpace(e.Notes); notes != "" {
		lines = append(lines, "", "Trip Notes:", notes)
	}

	return strings.Join(lines, "\n")
}
