package trip

import "math"

// LegAggregate is the reduction of the ordered leg list.
type LegAggregate struct {
	TotalMinutes   int
	TotalFuelLb    float64
	LegCount       int
	ActiveLegCount int
	AnyInvalid     bool
}

// AggregateLegs reduces the leg list into total minutes and fuel mass. A leg
// whose time or fuel fails to parse sets AnyInvalid and contributes zero; it
// never aborts aggregation. ActiveLegCount counts legs with nonzero time or
// fuel, and that count, not LegCount, gates per-leg APU burn.
func AggregateLegs(legs []Leg) LegAggregate {
	agg := LegAggregate{LegCount: len(legs)}
	for _, leg := range legs {
		mins, err := ParseHHMM(leg.Time)
		if err != nil {
			agg.AnyInvalid = true
			mins = 0
		}

		lb := leg.FuelBurnLb
		if math.IsNaN(lb) || math.IsInf(lb, 0) || lb < 0 {
			agg.AnyInvalid = true
			lb = 0
		}

		agg.TotalMinutes += mins
		agg.TotalFuelLb += lb
		if mins > 0 || lb > 0 {
			agg.ActiveLegCount++
		}
	}
	return agg
}

// Recalculate derives the complete cost breakdown from the estimate. It is the
// single entry point for every input mutation: legs are aggregated first, then
// fuel, hourly programs, crew, airport and misc buckets, then the grand total,
// unit costs and soft warnings. All denominators degrade to zero instead of
// dividing by zero, and no input, however malformed, prevents a finite result.
//
// The one mutation is the hotel-nights mirror: while not overridden, the stored
// value is rewritten to max(0, tripDays-1) on every call.
func Recalculate(e *Estimate) Totals {
	agg := AggregateLegs(e.Legs)
	hours := float64(agg.TotalMinutes) / 60.0

	apuLb := amount(e.Fuel.ApuBurnLbPerLeg) * float64(agg.ActiveLegCount)
	fuelWithApu := agg.TotalFuelLb + apuLb

	var gallons float64
	if d := e.Fuel.DensityLbPerGal; d > 0 && !math.IsInf(d, 0) {
		gallons = fuelWithApu / d
	}
	fuelPrice := amount(e.Fuel.PricePerGal)
	fuelCost := gallons * fuelPrice

	hourlySubtotal := (amount(e.Hourly.MaintenanceProgram) +
		amount(e.Hourly.OtherConsumables) +
		amount(e.Hourly.AdditionalHourly)) * hours

	tripDays := e.CrewExpense.TripDays
	if tripDays < 0 {
		tripDays = 0
	}
	crewCount := len(e.CrewRates)
	nights := e.CrewExpense.HotelNights.Resolve(tripDays)

	var crewService float64
	for _, cr := range e.CrewRates {
		crewService += amount(cr.DailyRate) * float64(tripDays)
	}

	perDiem := amount(e.CrewExpense.MealsPerDay) + amount(e.CrewExpense.OtherPerDay)
	crewLiving := float64(crewCount)*float64(tripDays)*perDiem +
		float64(crewCount)*amount(e.CrewExpense.HotelRate)*float64(nights) +
		amount(e.CrewExpense.RentalCarTotal) +
		amount(e.CrewExpense.MileageTotal) +
		amount(e.CrewExpense.AirfareTotal)
	crewSubtotal := crewService + crewLiving

	airportSubtotal := amount(e.Airport.Landing) +
		amount(e.Airport.Catering) +
		amount(e.Airport.Handling) +
		amount(e.Airport.PaxGroundTransport) +
		amount(e.Airport.Facility) +
		amount(e.Airport.SpecialEvent) +
		amount(e.Airport.RampParking) +
		amount(e.Airport.Customs) +
		amount(e.Airport.Hangar) +
		amount(e.Airport.Other)

	miscSubtotal := amount(e.Misc.TripCoordinationFee) + amount(e.Misc.OtherMisc)

	grand := hourlySubtotal + fuelCost + crewSubtotal + airportSubtotal + miscSubtotal

	t := Totals{
		TotalMinutes:    agg.TotalMinutes,
		TotalHours:      hours,
		FlightFuelLb:    agg.TotalFuelLb,
		FuelWithApuLb:   fuelWithApu,
		FuelGallons:     gallons,
		FuelCost:        fuelCost,
		HourlySubtotal:  hourlySubtotal,
		CrewService:     crewService,
		CrewLiving:      crewLiving,
		CrewSubtotal:    crewSubtotal,
		AirportSubtotal: airportSubtotal,
		MiscSubtotal:    miscSubtotal,
		GrandTotal:      grand,
		LegCount:        agg.LegCount,
		ActiveLegCount:  agg.ActiveLegCount,
		AnyLegInvalid:   agg.AnyInvalid,
		HotelNights:     nights,
	}
	if hours > 0 {
		t.CostPerHour = grand / hours
	}
	if agg.LegCount > 0 {
		t.CostPerLeg = grand / float64(agg.LegCount)
	}
	t.Warnings = softWarnings(hours, agg.TotalFuelLb, fuelPrice, gallons, crewCount, tripDays)
	return t
}

// softWarnings are advisory only; none block computation or display.
func softWarnings(hours, flightFuelLb, fuelPrice, gallons float64, crewCount, tripDays int) []string {
	warnings := make([]string, 0)
	if hours == 0 {
		warnings = append(warnings, "Total time is 0.")
	}
	if flightFuelLb == 0 {
		warnings = append(warnings, "Total fuel (excl. APU) is 0 lb.")
	}
	if fuelPrice == 0 && gallons > 0 {
		warnings = append(warnings, "Fuel price is 0.")
	}
	if crewCount > 0 && tripDays == 0 {
		warnings = append(warnings, "Trip days is 0 while crew exists.")
	}
	return warnings
}
