package trip

// Role classifies a crew member on a day-rate entry.
type Role string

const (
	RolePilot           Role = "Pilot"
	RoleFlightAttendant Role = "Flight Attendant"
	RoleMechanic        Role = "Mechanic"
	RoleOther           Role = "Other"
)

// Defaults applied when a fresh estimate is created. Density is the standard
// Jet-A figure; price and APU burn match the values the form ships with.
const (
	DefaultFuelDensity  = 6.7
	DefaultFuelPrice    = 5.93
	DefaultApuBurnLb    = 100
	DefaultPilotDayRate = 1500
)

// Leg is one point-to-point flight segment. Time keeps the raw H:MM text the
// user typed so malformed input survives a save/load round trip; it is parsed
// fresh on every recalculation.
type Leg struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Time       string  `json:"time"`
	FuelBurnLb float64 `json:"fuel_burn_lb"`
}

// CrewRateEntry is one crew member's flat charge per trip day. Duplicate roles
// are allowed; the entry count is the crew count for per-diem math.
type CrewRateEntry struct {
	Role      Role    `json:"role"`
	DailyRate float64 `json:"daily_rate"`
}

// FuelParams holds fuel pricing inputs shared across all legs.
type FuelParams struct {
	DensityLbPerGal float64 `json:"density_lb_per_gal"`
	PricePerGal     float64 `json:"price_per_gal"`
	ApuBurnLbPerLeg float64 `json:"apu_burn_lb_per_leg"`
}

// HotelNights tracks whether the lodging-nights field still mirrors trip days
// or has been pinned by a direct user edit. While not overridden the stored
// value is derived, never authoritative: Resolve rewrites it from trip days on
// every recalculation. Override is sticky until Reset.
type HotelNights struct {
	Overridden bool `json:"overridden"`
	Nights     int  `json:"nights"`
}

// Override pins the nights value and stops it from mirroring trip days. Any
// direct edit counts, whatever the value typed.
func (h *HotelNights) Override(nights int) {
	if nights < 0 {
		nights = 0
	}
	h.Overridden = true
	h.Nights = nights
}

// Resolve returns the effective nights for the given trip days, writing the
// derived value back so the stored field stays a live mirror.
func (h *HotelNights) Resolve(tripDays int) int {
	if h.Overridden {
		return h.Nights
	}
	n := tripDays - 1
	if n < 0 {
		n = 0
	}
	h.Nights = n
	return n
}

// Reset returns the field to the derived state. This is the only transition
// out of the overridden state.
func (h *HotelNights) Reset() {
	*h = HotelNights{}
}

// CrewExpenseParams holds crew living-expense inputs. Meals and other use trip
// days directly; hotel cost uses the resolved hotel nights. The two multipliers
// are intentionally different.
type CrewExpenseParams struct {
	TripDays       int         `json:"trip_days"`
	HotelNights    HotelNights `json:"hotel_nights"`
	HotelRate      float64     `json:"hotel_rate"`
	MealsPerDay    float64     `json:"meals_per_day"`
	OtherPerDay    float64     `json:"other_per_day"`
	RentalCarTotal float64     `json:"rental_car_total"`
	MileageTotal   float64     `json:"mileage_total"`
	AirfareTotal   float64     `json:"airfare_total"`
}

// HourlyRates are per-flight-hour program and reserve rates.
type HourlyRates struct {
	MaintenanceProgram float64 `json:"maintenance_program"`
	OtherConsumables   float64 `json:"other_consumables"`
	AdditionalHourly   float64 `json:"additional_hourly"`
}

// AirportFees are the ten airport and ground line items.
type AirportFees struct {
	Landing            float64 `json:"landing"`
	Catering           float64 `json:"catering"`
	Handling           float64 `json:"handling"`
	PaxGroundTransport float64 `json:"pax_ground_transport"`
	Facility           float64 `json:"facility"`
	SpecialEvent       float64 `json:"special_event"`
	RampParking        float64 `json:"ramp_parking"`
	Customs            float64 `json:"customs"`
	Hangar             float64 `json:"hangar"`
	Other              float64 `json:"other"`
}

// MiscFees are trip-level charges outside the other buckets.
type MiscFees struct {
	TripCoordinationFee float64 `json:"trip_coordination_fee"`
	OtherMisc           float64 `json:"other_misc"`
}

// Estimate is the full input snapshot: everything Recalculate reads and
// everything the store persists. Every recompute is a pure function of one of
// these, apart from the hotel-nights mirror write-back.
type Estimate struct {
	Legs        []Leg             `json:"legs"`
	CrewRates   []CrewRateEntry   `json:"crew_rates"`
	Fuel        FuelParams        `json:"fuel"`
	CrewExpense CrewExpenseParams `json:"crew_expense"`
	Hourly      HourlyRates       `json:"hourly"`
	Airport     AirportFees       `json:"airport"`
	Misc        MiscFees          `json:"misc"`
	Notes       string            `json:"notes"`
}

// NewEstimate returns an estimate with the session defaults: standard fuel
// parameters and two pilots, no legs.
func NewEstimate() *Estimate {
	return &Estimate{
		CrewRates: []CrewRateEntry{
			{Role: RolePilot, DailyRate: DefaultPilotDayRate},
			{Role: RolePilot, DailyRate: DefaultPilotDayRate},
		},
		Fuel: FuelParams{
			DensityLbPerGal: DefaultFuelDensity,
			PricePerGal:     DefaultFuelPrice,
			ApuBurnLbPerLeg: DefaultApuBurnLb,
		},
	}
}

// Reset restores the session defaults, clearing the hotel-nights override.
func (e *Estimate) Reset() {
	*e = *NewEstimate()
}

// Totals is the derived output snapshot, fully recomputed each cycle.
type Totals struct {
	TotalMinutes    int      `json:"total_minutes"`
	TotalHours      float64  `json:"total_hours"`
	FlightFuelLb    float64  `json:"flight_fuel_lb"`
	FuelWithApuLb   float64  `json:"fuel_with_apu_lb"`
	FuelGallons     float64  `json:"fuel_gallons"`
	FuelCost        float64  `json:"fuel_cost"`
	HourlySubtotal  float64  `json:"hourly_subtotal"`
	CrewService     float64  `json:"crew_service_subtotal"`
	CrewLiving      float64  `json:"crew_living_subtotal"`
	CrewSubtotal    float64  `json:"crew_subtotal"`
	AirportSubtotal float64  `json:"airport_subtotal"`
	MiscSubtotal    float64  `json:"misc_subtotal"`
	GrandTotal      float64  `json:"grand_total"`
	CostPerHour     float64  `json:"cost_per_hour"`
	CostPerLeg      float64  `json:"cost_per_leg"`
	LegCount        int      `json:"leg_count"`
	ActiveLegCount  int      `json:"active_leg_count"`
	AnyLegInvalid   bool     `json:"any_leg_invalid"`
	HotelNights     int      `json:"hotel_nights"`
	Warnings        []string `json:"warnings"`
}
