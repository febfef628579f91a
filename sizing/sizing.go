// Package sizing contains the deterministic core of the microgrid planner: a
// pure function that turns a monthly irradiance climatology, a daily load and
// a few policy knobs into component sizes, a cost breakdown and an LCOE.
package sizing

import (
	"math"

	"github.com/montanaflynn/stats"
)

const (
	hoursPerDay = 24.0
	daysPerYear = 365.0

	// Floor applied to the load factor before deriving peak load. A clamp,
	// not an error: degenerate inputs must not blow up the division.
	minLoadFactor = 0.05

	// Sites whose median month outshines the worst month by more than this
	// ratio get a PV reliability margin; annual averages would understate
	// the low-season shortfall there.
	seasonalityThreshold = 1.4
	seasonalityMargin    = 1.15

	// Worst-month GHI below this level means heavy generator runtime.
	lowSunGHI = 1.5
)

// DomainError reports a computed intermediate that violates a physical
// invariant, e.g. zero PV yield.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string {
	return "sizing: " + e.Reason
}

// Inputs are the validated scalars for one sizing call. Range validation
// (coordinate bounds, positivity) is owned by the caller; the engine assumes
// values are already in range.
type Inputs struct {
	Latitude           float64 `json:"lat"`
	Longitude          float64 `json:"lon"`
	DailyLoadKWh       float64 `json:"daily_load_kwh"`
	FuelCostPerLiter   float64 `json:"fuel_cost_per_liter"`
	RenewablesFraction float64 `json:"renewables_fraction"`
	AutonomyDays       float64 `json:"autonomy_days"`
	LoadFactor         float64 `json:"load_factor"`
}

// Result is the full-precision output of one sizing call. Display rounding is
// a presentation concern; nothing here is rounded, so derived quantities such
// as LCOE never accumulate rounding error.
type Result struct {
	GHIWorst        float64 `json:"ghi_worst"`
	GHIMedian       float64 `json:"ghi_median"`
	PVYieldPerKWDay float64 `json:"pv_yield_per_kw_day"`

	PVKW           float64 `json:"pv_kw"`
	BattKWh        float64 `json:"batt_kwh"`
	InverterKW     float64 `json:"inverter_kw"`
	PeakKW         float64 `json:"peak_kw"`
	GenKW          float64 `json:"gen_kw"`           // uninflated, before step rounding
	GenNameplateKW float64 `json:"gen_nameplate_kw"` // rounded up to the sales step
	PanelCount     int     `json:"panel_count"`
	BatteryCount   int     `json:"battery_count"`

	AnnualLoadKWh     float64 `json:"annual_load_kwh"`
	AnnualPVEnergyKWh float64 `json:"annual_pv_energy_kwh"`
	ServedByPVBattKWh float64 `json:"served_by_pv_batt_kwh"`
	ServedByGenKWh    float64 `json:"served_by_gen_kwh"`
	AnnualFuelLiters  float64 `json:"annual_fuel_liters"`
	AnnualFuelCost    float64 `json:"annual_fuel_cost"`

	CapexPV    float64 `json:"capex_pv"`
	CapexBatt  float64 `json:"capex_batt"`
	CapexInv   float64 `json:"capex_inv"`
	CapexGen   float64 `json:"capex_gen"`
	CapexTotal float64 `json:"capex_total"`

	AnnualOM       float64 `json:"annual_om"`
	AnnualizedPV   float64 `json:"annualized_pv"`
	AnnualizedBatt float64 `json:"annualized_batt"`
	AnnualizedInv  float64 `json:"annualized_inv"`
	AnnualizedGen  float64 `json:"annualized_gen"`

	TotalAnnualCost float64 `json:"total_annual_cost"`
	LCOE            float64 `json:"lcoe"`

	Warnings []string `json:"warnings"`
}

// derivation carries the intermediates the warning rules look at.
type derivation struct {
	in          Inputs
	worst       float64
	seasonality float64
	peakKW      float64
	inverterKW  float64
}

// Warning rules are evaluated in this order; any subset may fire. The last
// rule is unreachable under the max() in the inverter formula and is kept as
// a defensive invariant check.
var warningRules = []struct {
	applies func(d derivation) bool
	message string
}{
	{
		applies: func(d derivation) bool { return d.worst < lowSunGHI },
		message: "Low winter sun (worst-month GHI < 1.5 kWh/m²/day): expect significant generator runtime.",
	},
	{
		applies: func(d derivation) bool { return d.seasonality > seasonalityThreshold },
		message: "High seasonality detected: PV capacity increased by 15% for reliability.",
	},
	{
		applies: func(d derivation) bool { return d.in.RenewablesFraction >= 0.95 && d.in.AutonomyDays < 1.0 },
		message: "For very high renewables targets, consider ≥1 day autonomy for resilience.",
	},
	{
		applies: func(d derivation) bool { return d.inverterKW < d.peakKW },
		message: "Inverter undersized vs. peak load; increase inverter rating.",
	},
}

// Size computes the full sizing, energy balance and cost breakdown for one
// call. Pure and deterministic: no I/O, no hidden state, same inputs always
// produce the same Result.
func Size(in Inputs, series MonthlySeries, as Assumptions) (Result, error) {
	vals := series.values()
	worst, err := stats.Min(vals)
	if err != nil {
		return Result{}, &DomainError{Reason: "irradiance series: " + err.Error()}
	}
	median, err := stats.Median(vals)
	if err != nil {
		return Result{}, &DomainError{Reason: "irradiance series: " + err.Error()}
	}

	// Worst-month design: PV must meet the target fraction of load even in
	// the lowest-insolation month.
	pvYield := worst * as.PerformanceRatio
	if pvYield <= 0 {
		return Result{}, &DomainError{Reason: "computed zero PV output; invalid GHI"}
	}

	pvKW := (in.DailyLoadKWh * in.RenewablesFraction) / pvYield

	seasonality := median / worst
	if seasonality > seasonalityThreshold {
		pvKW *= seasonalityMargin
	}

	// Autonomy is specified in deliverable load, so installed capacity is
	// scaled by the effective usable fraction, not nameplate.
	battKWh := (in.DailyLoadKWh * in.AutonomyDays) / (as.BatteryDoD * as.BatteryRoundTrip)

	peakKW := in.DailyLoadKWh / (hoursPerDay * math.Max(minLoadFactor, in.LoadFactor))
	genKW := as.GeneratorSafetyFactor * peakKW
	// Generators are sold in discrete steps and under-sizing is unsafe, so
	// nameplate always rounds up.
	genNameplateKW := roundUpToStep(genKW, as.GeneratorStepKW)

	inverterKW := math.Max(peakKW, as.InverterPVFraction*pvKW)

	// Partial units are not purchasable.
	panelCount := int(math.Ceil(pvKW * 1000.0 / as.PanelWatts))
	batteryCount := int(math.Ceil(battKWh / as.BatteryUnitKWh))

	annualLoad := in.DailyLoadKWh * daysPerYear
	annualPV := pvKW * pvYield * daysPerYear
	servedPVBatt := math.Min(annualLoad, annualPV) * as.PVUtilization
	servedGen := math.Max(0, annualLoad-servedPVBatt)

	fuelLiters := servedGen * as.FuelLitersPerKWh
	fuelCost := fuelLiters * in.FuelCostPerLiter

	capexPV := pvKW * as.CostPVPerKW
	capexBatt := battKWh * as.CostBattPerKWh
	capexInv := inverterKW * as.CostInvPerKW
	capexGen := genNameplateKW * as.CostGenPerKW
	capexTotal := capexPV + capexBatt + capexInv + capexGen

	annualOM := pvKW*as.OMPVPerKWYr + battKWh*as.OMBattPerKWhYr + genNameplateKW*as.OMGenPerKWYr

	annualizedPV := capexPV * crf(as.DiscountRate, as.LifePVYears)
	annualizedBatt := capexBatt * crf(as.DiscountRate, as.LifeBattYears)
	annualizedInv := capexInv * crf(as.DiscountRate, as.LifeInvYears)
	annualizedGen := capexGen * crf(as.DiscountRate, as.LifeGenYears)

	totalAnnual := annualizedPV + annualizedBatt + annualizedInv + annualizedGen + annualOM + fuelCost

	lcoe := math.Inf(1)
	if annualLoad > 0 {
		lcoe = totalAnnual / annualLoad
	}

	d := derivation{
		in:          in,
		worst:       worst,
		seasonality: seasonality,
		peakKW:      peakKW,
		inverterKW:  inverterKW,
	}
	warnings := make([]string, 0, len(warningRules))
	for _, rule := range warningRules {
		if rule.applies(d) {
			warnings = append(warnings, rule.message)
		}
	}

	return Result{
		GHIWorst:        worst,
		GHIMedian:       median,
		PVYieldPerKWDay: pvYield,

		PVKW:           pvKW,
		BattKWh:        battKWh,
		InverterKW:     inverterKW,
		PeakKW:         peakKW,
		GenKW:          genKW,
		GenNameplateKW: genNameplateKW,
		PanelCount:     panelCount,
		BatteryCount:   batteryCount,

		AnnualLoadKWh:     annualLoad,
		AnnualPVEnergyKWh: annualPV,
		ServedByPVBattKWh: servedPVBatt,
		ServedByGenKWh:    servedGen,
		AnnualFuelLiters:  fuelLiters,
		AnnualFuelCost:    fuelCost,

		CapexPV:    capexPV,
		CapexBatt:  capexBatt,
		CapexInv:   capexInv,
		CapexGen:   capexGen,
		CapexTotal: capexTotal,

		AnnualOM:       annualOM,
		AnnualizedPV:   annualizedPV,
		AnnualizedBatt: annualizedBatt,
		AnnualizedInv:  annualizedInv,
		AnnualizedGen:  annualizedGen,

		TotalAnnualCost: totalAnnual,
		LCOE:            lcoe,

		Warnings: warnings,
	}, nil
}

// crf is the capital recovery factor: the uniform annual cost equivalent of
// one unit of capital over n years at rate r. Degenerates to straight-line
// 1/n when the rate is zero or negative.
func crf(rate float64, nYears int) float64 {
	n := float64(nYears)
	if rate <= 0 {
		return 1.0 / n
	}
	r1 := math.Pow(1+rate, n)
	return rate * r1 / (r1 - 1)
}

func roundUpToStep(x, step float64) float64 {
	return math.Ceil(x/step) * step
}
