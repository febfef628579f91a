package http

import (
	"math"

	"github.com/gridforge/microgrid-planner/sizing"
)

// planView is the display form of a sizing result. Every field is rounded to
// its documented precision here, on a copy; the full-precision sizing.Result
// is what all derived quantities were computed from, so display rounding can
// never compound into the numbers.
type planView struct {
	GHIWorst        float64 `json:"ghi_worst"`           // 2 decimals
	GHIMedian       float64 `json:"ghi_median"`          // 2 decimals
	PVYieldPerKWDay float64 `json:"pv_yield_per_kw_day"` // 3 decimals

	PVKW           float64 `json:"pv_kw"`            // 1 decimal
	BattKWh        float64 `json:"batt_kwh"`         // whole kWh
	InverterKW     float64 `json:"inverter_kw"`      // whole kW
	GenNameplateKW float64 `json:"gen_nameplate_kw"` // whole kW
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

	AnnualOM        float64 `json:"annual_om"`
	AnnualizedPV    float64 `json:"annualized_pv"`
	AnnualizedBatt  float64 `json:"annualized_batt"`
	AnnualizedInv   float64 `json:"annualized_inv"`
	AnnualizedGen   float64 `json:"annualized_gen"`
	TotalAnnualCost float64 `json:"total_annual_cost"`

	LCOE float64 `json:"lcoe"` // 2 decimals, USD/kWh

	Warnings []string `json:"warnings"`
}

func newPlanView(r sizing.Result) planView {
	return planView{
		GHIWorst:        roundTo(r.GHIWorst, 2),
		GHIMedian:       roundTo(r.GHIMedian, 2),
		PVYieldPerKWDay: roundTo(r.PVYieldPerKWDay, 3),

		PVKW:           roundTo(r.PVKW, 1),
		BattKWh:        roundTo(r.BattKWh, 0),
		InverterKW:     roundTo(r.InverterKW, 0),
		GenNameplateKW: roundTo(r.GenNameplateKW, 0),
		PanelCount:     r.PanelCount,
		BatteryCount:   r.BatteryCount,

		AnnualLoadKWh:     roundTo(r.AnnualLoadKWh, 0),
		AnnualPVEnergyKWh: roundTo(r.AnnualPVEnergyKWh, 0),
		ServedByPVBattKWh: roundTo(r.ServedByPVBattKWh, 0),
		ServedByGenKWh:    roundTo(r.ServedByGenKWh, 0),
		AnnualFuelLiters:  roundTo(r.AnnualFuelLiters, 0),
		AnnualFuelCost:    roundTo(r.AnnualFuelCost, 0),

		CapexPV:    roundTo(r.CapexPV, 0),
		CapexBatt:  roundTo(r.CapexBatt, 0),
		CapexInv:   roundTo(r.CapexInv, 0),
		CapexGen:   roundTo(r.CapexGen, 0),
		CapexTotal: roundTo(r.CapexTotal, 0),

		AnnualOM:        roundTo(r.AnnualOM, 0),
		AnnualizedPV:    roundTo(r.AnnualizedPV, 0),
		AnnualizedBatt:  roundTo(r.AnnualizedBatt, 0),
		AnnualizedInv:   roundTo(r.AnnualizedInv, 0),
		AnnualizedGen:   roundTo(r.AnnualizedGen, 0),
		TotalAnnualCost: roundTo(r.TotalAnnualCost, 0),

		LCOE: roundTo(r.LCOE, 2),

		Warnings: r.Warnings,
	}
}

func roundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
