package sizing

// Assumptions bundles the fixed engineering and financial constants used by a
// sizing run. Callers inject a value per call, so scenarios and tests can swap
// rates without touching shared state.
type Assumptions struct {
	// PV
	PerformanceRatio float64 `json:"performance_ratio"` // temp, wiring, dust, inverter losses
	PVUtilization    float64 `json:"pv_utilization"`    // fraction of PV energy actually serving load
	PanelWatts       float64 `json:"panel_watts"`       // W per module

	// Battery
	BatteryDoD       float64 `json:"battery_dod"`
	BatteryRoundTrip float64 `json:"battery_roundtrip"`
	BatteryUnitKWh   float64 `json:"battery_unit_kwh"`

	// Generator
	GeneratorSafetyFactor float64 `json:"generator_safety_factor"`
	GeneratorStepKW       float64 `json:"generator_step_kw"` // nameplate rounding step
	FuelLitersPerKWh      float64 `json:"fuel_liters_per_kwh"`

	// Inverter
	InverterPVFraction float64 `json:"inverter_pv_fraction"` // inverter kW at least this fraction of PV kW

	// CAPEX, USD per unit installed
	CostPVPerKW    float64 `json:"cost_pv_per_kw"`
	CostBattPerKWh float64 `json:"cost_batt_per_kwh"`
	CostInvPerKW   float64 `json:"cost_inv_per_kw"`
	CostGenPerKW   float64 `json:"cost_gen_per_kw"`

	// O&M, USD per unit per year. Inverters carry no O&M line in this model.
	OMPVPerKWYr    float64 `json:"om_pv_per_kw_yr"`
	OMBattPerKWhYr float64 `json:"om_batt_per_kwh_yr"`
	OMGenPerKWYr   float64 `json:"om_gen_per_kw_yr"`

	// Financials
	DiscountRate  float64 `json:"discount_rate"`
	LifePVYears   int     `json:"life_pv_years"`
	LifeBattYears int     `json:"life_batt_years"`
	LifeInvYears  int     `json:"life_inv_years"`
	LifeGenYears  int     `json:"life_gen_years"`
}

// Default returns the baseline assumption set: rough, remote-friendly cost
// rates and conservative equipment parameters.
func Default() Assumptions {
	return Assumptions{
		PerformanceRatio: 0.75,
		PVUtilization:    0.90,
		PanelWatts:       400,

		BatteryDoD:       0.90,
		BatteryRoundTrip: 0.90,
		BatteryUnitKWh:   5.0,

		GeneratorSafetyFactor: 1.25,
		GeneratorStepKW:       5.0,
		FuelLitersPerKWh:      0.27, // at ~70-80% load

		InverterPVFraction: 0.80,

		CostPVPerKW:    1200.0,
		CostBattPerKWh: 400.0,
		CostInvPerKW:   200.0,
		CostGenPerKW:   300.0,

		OMPVPerKWYr:    20.0,
		OMBattPerKWhYr: 5.0,
		OMGenPerKWYr:   20.0,

		DiscountRate:  0.08,
		LifePVYears:   20,
		LifeBattYears: 10,
		LifeInvYears:  10,
		LifeGenYears:  10,
	}
}
