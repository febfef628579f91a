package sizing

import "fmt"

// Months lists calendar month keys in the order the climatology API reports
// them and the order MonthlySeries stores them.
var Months = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// MonthlySeries holds twelve monthly mean GHI values in kWh/m²/day,
// January through December. Calendar order matters for seasonality.
type MonthlySeries [12]float64

// Validate checks that every month carries a positive irradiance value.
// A provider that cannot fill all twelve months must fail before
// constructing a series; a zero value here is malformed data, never a
// substitute default.
func (s MonthlySeries) Validate() error {
	for i, v := range s {
		if v <= 0 {
			return fmt.Errorf("month %s has non-positive GHI %g", Months[i], v)
		}
	}
	return nil
}

func (s MonthlySeries) values() []float64 {
	out := make([]float64, len(s))
	copy(out, s[:])
	return out
}
