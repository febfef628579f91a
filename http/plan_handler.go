package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gridforge/microgrid-planner/power"
	"github.com/gridforge/microgrid-planner/sizing"
)

// Defaults applied when optional query parameters are absent, matching the
// baseline planning scenario (80% renewables village with one day autonomy).
const (
	defaultFuelCost     = 1.20
	defaultTarget       = 0.80
	defaultAutonomyDays = 1.0
	defaultLoadFactor   = 0.60
)

const planTimeout = 20 * time.Second

// handlePlan runs one full planning call: validate inputs, resolve the
// irradiance climatology (cache first, then live fetch), size the system and
// return the display view.
// GET /api/v1/plan?lat=..&lon=..&load=..[&fuel_cost=..&renewables_target=..&autonomy_days=..&load_factor=..]
func (s *Server) handlePlan(c *gin.Context) {
	in, err := parsePlanQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), planTimeout)
	defer cancel()

	latKey := roundCoord(in.Latitude, s.cfg.CacheCoordPrecision)
	lonKey := roundCoord(in.Longitude, s.cfg.CacheCoordPrecision)

	series, cached := s.cachedSeries(ctx, latKey, lonKey)
	if series == nil {
		fetched, err := s.provider.MonthlyGHI(ctx, in.Latitude, in.Longitude)
		if err != nil {
			c.JSON(upstreamStatus(err), gin.H{"error": err.Error()})
			return
		}
		series = &fetched
		s.saveSeries(ctx, latKey, lonKey, fetched)
	}

	result, err := sizing.Size(in, *series, sizing.Default())
	if err != nil {
		var de *sizing.DomainError
		if errors.As(err, &de) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_id": uuid.NewString(),
		"inputs":  in,
		"cached":  cached,
		"result":  newPlanView(result),
	})
}

// cachedSeries consults the memo store, if any. Cache failures are logged and
// treated as misses; the cache is never load-bearing.
func (s *Server) cachedSeries(ctx context.Context, latKey, lonKey float64) (*sizing.MonthlySeries, bool) {
	if s.cache == nil {
		return nil, false
	}
	series, err := s.cache.Lookup(ctx, latKey, lonKey)
	if err != nil {
		log.Printf("irradiance cache lookup failed (lat=%g lon=%g): %v", latKey, lonKey, err)
		return nil, false
	}
	return series, series != nil
}

func (s *Server) saveSeries(ctx context.Context, latKey, lonKey float64, series sizing.MonthlySeries) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, latKey, lonKey, series); err != nil {
		log.Printf("irradiance cache save failed (lat=%g lon=%g): %v", latKey, lonKey, err)
	}
}

// upstreamStatus maps provider failures: transport problems are retryable and
// surface as 504, malformed upstream data is terminal and surfaces as 502.
func upstreamStatus(err error) int {
	var te *power.TransportError
	if errors.As(err, &te) {
		return http.StatusGatewayTimeout
	}
	var de *power.DataError
	if errors.As(err, &de) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// parsePlanQuery owns string parsing, range validation and defaulting; the
// engine only ever sees validated scalars.
func parsePlanQuery(c *gin.Context) (sizing.Inputs, error) {
	in := sizing.Inputs{
		FuelCostPerLiter:   defaultFuelCost,
		RenewablesFraction: defaultTarget,
		AutonomyDays:       defaultAutonomyDays,
		LoadFactor:         defaultLoadFactor,
	}

	lat, err := requiredFloat(c, "lat")
	if err != nil {
		return in, err
	}
	if lat < -90 || lat > 90 {
		return in, errors.New("lat must be between -90 and 90")
	}
	in.Latitude = lat

	lon, err := requiredFloat(c, "lon")
	if err != nil {
		return in, err
	}
	if lon < -180 || lon > 180 {
		return in, errors.New("lon must be between -180 and 180")
	}
	in.Longitude = lon

	load, err := requiredFloat(c, "load")
	if err != nil {
		return in, err
	}
	if load <= 0 {
		return in, errors.New("load must be greater than 0")
	}
	in.DailyLoadKWh = load

	if v, ok, err := optionalFloat(c, "fuel_cost"); err != nil {
		return in, err
	} else if ok {
		if v < 0 {
			return in, errors.New("fuel_cost must be ≥ 0")
		}
		in.FuelCostPerLiter = v
	}

	if v, ok, err := optionalFloat(c, "renewables_target"); err != nil {
		return in, err
	} else if ok {
		if v <= 0 || v > 1 {
			return in, errors.New("renewables_target must be in (0, 1]")
		}
		in.RenewablesFraction = v
	}

	if v, ok, err := optionalFloat(c, "autonomy_days"); err != nil {
		return in, err
	} else if ok {
		if v < 0 {
			return in, errors.New("autonomy_days must be ≥ 0")
		}
		in.AutonomyDays = v
	}

	if v, ok, err := optionalFloat(c, "load_factor"); err != nil {
		return in, err
	} else if ok {
		if v <= 0 || v > 1 {
			return in, errors.New("load_factor must be in (0, 1]")
		}
		in.LoadFactor = v
	}

	return in, nil
}

func requiredFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s", name)
	}
	return v, nil
}

func optionalFloat(c *gin.Context, name string) (float64, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid number for %s", name)
	}
	return v, true, nil
}

func roundCoord(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}
