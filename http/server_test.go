package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/gridforge/microgrid-planner/config"
	"github.com/gridforge/microgrid-planner/power"
	"github.com/gridforge/microgrid-planner/sizing"
)

func testSeries() sizing.MonthlySeries {
	return sizing.MonthlySeries{4.0, 4.2, 4.5, 4.8, 5.0, 5.2, 5.0, 4.8, 4.5, 4.3, 4.1, 4.0}
}

type stubProvider struct {
	series sizing.MonthlySeries
	err    error
	calls  int
}

func (p *stubProvider) MonthlyGHI(ctx context.Context, lat, lon float64) (sizing.MonthlySeries, error) {
	p.calls++
	if p.err != nil {
		return sizing.MonthlySeries{}, p.err
	}
	return p.series, nil
}

type memCache struct {
	entries map[[2]float64]sizing.MonthlySeries
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[[2]float64]sizing.MonthlySeries)}
}

func (m *memCache) Lookup(ctx context.Context, latKey, lonKey float64) (*sizing.MonthlySeries, error) {
	if s, ok := m.entries[[2]float64{latKey, lonKey}]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *memCache) Save(ctx context.Context, latKey, lonKey float64, series sizing.MonthlySeries) error {
	m.entries[[2]float64{latKey, lonKey}] = series
	return nil
}

func testConfig() config.Config {
	return config.Config{Port: 8080, CacheCoordPrecision: 2}
}

func doGET(t *testing.T, srv *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

type planResponse struct {
	PlanID string        `json:"plan_id"`
	Inputs sizing.Inputs `json:"inputs"`
	Cached bool          `json:"cached"`
	Result planView      `json:"result"`
}

func TestHealthz(t *testing.T) {
	srv := New(testConfig(), &stubProvider{series: testSeries()}, nil)
	rec := doGET(t, srv, "/healthz")
	assert.Equal(t, rec.Code, http.StatusOK)
}

func TestPlanEndpoint(t *testing.T) {
	provider := &stubProvider{series: testSeries()}
	srv := New(testConfig(), provider, nil)

	rec := doGET(t, srv, "/api/v1/plan?lat=6.25&lon=-75.57&load=10")
	assert.Equal(t, rec.Code, http.StatusOK)

	var resp planResponse
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Assert(t, resp.PlanID != "")
	assert.Equal(t, resp.Cached, false)
	assert.Equal(t, provider.calls, 1)

	// defaults applied by the presentation layer
	assert.Equal(t, resp.Inputs.FuelCostPerLiter, 1.20)
	assert.Equal(t, resp.Inputs.RenewablesFraction, 0.80)
	assert.Equal(t, resp.Inputs.AutonomyDays, 1.0)
	assert.Equal(t, resp.Inputs.LoadFactor, 0.60)

	// display values for the worked baseline scenario
	assert.Equal(t, resp.Result.GHIWorst, 4.0)
	assert.Equal(t, resp.Result.PVYieldPerKWDay, 3.0)
	assert.Equal(t, resp.Result.PVKW, 2.7)
	assert.Equal(t, resp.Result.BattKWh, 12.0)
	assert.Equal(t, resp.Result.GenNameplateKW, 5.0)
	assert.Equal(t, resp.Result.PanelCount, 7)
	assert.Equal(t, resp.Result.BatteryCount, 3)
}

func TestPlanValidation(t *testing.T) {
	srv := New(testConfig(), &stubProvider{series: testSeries()}, nil)

	cases := []struct {
		name string
		url  string
	}{
		{"missing lat", "/api/v1/plan?lon=-75.57&load=10"},
		{"missing load", "/api/v1/plan?lat=6.25&lon=-75.57"},
		{"lat out of range", "/api/v1/plan?lat=95&lon=-75.57&load=10"},
		{"lon out of range", "/api/v1/plan?lat=6.25&lon=181&load=10"},
		{"zero load", "/api/v1/plan?lat=6.25&lon=-75.57&load=0"},
		{"bad number", "/api/v1/plan?lat=abc&lon=-75.57&load=10"},
		{"target above one", "/api/v1/plan?lat=6.25&lon=-75.57&load=10&renewables_target=1.5"},
		{"negative fuel", "/api/v1/plan?lat=6.25&lon=-75.57&load=10&fuel_cost=-1"},
		{"load factor zero", "/api/v1/plan?lat=6.25&lon=-75.57&load=10&load_factor=0"},
	}

	for _, tc := range cases {
		rec := doGET(t, srv, tc.url)
		assert.Equal(t, rec.Code, http.StatusBadRequest, tc.name)
	}
}

func TestPlanUpstreamErrorMapping(t *testing.T) {
	transport := &stubProvider{err: &power.TransportError{Err: errors.New("dial timeout")}}
	srv := New(testConfig(), transport, nil)
	rec := doGET(t, srv, "/api/v1/plan?lat=6.25&lon=-75.57&load=10")
	assert.Equal(t, rec.Code, http.StatusGatewayTimeout)

	malformed := &stubProvider{err: &power.DataError{Reason: "missing month JUL"}}
	srv = New(testConfig(), malformed, nil)
	rec = doGET(t, srv, "/api/v1/plan?lat=6.25&lon=-75.57&load=10")
	assert.Equal(t, rec.Code, http.StatusBadGateway)
}

func TestPlanUsesCache(t *testing.T) {
	provider := &stubProvider{series: testSeries()}
	cache := newMemCache()
	srv := New(testConfig(), provider, cache)

	rec := doGET(t, srv, "/api/v1/plan?lat=6.251&lon=-75.569&load=10")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, provider.calls, 1)

	// same rounded cache key: served from the memo, provider not re-hit
	rec = doGET(t, srv, "/api/v1/plan?lat=6.249&lon=-75.571&load=25")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, provider.calls, 1)

	var resp planResponse
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, resp.Cached, true)
}

func TestBearerAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "sesame"
	srv := New(cfg, &stubProvider{series: testSeries()}, nil)

	rec := doGET(t, srv, "/api/v1/plan?lat=6.25&lon=-75.57&load=10")
	assert.Equal(t, rec.Code, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plan?lat=6.25&lon=-75.57&load=10", nil)
	req.Header.Set("Authorization", "Bearer sesame")
	auth := httptest.NewRecorder()
	srv.Engine().ServeHTTP(auth, req)
	assert.Equal(t, auth.Code, http.StatusOK)

	// health stays open
	rec = doGET(t, srv, "/healthz")
	assert.Equal(t, rec.Code, http.StatusOK)
}

func TestAssumptionsEndpoint(t *testing.T) {
	srv := New(testConfig(), &stubProvider{series: testSeries()}, nil)
	rec := doGET(t, srv, "/api/v1/assumptions")
	assert.Equal(t, rec.Code, http.StatusOK)

	var resp struct {
		Assumptions sizing.Assumptions `json:"assumptions"`
	}
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, resp.Assumptions, sizing.Default())
}

// Display rounding is applied to a copy of the full-precision result; the
// rounded view must never feed back into derived quantities.
func TestDisplayRoundingDoesNotCompound(t *testing.T) {
	in := sizing.Inputs{
		Latitude:           6.25,
		Longitude:          -75.57,
		DailyLoadKWh:       10,
		FuelCostPerLiter:   1.20,
		RenewablesFraction: 0.80,
		AutonomyDays:       1.0,
		LoadFactor:         0.60,
	}

	r, err := sizing.Size(in, testSeries(), sizing.Default())
	assert.NilError(t, err)

	view := newPlanView(r)

	// LCOE in the view is the rounded full-precision ratio, not a ratio of
	// rounded numbers.
	assert.Equal(t, view.LCOE, roundTo(r.TotalAnnualCost/r.AnnualLoadKWh, 2))

	// Capex total is rounded from the unrounded component sum.
	assert.Equal(t, view.CapexTotal, roundTo(r.CapexPV+r.CapexBatt+r.CapexInv+r.CapexGen, 0))

	// The underlying result is left untouched by building a view.
	assert.Assert(t, math.Abs(r.PVKW-8.0/3.0) < 1e-9)
}
