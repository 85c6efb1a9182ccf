package server

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/nestplan/nestplan/internal/calculation"
	"github.com/nestplan/nestplan/internal/domain"
)

func testServer() *Server {
	return New(Config{Address: ":0"}, calculation.NewSimulationEngine())
}

func testPlanBody(t *testing.T) []byte {
	t.Helper()
	endAge := 40
	birth := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	plan := domain.PlanInput{
		Household: domain.Household{
			Accounts: []domain.Account{
				{ID: "savings", Name: "Savings", Balance: decimal.NewFromInt(50000), AnnualReturnPercent: decimal.NewFromInt(4)},
			},
			Dependents: []domain.Dependent{
				{ID: "me", Name: "Alex", Role: domain.RoleSelf, BirthDate: &birth},
			},
			InflationRatePercent: decimal.NewFromInt(2),
		},
		Parameters: domain.SimulationParameters{
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndAge:    &endAge,
		},
	}
	body, err := json.Marshal(plan)
	require.NoError(t, err)
	return body
}

func doRequest(s *Server, method, path string, body []byte) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	s.Handle(ctx)
	return ctx
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
}

func TestConfigFromEnvOverride(t *testing.T) {
	t.Setenv("NESTPLAN_ADDR", ":9999")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Address)
}

func TestHealthz(t *testing.T) {
	ctx := doRequest(testServer(), fasthttp.MethodGet, "/healthz", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "ok", string(ctx.Response.Body()))
}

func TestUnknownPath(t *testing.T) {
	ctx := doRequest(testServer(), fasthttp.MethodGet, "/nope", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestSimulateRejectsGet(t *testing.T) {
	ctx := doRequest(testServer(), fasthttp.MethodGet, "/v1/simulate", nil)
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
}

func TestSimulateRejectsMalformedBody(t *testing.T) {
	ctx := doRequest(testServer(), fasthttp.MethodPost, "/v1/simulate", []byte("{not json"))
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &errResp))
	assert.Equal(t, fasthttp.StatusBadRequest, errResp.Status)
	assert.Contains(t, errResp.Message, "invalid request body")
}

func TestSimulateRejectsInvalidPlan(t *testing.T) {
	// Valid JSON but no start date, so validation must fail.
	ctx := doRequest(testServer(), fasthttp.MethodPost, "/v1/simulate", []byte(`{"household":{},"parameters":{}}`))
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
}

func TestSimulateRunsPlan(t *testing.T) {
	ctx := doRequest(testServer(), fasthttp.MethodPost, "/v1/simulate", testPlanBody(t))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.NotEmpty(t, resp.RunID)
	require.NotNil(t, resp.Result)
	assert.NotEmpty(t, resp.Result.Timeline)
	assert.True(t, resp.Result.Summary.FinalBalance.GreaterThan(decimal.NewFromInt(50000)))
}
