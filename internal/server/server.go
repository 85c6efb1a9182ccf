// Package server exposes the simulation engine over HTTP as a single
// stateless endpoint; persistence and authentication live in front of it.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/nestplan/nestplan/internal/calculation"
	"github.com/nestplan/nestplan/internal/config"
	"github.com/nestplan/nestplan/internal/domain"
)

// Config is the server's runtime configuration, read from environment
// variables.
type Config struct {
	Address      string        `env:"NESTPLAN_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"NESTPLAN_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"NESTPLAN_WRITE_TIMEOUT" envDefault:"30s"`
}

// ConfigFromEnv parses the server configuration from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing server config: %w", err)
	}
	return cfg, nil
}

// SimulateResponse wraps an engine result with run metadata.
type SimulateResponse struct {
	RunID         string                   `json:"run_id"`
	CompletedInMs int64                    `json:"completed_in_ms"`
	Result        *domain.SimulationResult `json:"result"`
}

// ErrorResponse is the JSON error body for all failure modes.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Server handles simulate requests. It holds no per-request state; the
// engine is pure, so concurrent requests need no coordination.
type Server struct {
	cfg    Config
	engine *calculation.SimulationEngine
	parser *config.InputParser
}

// New creates a server around the given engine.
func New(cfg Config, engine *calculation.SimulationEngine) *Server {
	return &Server{
		cfg:    cfg,
		engine: engine,
		parser: config.NewInputParser(),
	}
}

// Handle routes one request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/v1/simulate":
		s.handleSimulate(ctx)
	case "/healthz":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleSimulate(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "use POST")
		return
	}

	var plan domain.PlanInput
	if err := json.Unmarshal(ctx.PostBody(), &plan); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.parser.ValidatePlan(&plan); err != nil {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
		return
	}

	started := time.Now()
	result, err := s.engine.Run(context.Background(), &plan)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, SimulateResponse{
		RunID:         uuid.NewString(),
		CompletedInMs: time.Since(started).Milliseconds(),
		Result:        result,
	})
}

// ListenAndServe blocks serving requests on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &fasthttp.Server{
		Handler:      s.Handle,
		Name:         "nestplan",
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	return srv.ListenAndServe(s.cfg.Address)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "encoding response: "+err.Error())
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	data, _ := json.Marshal(ErrorResponse{Status: status, Message: message})
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}
