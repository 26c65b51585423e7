package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/executor"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source=handler.go -destination=mocks/mock_checker.go -package=mocks

type Checker interface {
	Execute(ctx context.Context, req models.CheckRequest) (models.CheckResponse, error)
}

type HealthResponse struct {
	Status  string `json:"status" description:"Service status"`
	Version string `json:"version" description:"API version"`
}

type Handler struct {
	checker Checker
	version string
	logger  *zerolog.Logger
}

func NewHandler(checker Checker, version string, logger *zerolog.Logger) *Handler {
	if version == "" {
		version = "1.0.0"
	}
	return &Handler{
		checker: checker,
		version: version,
		logger:  logger,
	}
}

// POST /api/v1/check
// Body: CheckRequest
// Returns: CheckResponse
func (h *Handler) Check(req *restful.Request, resp *restful.Response) {
	var checkRequest models.CheckRequest
	if err := req.ReadEntity(&checkRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	h.execute(req.Request.Context(), resp, checkRequest)
}

// GET /api/v1/check/{name}?threshold=4&variants=true
func (h *Handler) CheckName(req *restful.Request, resp *restful.Response) {
	checkRequest := models.CheckRequest{
		Names: []string{req.PathParameter("name")},
	}

	if raw := req.QueryParameter("threshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil {
			middleware.HandleError(resp, err, http.StatusBadRequest)
			return
		}
		checkRequest.Threshold = &threshold
	}

	if raw := req.QueryParameter("categories"); raw != "" {
		checkRequest.Categories = strings.Split(raw, ",")
	}

	if raw := req.QueryParameter("variants"); raw != "" {
		variants, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.HandleError(resp, err, http.StatusBadRequest)
			return
		}
		checkRequest.Variants = variants
	}

	h.execute(req.Request.Context(), resp, checkRequest)
}

func (h *Handler) execute(ctx context.Context, resp *restful.Response, checkRequest models.CheckRequest) {
	h.logger.Info().
		Str("request_id", checkRequest.RequestID).
		Int("names", len(checkRequest.Names)).
		Bool("variants", checkRequest.Variants).
		Msg("Start check")

	checkResponse, err := h.checker.Execute(ctx, checkRequest)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, executor.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		middleware.HandleError(resp, err, status)
		return
	}

	h.logger.Info().
		Str("request_id", checkResponse.RequestID).
		Int("allowed", checkResponse.Summary.Allowed).
		Int("blocked", checkResponse.Summary.Blocked).
		Int("failed", checkResponse.Summary.Failed).
		Msg("Check complete")

	resp.WriteHeaderAndEntity(http.StatusOK, checkResponse)
}

// Health handler GET API /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}
