// Package handler provides HTTP handlers for the Wayfarer content API.
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/wayfarer/wayfarer/internal/api/models"
	"github.com/wayfarer/wayfarer/internal/api/response"
	"github.com/wayfarer/wayfarer/internal/featureflags"
	"github.com/wayfarer/wayfarer/internal/provider/resilience"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// DependencyCheck probes one backing service.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsConfig holds configuration for the OpsHandler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Checks run for readiness and status.
	Checks []DependencyCheck

	// Sources and Flags are optional.
	Sources *resilience.Registry
	Flags   *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. It fails when any dependency
// check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	failed := map[string]interface{}{}
	for _, s := range subsystems {
		if s.Status != models.HealthStatusOK {
			failed[s.Name] = *s.Detail
		}
	}
	if len(failed) > 0 {
		health.Status = models.HealthStatusFail
		health.Details = failed
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - dependency, catalog source and
// flag status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: h.runChecks(r.Context()),
		Sources:    []models.SourceStatus{},
	}

	for _, s := range status.Subsystems {
		if s.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusFail
		}
	}

	if h.cfg.Sources != nil {
		for _, src := range h.cfg.Sources.All() {
			ss := sourceStatus(src)
			if ss.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Sources = append(status.Sources, ss)
		}
	}

	if h.cfg.Flags != nil {
		status.Flags = make(map[string]any)
		for key, f := range h.cfg.Flags.GetAllFlags(r.Context()) {
			status.Flags[key] = f.Value
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, 0, len(h.cfg.Checks))
	for _, c := range h.cfg.Checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Check(checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
		if err != nil {
			msg := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &msg
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sourceStatus(src resilience.SourceHealth) models.SourceStatus {
	ss := models.SourceStatus{
		Source:       src.Name,
		Status:       models.HealthStatusFail,
		CircuitState: src.State.String(),
	}
	switch {
	case src.Healthy():
		ss.Status = models.HealthStatusOK
	case src.Degraded():
		ss.Status = models.HealthStatusDegraded
	}
	if src.LastSuccessAt != nil {
		t := models.Timestamp(*src.LastSuccessAt)
		ss.LastSuccessAt = &t
	}
	if src.LastFailureAt != nil {
		t := models.Timestamp(*src.LastFailureAt)
		ss.LastFailureAt = &t
	}
	if src.LastError != "" {
		msg := src.LastError
		ss.Message = &msg
	}
	return ss
}
