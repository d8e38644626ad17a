package handler

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"banreport/internal/domain"
	"banreport/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type RunHandler struct {
	runs    repository.RunRepository
	trigger func()
}

func NewRunHandler(runs repository.RunRepository, trigger func()) (*RunHandler, error) {
	if runs == nil {
		return nil, fmt.Errorf("run repository is required")
	}
	if trigger == nil {
		return nil, fmt.Errorf("trigger func is required")
	}
	return &RunHandler{runs: runs, trigger: trigger}, nil
}

func RegisterRunRoutes(router fiber.Router, runs repository.RunRepository, trigger func()) error {
	h, err := NewRunHandler(runs, trigger)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/runs", h.ListRuns)
	v1.Get("/runs/:id", h.GetRun)
	v1.Post("/runs", h.TriggerRun)

	return nil
}

type runResponse struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	TotalKeys       int       `json:"totalKeys"`
	Succeeded       int       `json:"succeeded"`
	Failed          int       `json:"failed"`
	StartedAt       time.Time `json:"startedAt"`
	DurationSeconds float64   `json:"durationSeconds"`
}

type runDetailResponse struct {
	runResponse
	Records []recordResponse `json:"records"`
}

type recordResponse struct {
	IP       string `json:"ip"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Provider string `json:"provider"`
	Status   string `json:"status"`
}

type listRunsResponse struct {
	Data []runResponse `json:"data"`
}

func (h *RunHandler) ListRuns(c *fiber.Ctx) error {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	stats, err := h.runs.List(c.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	response := listRunsResponse{Data: make([]runResponse, 0, len(stats))}
	for _, s := range stats {
		response.Data = append(response.Data, toRunResponse(s))
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	id := c.Params("id")

	stats, records, err := h.runs.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "run not found")
		}
		return fmt.Errorf("failed to load run: %w", err)
	}

	response := runDetailResponse{
		runResponse: toRunResponse(*stats),
		Records:     make([]recordResponse, 0, len(records)),
	}
	for _, record := range records {
		response.Records = append(response.Records, recordResponse{
			IP:       record.Key,
			Country:  record.Country,
			City:     record.City,
			Provider: record.Provider,
			Status:   record.Status.String(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *RunHandler) TriggerRun(c *fiber.Ctx) error {
	h.trigger()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
	})
}

func toRunResponse(stats domain.RunStats) runResponse {
	return runResponse{
		ID:              stats.RunID,
		Status:          stats.Status.String(),
		TotalKeys:       stats.TotalKeys,
		Succeeded:       stats.Succeeded,
		Failed:          stats.Failed,
		StartedAt:       stats.StartTime,
		DurationSeconds: stats.Duration.Seconds(),
	}
}
