package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/richard-sim/internal/models"
	"github.com/stitts-dev/richard-sim/internal/services"
	"github.com/stitts-dev/richard-sim/internal/simulation"
	"github.com/stitts-dev/richard-sim/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SimulationRunner executes a simulation batch
type SimulationRunner interface {
	Run(ctx context.Context, req services.RunRequest, progress simulation.ProgressFunc) (*services.RunReport, error)
}

// RunReader reads persisted runs
type RunReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error)
	List(ctx context.Context, season string, limit int) ([]models.SimulationRun, int64, error)
}

type SimulationHandler struct {
	runner SimulationRunner
	runs   RunReader
	logger *logrus.Logger
}

// NewSimulationHandler creates the handler. runs may be nil when runs are not persisted.
func NewSimulationHandler(runner SimulationRunner, runs RunReader, logger *logrus.Logger) *SimulationHandler {
	return &SimulationHandler{
		runner: runner,
		runs:   runs,
		logger: logger,
	}
}

// SimulationRequest is the body of POST /simulations and the first websocket message
type SimulationRequest struct {
	Season        string               `json:"season" binding:"omitempty,len=8,numeric"`
	ScoreType     string               `json:"score_type" binding:"omitempty,oneof=goals assists points"`
	Simulations   int                  `json:"simulations" binding:"omitempty,min=1"`
	Workers       int                  `json:"workers" binding:"omitempty,min=1,max=64"`
	Seed          int64                `json:"seed"`
	Top           int                  `json:"top" binding:"omitempty,min=1"`
	Participation map[int]float64      `json:"participation"`
	Players       []models.RosterEntry `json:"players"`
}

func (r SimulationRequest) toRunRequest() (services.RunRequest, error) {
	req := services.RunRequest{
		Season:        r.Season,
		Simulations:   r.Simulations,
		Workers:       r.Workers,
		Seed:          r.Seed,
		Participation: r.Participation,
		Roster:        r.Players,
		Trigger:       "api",
	}
	if r.ScoreType != "" {
		st, err := simulation.ParseScoreType(r.ScoreType)
		if err != nil {
			return req, err
		}
		req.ScoreType = st
	}
	return req, nil
}

func trimOutcomes(report *services.RunReport, top int) *services.RunReport {
	if top <= 0 || top >= len(report.Result.Outcomes) {
		return report
	}
	result := *report.Result
	result.Outcomes = result.Outcomes[:top]
	return &services.RunReport{
		RunID:  report.RunID,
		Season: report.Season,
		Result: &result,
	}
}

func (h *SimulationHandler) sendRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, simulation.ErrPrecondition):
		utils.SendUnprocessable(c, "Simulation preconditions not met", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState):
		utils.SendUnavailable(c, "NHL API unavailable", err.Error())
	default:
		h.logger.WithError(err).Error("Simulation run failed")
		utils.SendInternalError(c, "Simulation failed: "+err.Error())
	}
}

// RunSimulation runs a batch and returns the ranked outcomes
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var body SimulationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	req, err := body.toRunRequest()
	if err != nil {
		utils.SendValidationError(c, "Invalid score type", err.Error())
		return
	}

	report, err := h.runner.Run(c.Request.Context(), req, nil)
	if err != nil {
		h.sendRunError(c, err)
		return
	}

	utils.SendCreated(c, trimOutcomes(report, body.Top))
}

// GetSimulation returns a persisted run
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	if h.runs == nil {
		utils.SendNotFound(c, "Simulation runs are not persisted")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid simulation ID", err.Error())
		return
	}

	run, err := h.runs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			utils.SendNotFound(c, "Simulation not found")
			return
		}
		utils.SendInternalError(c, "Failed to fetch simulation")
		return
	}

	utils.SendSuccess(c, run)
}

// ListSimulations returns recent runs, newest first
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	if h.runs == nil {
		utils.SendSuccessWithMeta(c, []models.SimulationRun{}, &utils.Meta{Limit: 0, Total: 0})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		utils.SendValidationError(c, "Invalid limit", "limit must be between 1 and 100")
		return
	}

	runs, total, err := h.runs.List(c.Request.Context(), c.Query("season"), limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to list simulations")
		return
	}

	utils.SendSuccessWithMeta(c, runs, &utils.Meta{Limit: limit, Total: total})
}

// StreamMessage is sent over the websocket stream
type StreamMessage struct {
	Type      string              `json:"type"` // "progress", "complete", "error"
	Completed int                 `json:"completed,omitempty"`
	Total     int                 `json:"total,omitempty"`
	Report    *services.RunReport `json:"report,omitempty"`
	Error     *utils.AppError     `json:"error,omitempty"`
}

// StreamSimulation upgrades to a websocket, reads one SimulationRequest, streams
// progress while the batch runs and closes after the final report
func (h *SimulationHandler) StreamSimulation(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	var mu sync.Mutex
	send := func(msg StreamMessage) {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.WithError(err).Debug("Failed to write stream message")
		}
	}

	var body SimulationRequest
	if err := conn.ReadJSON(&body); err != nil {
		send(StreamMessage{Type: "error", Error: utils.NewAppError(utils.ErrCodeValidation, "Invalid request", err.Error())})
		return
	}

	req, err := body.toRunRequest()
	if err != nil {
		send(StreamMessage{Type: "error", Error: utils.NewAppError(utils.ErrCodeValidation, "Invalid score type", err.Error())})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// a client close aborts the run
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	report, err := h.runner.Run(ctx, req, func(completed, total int) {
		send(StreamMessage{Type: "progress", Completed: completed, Total: total})
	})
	if err != nil {
		code := utils.ErrCodeInternal
		if errors.Is(err, simulation.ErrPrecondition) {
			code = utils.ErrCodeUnprocessable
		}
		send(StreamMessage{Type: "error", Error: utils.NewAppError(code, "Simulation failed", err.Error())})
		return
	}

	send(StreamMessage{Type: "complete", Report: trimOutcomes(report, body.Top)})

	mu.Lock()
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	mu.Unlock()
}
