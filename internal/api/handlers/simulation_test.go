package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/richard-sim/internal/models"
	"github.com/stitts-dev/richard-sim/internal/services"
	"github.com/stitts-dev/richard-sim/internal/simulation"
)

type fakeRunner struct {
	report   *services.RunReport
	err      error
	received services.RunRequest
}

func (f *fakeRunner) Run(_ context.Context, req services.RunRequest, progress simulation.ProgressFunc) (*services.RunReport, error) {
	f.received = req
	if progress != nil {
		progress(5, 10)
		progress(10, 10)
	}
	return f.report, f.err
}

type fakeRuns struct {
	runs []models.SimulationRun
}

func (f *fakeRuns) Get(_ context.Context, id uuid.UUID) (*models.SimulationRun, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, services.ErrRunNotFound
}

func (f *fakeRuns) List(_ context.Context, season string, limit int) ([]models.SimulationRun, int64, error) {
	var out []models.SimulationRun
	for _, r := range f.runs {
		if season == "" || r.Season == season {
			out = append(out, r)
		}
	}
	total := int64(len(out))
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sampleReport() *services.RunReport {
	tally := simulation.Tally{"Connor McDavid": 6, "Auston Matthews": 3, "tie-Connor McDavid-Auston Matthews": 1}
	return &services.RunReport{
		RunID:  uuid.New(),
		Season: "20232024",
		Result: &simulation.BatchResult{
			ScoreType:      simulation.ScoreGoals,
			NumSimulations: 10,
			Workers:        1,
			Seed:           1,
			Tally:          tally,
			Outcomes:       tally.Ranked(),
		},
	}
}

func setupRouter(runner SimulationRunner, runs RunReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSimulationHandler(runner, runs, quietLogger())

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/simulations", h.RunSimulation)
	api.GET("/simulations", h.ListSimulations)
	api.GET("/simulations/stream", h.StreamSimulation)
	api.GET("/simulations/:id", h.GetSimulation)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
	} `json:"meta"`
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestRunSimulation(t *testing.T) {
	runner := &fakeRunner{report: sampleReport()}
	router := setupRouter(runner, nil)

	body := `{"season":"20232024","score_type":"points","simulations":500,"seed":3,"top":2,"participation":{"8478402":0.9}}`
	w, env := doRequest(t, router, http.MethodPost, "/api/v1/simulations", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	assert.Equal(t, simulation.ScorePoints, runner.received.ScoreType)
	assert.Equal(t, 500, runner.received.Simulations)
	assert.Equal(t, int64(3), runner.received.Seed)
	assert.Equal(t, map[int]float64{8478402: 0.9}, runner.received.Participation)
	assert.Equal(t, "api", runner.received.Trigger)

	var report services.RunReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Result.Outcomes, 2)
	assert.Equal(t, "Connor McDavid", report.Result.Outcomes[0].Label)
	assert.Len(t, runner.report.Result.Outcomes, 3, "trimming leaves the stored report intact")
}

func TestRunSimulationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "malformed body", body: `{"simulations":`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "unknown score type", body: `{"score_type":"saves"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "bad season", body: `{"season":"2023"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "precondition", body: `{}`, err: fmt.Errorf("%w: player 1 has no historical games", simulation.ErrPrecondition), wantStatus: http.StatusUnprocessableEntity, wantCode: "UNPROCESSABLE"},
		{name: "breaker open", body: `{}`, err: fmt.Errorf("failed to load field: %w", gobreaker.ErrOpenState), wantStatus: http.StatusBadGateway, wantCode: "UPSTREAM_UNAVAILABLE"},
		{name: "internal", body: `{}`, err: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&fakeRunner{err: tt.err}, nil)

			w, env := doRequest(t, router, http.MethodPost, "/api/v1/simulations", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestGetSimulation(t *testing.T) {
	run := models.SimulationRun{ID: uuid.New(), Season: "20232024", ScoreType: "goals", Simulations: 100}
	router := setupRouter(&fakeRunner{}, &fakeRuns{runs: []models.SimulationRun{run}})

	w, env := doRequest(t, router, http.MethodGet, "/api/v1/simulations/"+run.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	var got models.SimulationRun
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, run.ID, got.ID)

	w, _ = doRequest(t, router, http.MethodGet, "/api/v1/simulations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, router, http.MethodGet, "/api/v1/simulations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSimulations(t *testing.T) {
	runs := &fakeRuns{runs: []models.SimulationRun{
		{ID: uuid.New(), Season: "20232024"},
		{ID: uuid.New(), Season: "20232024"},
		{ID: uuid.New(), Season: "20222023"},
	}}
	router := setupRouter(&fakeRunner{}, runs)

	w, env := doRequest(t, router, http.MethodGet, "/api/v1/simulations?season=20232024&limit=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(2), env.Meta.Total)
	assert.Equal(t, 1, env.Meta.Limit)

	var got []models.SimulationRun
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got, 1)

	w, _ = doRequest(t, router, http.MethodGet, "/api/v1/simulations?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func dialStream(t *testing.T, router http.Handler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/simulations/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestStreamSimulation(t *testing.T) {
	runner := &fakeRunner{report: sampleReport()}
	conn := dialStream(t, setupRouter(runner, nil))

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"simulations": 10, "top": 1}))

	var messages []StreamMessage
	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		messages = append(messages, msg)
		if msg.Type == "complete" || msg.Type == "error" {
			break
		}
	}

	require.Len(t, messages, 3)
	assert.Equal(t, "progress", messages[0].Type)
	assert.Equal(t, 5, messages[0].Completed)
	assert.Equal(t, 10, messages[0].Total)
	assert.Equal(t, "complete", messages[2].Type)
	require.NotNil(t, messages[2].Report)
	assert.Len(t, messages[2].Report.Result.Outcomes, 1)
	assert.Equal(t, 10, runner.received.Simulations)
}

func TestStreamSimulationPrecondition(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: empty roster", simulation.ErrPrecondition)}
	conn := dialStream(t, setupRouter(runner, nil))

	require.NoError(t, conn.WriteJSON(map[string]interface{}{}))

	var msg StreamMessage
	for {
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != "progress" {
			break
		}
	}
	assert.Equal(t, "error", msg.Type)
	require.NotNil(t, msg.Error)
	assert.Equal(t, "UNPROCESSABLE", msg.Error.Code)
}
