package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	config := DefaultConfig()
	config.Server.RateLimit = 1000
	config.Server.RateBurst = 1000
	return NewServer(config, log.New(io.Discard))
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func testDeck() []deckGroup {
	return []deckGroup{
		{Name: "Mountain", Count: 24, Land: true},
		{Name: "Lightning Bolt", Count: 4, ManaValue: 1},
		{Name: "Fireblast", Count: 32, ManaValue: 6},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHypergeometric(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.Handler(), "/probability/hypergeometric", hypergeometricRequest{
		DeckSize:   60,
		Copies:     4,
		CardsDrawn: 7,
		Successes:  1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res hypergeometricResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 0.39950, res.AtLeast, 1e-4)
	assert.InDelta(t, 0.33628, res.Exactly, 1e-4)
	assert.Len(t, res.Distribution, 5)
	assert.InDelta(t, 4.0/60*7, res.Mean, 1e-9)
}

func TestHypergeometric_InvalidParameters(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.Handler(), "/probability/hypergeometric", hypergeometricRequest{
		DeckSize:   10,
		Copies:     20,
		CardsDrawn: 5,
		Successes:  1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestHypergeometric_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/probability/hypergeometric", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMultivariate(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.Handler(), "/probability/multivariate", multivariateRequest{
		DeckSize:   60,
		CardCounts: []int{24, 4},
		CardsDrawn: 7,
		Successes:  []int{2, 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	p := res["probability"]
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 1.0)
}

func TestOptimalCopies(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.Handler(), "/probability/optimal-copies", optimalCopiesRequest{
		DeckSize:          60,
		CardsDrawn:        7,
		TargetProbability: 0.39,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Copies      int     `json:"copies"`
		Probability float64 `json:"actual_probability"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 4, res.Copies)
	assert.GreaterOrEqual(t, res.Probability, 0.39)
}

func TestSimulationRun(t *testing.T) {
	s := newTestServer(t)
	seed := int64(42)
	body := simulationRequest{
		Deck:       testDeck(),
		Iterations: 2000,
		MaxTurn:    2,
		Criteria:   criteriaRequest{AnyOf: []string{"Lightning Bolt"}},
		OnPlay:     true,
		Seed:       &seed,
	}
	rec := postJSON(t, s.Handler(), "/simulation/run", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var res simulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2000, res.Iterations)
	assert.False(t, res.Interrupted)
	assert.Equal(t, seed, res.Seed)
	assert.Greater(t, res.SuccessPercentage, 0.0)
	assert.Equal(t, 0.95, res.ConfidenceLevel)

	// Same seed, same body.
	again := postJSON(t, s.Handler(), "/simulation/run", body)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, rec.Body.String(), again.Body.String())
}

func TestSimulationRun_UnknownCard(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.Handler(), "/simulation/run", simulationRequest{
		Deck:       testDeck(),
		Iterations: 100,
		MaxTurn:    1,
		Criteria:   criteriaRequest{AnyOf: []string{"Black Lotus"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulationRun_IterationLimit(t *testing.T) {
	config := DefaultConfig()
	config.Server.RateLimit = 1000
	config.Server.RateBurst = 1000
	config.Simulation.MaxIterations = 500
	s := NewServer(config, log.New(io.Discard))

	rec := postJSON(t, s.Handler(), "/simulation/run", simulationRequest{
		Deck:       testDeck(),
		Iterations: 1000,
		MaxTurn:    1,
		Criteria:   criteriaRequest{AnyOf: []string{"Lightning Bolt"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "server limit")
}

func TestSimulationRun_RateLimited(t *testing.T) {
	config := DefaultConfig()
	config.Server.RateLimit = 0.001
	config.Server.RateBurst = 1
	s := NewServer(config, log.New(io.Discard))

	body := simulationRequest{
		Deck:       testDeck(),
		Iterations: 100,
		MaxTurn:    1,
		Criteria:   criteriaRequest{AnyOf: []string{"Lightning Bolt"}},
	}
	first := postJSON(t, s.Handler(), "/simulation/run", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, s.Handler(), "/simulation/run", body)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestSimulationWatch(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/simulation/watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	seed := int64(7)
	require.NoError(t, conn.WriteJSON(simulationRequest{
		Deck:       testDeck(),
		Iterations: 5000,
		MaxTurn:    2,
		Criteria:   criteriaRequest{AnyOf: []string{"Lightning Bolt"}},
		OnPlay:     true,
		Seed:       &seed,
	}))

	deadline := time.Now().Add(30 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var frame watchFrame
		require.NoError(t, conn.ReadJSON(&frame))

		switch frame.Type {
		case "progress":
			assert.LessOrEqual(t, frame.Successes, frame.Completed)
		case "result":
			require.NotNil(t, frame.Result)
			assert.Equal(t, 5000, frame.Result.Iterations)
			assert.False(t, frame.Result.Interrupted)
			return
		default:
			t.Fatalf("unexpected frame type %q", frame.Type)
		}
	}
}

func TestSimulationWatch_MalformedRequest(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/simulation/watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var frame watchFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
}
