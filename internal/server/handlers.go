package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lox/decksim/internal/deck"
	"github.com/lox/decksim/internal/hypergeom"
	"github.com/lox/decksim/internal/simulator"
	"github.com/lox/decksim/internal/statistics"
)

type hypergeometricRequest struct {
	DeckSize   int `json:"deck_size"`
	Copies     int `json:"copies"`
	CardsDrawn int `json:"cards_drawn"`
	Successes  int `json:"successes"`
}

type hypergeometricResponse struct {
	Exactly      float64         `json:"exactly"`
	AtLeast      float64         `json:"at_least"`
	AtMost       float64         `json:"at_most"`
	Distribution map[int]float64 `json:"distribution"`
	Mean         float64         `json:"mean"`
	StdDev       float64         `json:"std_dev"`
}

func (s *Server) handleHypergeometric(w http.ResponseWriter, r *http.Request) {
	var req hypergeometricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	res, err := hypergeom.Draw(req.DeckSize, req.Copies, req.CardsDrawn, req.Successes)
	if err != nil {
		writeCalcError(w, s, err)
		return
	}
	mean, _ := hypergeom.Mean(req.DeckSize, req.Copies, req.CardsDrawn)
	stdDev, _ := hypergeom.StdDev(req.DeckSize, req.Copies, req.CardsDrawn)

	writeJSON(w, http.StatusOK, hypergeometricResponse{
		Exactly:      res.Exactly,
		AtLeast:      res.AtLeast,
		AtMost:       res.AtMost,
		Distribution: res.Distribution,
		Mean:         mean,
		StdDev:       stdDev,
	})
}

type multivariateRequest struct {
	DeckSize   int   `json:"deck_size"`
	CardCounts []int `json:"card_counts"`
	CardsDrawn int   `json:"cards_drawn"`
	Successes  []int `json:"successes"`
}

func (s *Server) handleMultivariate(w http.ResponseWriter, r *http.Request) {
	var req multivariateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	p, err := hypergeom.Joint(req.DeckSize, req.CardCounts, req.CardsDrawn, req.Successes)
	if err != nil {
		writeCalcError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"probability": p})
}

type optimalCopiesRequest struct {
	DeckSize          int     `json:"deck_size"`
	CardsDrawn        int     `json:"cards_drawn"`
	TargetProbability float64 `json:"target_probability"`
}

func (s *Server) handleOptimalCopies(w http.ResponseWriter, r *http.Request) {
	var req optimalCopiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	res, err := hypergeom.OptimalCopies(req.DeckSize, req.CardsDrawn, req.TargetProbability)
	if err != nil {
		writeCalcError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"copies":             res.Copies,
		"actual_probability": res.Probability,
	})
}

type deckGroup struct {
	Name      string   `json:"name"`
	Count     int      `json:"count"`
	ManaValue int      `json:"mana_value,omitempty"`
	Types     []string `json:"types,omitempty"`
	Land      bool     `json:"land,omitempty"`
}

type criteriaRequest struct {
	MinLands *int     `json:"min_lands,omitempty"`
	MaxLands *int     `json:"max_lands,omitempty"`
	AnyOf    []string `json:"any_of,omitempty"`
	AllOf    []string `json:"all_of,omitempty"`
	NoneOf   []string `json:"none_of,omitempty"`
}

type simulationRequest struct {
	Deck        []deckGroup     `json:"deck"`
	Iterations  int             `json:"iterations"`
	MaxTurn     int             `json:"max_turn"`
	Criteria    criteriaRequest `json:"criteria"`
	UseMulligan bool            `json:"use_mulligan"`
	HandSize    int             `json:"hand_size,omitempty"`
	OnPlay      bool            `json:"on_play"`
	Seed        *int64          `json:"seed,omitempty"`
}

func (r simulationRequest) toSimulator() simulator.Request {
	comp := make(deck.Composition, 0, len(r.Deck))
	for _, g := range r.Deck {
		comp = append(comp, deck.Group{
			Card: deck.Card{
				Name:      g.Name,
				ManaValue: g.ManaValue,
				Types:     g.Types,
				Land:      g.Land,
			},
			Count: g.Count,
		})
	}
	return simulator.Request{
		Deck:       comp,
		Iterations: r.Iterations,
		MaxTurn:    r.MaxTurn,
		Criteria: simulator.Criteria{
			MinLands: r.Criteria.MinLands,
			MaxLands: r.Criteria.MaxLands,
			AnyOf:    r.Criteria.AnyOf,
			AllOf:    r.Criteria.AllOf,
			NoneOf:   r.Criteria.NoneOf,
		},
		UseMulligan: r.UseMulligan,
		HandSize:    r.HandSize,
		OnPlay:      r.OnPlay,
		Seed:        r.Seed,
	}
}

type intervalResponse struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type simulationResponse struct {
	Requested           int                `json:"requested"`
	Iterations          int                `json:"iterations"`
	Successes           int                `json:"successes"`
	SuccessPercentage   float64            `json:"success_percentage"`
	AverageTurn         *float64           `json:"average_turn"`
	TurnDistribution    map[int]int        `json:"turn_distribution"`
	CardFrequencyInWins map[string]float64 `json:"card_frequency_in_wins"`
	MulliganStats       map[int]int        `json:"mulligan_stats"`
	ConfidenceLevel     float64            `json:"confidence_level"`
	ConfidenceInterval  intervalResponse   `json:"confidence_interval"`
	Interrupted         bool               `json:"interrupted"`
	Seed                int64              `json:"seed"`
}

func newSimulationResponse(res simulator.Result) simulationResponse {
	return simulationResponse{
		Requested:           res.Requested,
		Iterations:          res.Iterations,
		Successes:           res.Successes,
		SuccessPercentage:   res.SuccessPercentage,
		AverageTurn:         res.AverageTurn,
		TurnDistribution:    res.TurnDistribution,
		CardFrequencyInWins: res.CardFrequencyInWins,
		MulliganStats:       res.MulliganStats,
		ConfidenceLevel:     res.ConfidenceLevel,
		ConfidenceInterval:  newIntervalResponse(res.ConfidenceInterval),
		Interrupted:         res.Interrupted,
		Seed:                res.Seed,
	}
}

func newIntervalResponse(i statistics.Interval) intervalResponse {
	return intervalResponse{Lower: i.Lower, Upper: i.Upper}
}

func (s *Server) handleSimulationRun(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	simReq := req.toSimulator()
	if simReq.Iterations > s.config.Simulation.MaxIterations {
		writeError(w, http.StatusBadRequest, "iterations exceed the server limit")
		return
	}

	res, err := s.sim.Run(r.Context(), simReq)
	if err != nil {
		writeCalcError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, newSimulationResponse(res))
}

// writeCalcError maps calculation errors onto HTTP statuses. Invalid input is
// the caller's fault; overflow is ours.
func writeCalcError(w http.ResponseWriter, s *Server, err error) {
	switch {
	case errors.Is(err, hypergeom.ErrInvalidParameter), errors.Is(err, simulator.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, hypergeom.ErrNumericOverflow):
		s.logger.Error("Calculation overflowed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
