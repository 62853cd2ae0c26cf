package domain

import (
	"fmt"
	"time"
)

// Stage is the current position of a request in the planning workflow.
type Stage string

const (
	StageStart       Stage = "start"
	StageResearching Stage = "researching"
	StagePlanning    Stage = "planning"
	StageAdvising    Stage = "advising"
	StageDone        Stage = "done"   // Sink state: plan available
	StageFailed      Stage = "failed" // Sink state: Failure is set
)

// Terminal reports whether the stage is a sink.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// transitions lists the legal edges of the workflow.
// Start may jump straight to Planning when a cached bundle exists for the session.
var transitions = map[Stage][]Stage{
	StageStart:       {StageResearching, StagePlanning},
	StageResearching: {StagePlanning, StageFailed},
	StagePlanning:    {StageAdvising, StageFailed},
	StageAdvising:    {StageDone, StageFailed},
}

// Stages lists every stage in workflow order.
var Stages = []Stage{StageStart, StageResearching, StagePlanning, StageAdvising, StageDone, StageFailed}

// Edges returns every legal transition, ordered by source stage.
func Edges() [][2]Stage {
	var out [][2]Stage
	for _, from := range Stages {
		for _, to := range transitions[from] {
			out = append(out, [2]Stage{from, to})
		}
	}
	return out
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Stage) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Failure records which stage failed and why.
type Failure struct {
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason"`
}

// State represents the transient snapshot of one planning request.
type State struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`

	Stage   Stage          `json:"stage"`
	Request TripRequest    `json:"request"`
	Bundle  *ContextBundle `json:"bundle,omitempty"`
	Plan    *TripPlan      `json:"plan,omitempty"`
	Failure *Failure       `json:"failure,omitempty"`

	// History tracks the path taken, starting with StageStart.
	History []Stage `json:"history"`

	// Warnings are non-fatal conditions the presentation layer should disclose
	// (degraded context, advice unavailable).
	Warnings []string `json:"warnings,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// NewState creates a clean state at StageStart.
func NewState(id, sessionID string, req TripRequest) *State {
	return &State{
		ID:        id,
		SessionID: sessionID,
		Stage:     StageStart,
		Request:   req,
		History:   []Stage{StageStart},
		StartedAt: time.Now(),
	}
}

// Advance moves the state along a legal edge.
func (s *State) Advance(to Stage) error {
	if s.Stage.Terminal() {
		return fmt.Errorf("state %s is terminal (%s)", s.ID, s.Stage)
	}
	if !CanTransition(s.Stage, to) {
		return fmt.Errorf("illegal transition %s -> %s", s.Stage, to)
	}
	s.Stage = to
	s.History = append(s.History, to)
	if to.Terminal() {
		s.FinishedAt = time.Now()
	}
	return nil
}

// Fail moves the state into StageFailed, recording the stage that failed.
func (s *State) Fail(reason string) error {
	failed := s.Stage
	if err := s.Advance(StageFailed); err != nil {
		return err
	}
	s.Failure = &Failure{Stage: failed, Reason: reason}
	// A failed run shows its failure instead of a plan.
	s.Plan = nil
	return nil
}

// Warn records a non-fatal condition.
func (s *State) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// Terminal reports whether the workflow has finished.
func (s *State) Terminal() bool {
	return s.Stage.Terminal()
}

// Degraded reports whether the plan was produced without gathered context.
func (s *State) Degraded() bool {
	return s.Bundle != nil && s.Bundle.Degraded
}
