// Package playback drives a scripted incident run. Transitions are pure:
// the sequencer maps a state and an event to the next state plus the
// effects the host has to carry out (timers, clipboard writes).
package playback

import (
	"time"

	"incidentdemo/internal/render"
	"incidentdemo/internal/scenario"
)

type Stage string

const (
	StageMonitoring Stage = "monitoring"
	StageAnalysis   Stage = "analysis"
	StageResponse   Stage = "response"
)

// Stages lists the stages in run order.
var Stages = [3]Stage{StageMonitoring, StageAnalysis, StageResponse}

// PlanDelay is the pause between the last card and the response plan.
const PlanDelay = 500 * time.Millisecond

// Delay is the simulated processing time of a stage.
func (s Stage) Delay() time.Duration {
	switch s {
	case StageMonitoring:
		return 1500 * time.Millisecond
	case StageAnalysis, StageResponse:
		return 1000 * time.Millisecond
	default:
		return 0
	}
}

func (s Stage) Label() string {
	switch s {
	case StageMonitoring:
		return "Monitoring"
	case StageAnalysis:
		return "Analysis"
	case StageResponse:
		return "Response"
	default:
		return string(s)
	}
}

type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "completed"
)

func (s StageStatus) Icon() string {
	switch s {
	case StageActive:
		return "●"
	case StageCompleted:
		return "✓"
	default:
		return "○"
	}
}

type Status string

const (
	StatusIdle       Status = "Idle"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
)

// Controls is which inputs the host should accept in a state.
type Controls struct {
	Select  bool
	Run     bool
	Reset   bool
	Spinner bool
}

// State is the whole observable playback state. Treat it as a value: the
// sequencer never mutates a state it was handed.
type State struct {
	Status   Status
	Selected *scenario.Record
	Preview  *render.Preview
	Stages   [3]StageStatus
	Cards    []render.Card
	Plan     *render.Plan

	// run counts started runs and step is the next timer step of the latest
	// one. selection counts preview changes the same way run counts cards.
	// copies numbers copy confirmations; it never goes back, so a revert
	// timer armed before a reset cannot match a button created after it.
	run       int
	step      int
	selection int
	copies    int
}

func initialState() State {
	return State{
		Status: StatusIdle,
		Stages: [3]StageStatus{StagePending, StagePending, StagePending},
	}
}

func (s State) Controls() Controls {
	return Controls{
		Select:  s.Status == StatusIdle,
		Run:     s.Status == StatusIdle && s.Selected != nil,
		Reset:   s.Status == StatusCompleted,
		Spinner: s.Status == StatusProcessing,
	}
}

func (s State) StageStatus(stage Stage) StageStatus {
	for idx, candidate := range Stages {
		if candidate == stage {
			return s.Stages[idx]
		}
	}
	return StagePending
}

// SelectedID is the id of the current scenario, or "" when none is selected.
func (s State) SelectedID() string {
	if s.Selected == nil {
		return ""
	}
	return s.Selected.ID
}

// Run is the generation of the latest started run.
func (s State) Run() int {
	return s.run
}
