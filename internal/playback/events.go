package playback

import "time"

// Event is an input to the sequencer.
type Event interface {
	event()
}

// Target addresses an interactive control: the input preview of a given
// selection, or a card of a given run.
type Target struct {
	Preview   bool
	Selection int
	Run       int
	Card      int
}

// PreviewTarget addresses the input preview copy button of the scenario
// currently selected in state.
func PreviewTarget(state State) Target {
	return Target{Preview: true, Selection: state.selection}
}

// CardTarget addresses card idx of the current run in state.
func CardTarget(state State, idx int) Target {
	return Target{Run: state.run, Card: idx}
}

type SelectScenario struct {
	ID string
}

type StartRun struct{}

// Elapsed reports that the timer for a run step fired.
type Elapsed struct {
	Run  int
	Step int
}

type Reset struct{}

type ToggleDetails struct {
	Target Target
}

type CopyRequested struct {
	Target Target
}

// CopyFinished carries the clipboard outcome back to the sequencer.
type CopyFinished struct {
	Target Target
	Err    error
}

type CopyExpired struct {
	Target Target
	Gen    int
}

func (SelectScenario) event() {}
func (StartRun) event()       {}
func (Elapsed) event()        {}
func (Reset) event()          {}
func (ToggleDetails) event()  {}
func (CopyRequested) event()  {}
func (CopyFinished) event()   {}
func (CopyExpired) event()    {}

// Effect is work the host performs on behalf of the sequencer.
type Effect interface {
	effect()
}

// Wait asks the host to deliver Then after Delay.
type Wait struct {
	Delay time.Duration
	Then  Event
}

type WriteClipboard struct {
	Target Target
	Text   string
}

type StatusChanged struct {
	From Status
	To   Status
}

type StageChanged struct {
	Stage  Stage
	Status StageStatus
}

func (Wait) effect()           {}
func (WriteClipboard) effect() {}
func (StatusChanged) effect()  {}
func (StageChanged) effect()   {}
