package playback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"incidentdemo/internal/render"
	"incidentdemo/internal/scenario"
)

const fixture = `{
  "scenarios": [
    {
      "id": "s1",
      "name": "Checkout latency",
      "input": {"service": "checkout"},
      "monitoringOutput": {"agentType": "monitoring", "agentName": "Monitor", "status": "success", "timestamp": "2024-03-11T14:02:05Z", "reasoning": "spike", "confidence": 0.95},
      "analysisOutput": {"agentType": "analysis", "agentName": "Analyst", "status": "success", "timestamp": "2024-03-11T14:02:07Z", "reasoning": "pool", "confidence": 0.7},
      "responseOutput": {
        "agentType": "response", "agentName": "Responder", "status": "success", "timestamp": "2024-03-11T14:02:09Z", "reasoning": "restart", "confidence": 0.5,
        "data": {
          "severity": "high",
          "summary": "Pool exhausted.",
          "actionPlan": {"priority1": [{"action": "Restart service"}], "priority2": [], "priority3": []},
          "humanInTheLoop": {"required": false, "action": "Rollback"}
        }
      }
    },
    {
      "id": "s2",
      "name": "Disk pressure",
      "input": {"host": "log-07"},
      "monitoringOutput": {"agentType": "monitoring", "agentName": "Monitor", "status": "success", "confidence": 0.81},
      "analysisOutput": {"agentType": "analysis", "agentName": "Analyst", "status": "success", "confidence": 0.6},
      "responseOutput": {"agentType": "response", "agentName": "Responder", "status": "success", "confidence": 0.59, "data": {"severity": "low"}}
    }
  ]
}`

type call struct {
	kind  string
	agent string
}

type recordingRenderer struct {
	calls []call
	plans []scenario.ResponsePlan
}

func (r *recordingRenderer) Card(output scenario.AgentOutput) render.Card {
	r.calls = append(r.calls, call{kind: "card", agent: output.AgentType})
	return render.RenderCard(output, time.UTC)
}

func (r *recordingRenderer) Plan(plan scenario.ResponsePlan, now time.Time) render.Plan {
	r.calls = append(r.calls, call{kind: "plan"})
	r.plans = append(r.plans, plan)
	return render.RenderPlan(plan, now, time.UTC)
}

func newSequencer(t *testing.T, renderer Renderer) *Sequencer {
	t.Helper()
	store, err := scenario.Parse([]byte(fixture), scenario.FormatJSON)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	clock := func() time.Time { return time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC) }
	return New(store, renderer, WithClock(clock))
}

// drive feeds Wait effects back until the run is no longer processing and
// returns the delays that were requested.
func drive(t *testing.T, seq *Sequencer, state State, effects []Effect) (State, []time.Duration) {
	t.Helper()
	var delays []time.Duration
	for guard := 0; state.Status == StatusProcessing; guard++ {
		if guard > 10 {
			t.Fatalf("run did not complete")
		}
		wait, ok := nextWait(effects)
		if !ok {
			t.Fatalf("processing state without a pending step timer")
		}
		delays = append(delays, wait.Delay)
		state, effects = seq.Apply(state, wait.Then)
	}
	return state, delays
}

func TestRunRendersStagesInOrder(t *testing.T) {
	recorder := &recordingRenderer{}
	seq := newSequencer(t, recorder)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	if !state.Controls().Run {
		t.Fatalf("run should be enabled after selecting a scenario")
	}

	state, effects := seq.Apply(state, StartRun{})
	if state.Status != StatusProcessing {
		t.Fatalf("expected processing, got %s", state.Status)
	}
	if c := state.Controls(); c.Run || c.Select || c.Reset || !c.Spinner {
		t.Fatalf("unexpected controls while processing: %+v", c)
	}
	if state.StageStatus(StageMonitoring) != StageActive {
		t.Fatalf("monitoring should be active first")
	}

	state, delays := drive(t, seq, state, effects)
	wantDelays := []time.Duration{1500 * time.Millisecond, time.Second, time.Second, 500 * time.Millisecond}
	if diff := cmp.Diff(wantDelays, delays); diff != "" {
		t.Fatalf("unexpected delays (-want +got):\n%s", diff)
	}
	wantCalls := []call{
		{kind: "card", agent: "monitoring"},
		{kind: "card", agent: "analysis"},
		{kind: "card", agent: "response"},
		{kind: "plan"},
	}
	if diff := cmp.Diff(wantCalls, recorder.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("unexpected renderer calls (-want +got):\n%s", diff)
	}
	if recorder.plans[0].Severity != "high" {
		t.Fatalf("plan renderer must receive the response stage plan")
	}
	if state.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", state.Status)
	}
	for _, stage := range Stages {
		if state.StageStatus(stage) != StageCompleted {
			t.Fatalf("stage %s should be completed", stage)
		}
	}
	if c := state.Controls(); c.Run || c.Select || !c.Reset || c.Spinner {
		t.Fatalf("unexpected controls after completion: %+v", c)
	}
}

func TestSelectedScenarioRunsToExpectedPlan(t *testing.T) {
	seq := newSequencer(t, render.Renderer{Location: time.UTC})
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	state, effects := seq.Apply(state, StartRun{})
	state, _ = drive(t, seq, state, effects)

	if state.Plan == nil {
		t.Fatalf("expected a rendered plan")
	}
	if len(state.Plan.Actions) != 1 {
		t.Fatalf("expected exactly one action group, got %d", len(state.Plan.Actions))
	}
	group := state.Plan.Actions[0]
	if group.Priority != 1 || group.Label != "Immediate" {
		t.Fatalf("unexpected group %+v", group)
	}
	if diff := cmp.Diff([]string{"Restart service"}, group.Items); diff != "" {
		t.Fatalf("unexpected items:\n%s", diff)
	}
	if state.Plan.Severity != "HIGH" {
		t.Fatalf("expected severity badge HIGH, got %q", state.Plan.Severity)
	}
	if state.Plan.HumanLoop != nil {
		t.Fatalf("human loop must be omitted when not required")
	}
	if state.Cards[0].Band != render.BandHigh {
		t.Fatalf("monitoring card should be styled high, got %s", state.Cards[0].Band)
	}
	if state.Plan.RenderedAt != "2024-03-11 15:00:00" {
		t.Fatalf("plan header should use the render clock, got %q", state.Plan.RenderedAt)
	}
}

func TestRunWithoutSelectionIsNoop(t *testing.T) {
	seq := newSequencer(t, nil)
	initial := seq.Initial()
	state, effects := seq.Apply(initial, StartRun{})
	if len(effects) != 0 || state.Status != StatusIdle {
		t.Fatalf("run without a selection must do nothing")
	}

	state, _ = seq.Apply(initial, SelectScenario{ID: "missing"})
	if state.Selected != nil || state.Preview != nil || state.Controls().Run {
		t.Fatalf("unknown id must clear the selection and disable run")
	}
	state, _ = seq.Apply(state, SelectScenario{ID: "s2"})
	state, _ = seq.Apply(state, SelectScenario{ID: ""})
	if state.Selected != nil || state.Controls().Run {
		t.Fatalf("empty id must clear the selection")
	}
}

func TestSelectShowsInputPreview(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	if state.Preview == nil || state.Preview.Text != "{\n  \"service\": \"checkout\"\n}" {
		t.Fatalf("unexpected preview %+v", state.Preview)
	}
	if state.SelectedID() != "s1" {
		t.Fatalf("unexpected selected id %q", state.SelectedID())
	}
}

func TestStaleAndOutOfOrderStepsAreIgnored(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	state, _ = seq.Apply(state, StartRun{})

	skipped, effects := seq.Apply(state, Elapsed{Run: state.Run(), Step: 2})
	if len(effects) != 0 || len(skipped.Cards) != 0 {
		t.Fatalf("out-of-order step must be ignored")
	}
	stale, effects := seq.Apply(state, Elapsed{Run: state.Run() - 1, Step: 0})
	if len(effects) != 0 || len(stale.Cards) != 0 {
		t.Fatalf("step from an older run must be ignored")
	}
}

func TestProcessingIgnoresResetAndSelection(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	state, effects := seq.Apply(state, StartRun{})
	state, effects = seq.Apply(state, effects[len(effects)-1].(Wait).Then)

	afterReset, resetEffects := seq.Apply(state, Reset{})
	if len(resetEffects) != 0 || afterReset.Status != StatusProcessing || len(afterReset.Cards) != 1 {
		t.Fatalf("reset must not cancel a run in progress")
	}
	afterSelect, _ := seq.Apply(state, SelectScenario{ID: "s2"})
	if afterSelect.SelectedID() != "s1" {
		t.Fatalf("selection must be locked while processing")
	}
	if again, more := seq.Apply(state, StartRun{}); len(more) != 0 || again.Run() != state.Run() {
		t.Fatalf("a second run must not start while processing")
	}
	_ = effects
}

func TestResetIsIdempotent(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	state, effects := seq.Apply(state, StartRun{})
	state, _ = drive(t, seq, state, effects)
	state, _ = seq.Apply(state, ToggleDetails{Target: CardTarget(state, 0)})

	once, effects := seq.Apply(state, Reset{})
	if diff := cmp.Diff([]Effect{StatusChanged{From: StatusCompleted, To: StatusIdle}}, effects); diff != "" {
		t.Fatalf("unexpected reset effects:\n%s", diff)
	}
	twice, effects := seq.Apply(once, Reset{})
	if len(effects) != 0 {
		t.Fatalf("second reset should have no effects")
	}
	if diff := cmp.Diff(once, twice, cmp.AllowUnexported(State{})); diff != "" {
		t.Fatalf("reset is not idempotent:\n%s", diff)
	}

	if once.Status != StatusIdle || once.Selected != nil || once.Preview != nil || once.Cards != nil || once.Plan != nil {
		t.Fatalf("reset left state behind: %+v", once)
	}
	if diff := cmp.Diff([3]StageStatus{StagePending, StagePending, StagePending}, once.Stages); diff != "" {
		t.Fatalf("stages not pending:\n%s", diff)
	}
	if c := once.Controls(); !c.Select || c.Run || c.Reset {
		t.Fatalf("unexpected controls after reset: %+v", c)
	}
}

func TestResetFromSelectionWithoutRun(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s2"})
	state, effects := seq.Apply(state, Reset{})
	if len(effects) != 0 {
		t.Fatalf("reset from idle should not report a status change")
	}
	if diff := cmp.Diff(seq.Initial(), state, cmpopts.IgnoreUnexported(State{})); diff != "" {
		t.Fatalf("expected initial state:\n%s", diff)
	}
}

func TestNewRunDropsPreviousFragments(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	state, effects := seq.Apply(state, StartRun{})
	state, _ = drive(t, seq, state, effects)
	previous := state

	state, _ = seq.Apply(state, Reset{})
	state, _ = seq.Apply(state, SelectScenario{ID: "s2"})
	state, effects = seq.Apply(state, StartRun{})
	if len(state.Cards) != 0 || state.Plan != nil {
		t.Fatalf("a new run must start without fragments")
	}
	state, _ = drive(t, seq, state, effects)
	if len(state.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(state.Cards))
	}
	if len(previous.Cards) != 3 || previous.Cards[0].ConfidencePercent != 95 {
		t.Fatalf("earlier state values must not be mutated")
	}
}

func TestCardInteractions(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s1"})
	state, effects := seq.Apply(state, StartRun{})
	state, _ = drive(t, seq, state, effects)

	state, _ = seq.Apply(state, ToggleDetails{Target: CardTarget(state, 1)})
	if !state.Cards[1].Expanded || state.Cards[0].Expanded || state.Cards[2].Expanded {
		t.Fatalf("toggle must only affect the addressed card")
	}

	target := CardTarget(state, 2)
	_, effects = seq.Apply(state, CopyRequested{Target: target})
	write, ok := effects[0].(WriteClipboard)
	if !ok {
		t.Fatalf("expected a clipboard write, got %#v", effects)
	}
	if write.Text != state.Cards[2].Detail || !strings.Contains(write.Text, "\n  \"agentType\": \"response\"") {
		t.Fatalf("clipboard must receive the indented record:\n%s", write.Text)
	}

	failed, effects := seq.Apply(state, CopyFinished{Target: target, Err: errors.New("no clipboard")})
	if len(effects) != 0 || failed.Cards[2].Copy.Label() != "Copy JSON" {
		t.Fatalf("a failed copy must leave the label alone")
	}

	first, effects := seq.Apply(state, CopyFinished{Target: target})
	firstExpiry := effects[0].(Wait)
	if firstExpiry.Delay != 2*time.Second || first.Cards[2].Copy.Label() != "Copied!" {
		t.Fatalf("expected a 2s confirmation, got %v / %q", firstExpiry.Delay, first.Cards[2].Copy.Label())
	}
	if first.Cards[1].Copy.Label() != "Copy JSON" {
		t.Fatalf("other cards must keep their label")
	}

	second, effects := seq.Apply(first, CopyFinished{Target: target})
	secondExpiry := effects[0].(Wait)
	still, _ := seq.Apply(second, firstExpiry.Then)
	if still.Cards[2].Copy.Label() != "Copied!" {
		t.Fatalf("the first timer must not cut the second confirmation short")
	}
	reverted, _ := seq.Apply(still, secondExpiry.Then)
	if reverted.Cards[2].Copy.Label() != "Copy JSON" {
		t.Fatalf("label should revert after the latest timer")
	}

	if _, effects := seq.Apply(state, CopyRequested{Target: CardTarget(state, 7)}); len(effects) != 0 {
		t.Fatalf("unknown card must be ignored")
	}
}

func TestPreviewCopy(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s2"})
	_, effects := seq.Apply(state, CopyRequested{Target: PreviewTarget(state)})
	write := effects[0].(WriteClipboard)
	if write.Text != state.Preview.Text {
		t.Fatalf("expected preview text on the clipboard")
	}
	state, effects = seq.Apply(state, CopyFinished{Target: write.Target})
	if state.Preview.Copy.Label() != "Copied!" {
		t.Fatalf("expected preview copy confirmation")
	}
	expiry := effects[0].(Wait).Then

	state, _ = seq.Apply(state, Reset{})
	state, _ = seq.Apply(state, SelectScenario{ID: "s1"})
	state, _ = seq.Apply(state, CopyFinished{Target: PreviewTarget(state)})
	state, _ = seq.Apply(state, expiry)
	if state.Preview.Copy.Label() != "Copied!" {
		t.Fatalf("a timer from before the reset must not revert the new preview")
	}
}

func TestPreviewCopyOfReplacedSelection(t *testing.T) {
	seq := newSequencer(t, nil)
	state, _ := seq.Apply(seq.Initial(), SelectScenario{ID: "s2"})
	_, effects := seq.Apply(state, CopyRequested{Target: PreviewTarget(state)})
	inFlight := effects[0].(WriteClipboard).Target

	state, _ = seq.Apply(state, SelectScenario{ID: "s1"})
	state, effects = seq.Apply(state, CopyFinished{Target: inFlight})
	if len(effects) != 0 {
		t.Fatalf("a copy of the previous preview must not arm a timer, got %v", effects)
	}
	if state.Preview.Copy.Label() != "Copy JSON" {
		t.Fatalf("the new preview must not show a confirmation for the old text")
	}
	if _, effects := seq.Apply(state, CopyRequested{Target: inFlight}); len(effects) != 0 {
		t.Fatalf("a stale preview target must not copy")
	}

	// Selecting the same scenario again still replaces the preview.
	state, _ = seq.Apply(state, SelectScenario{ID: "s1"})
	if _, effects := seq.Apply(state, CopyFinished{Target: inFlight}); len(effects) != 0 {
		t.Fatalf("expected the reselected preview to ignore the old copy")
	}
}

func TestPlayDrivesRunToCompletion(t *testing.T) {
	recorder := &recordingRenderer{}
	seq := newSequencer(t, recorder)
	var slept []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	var statuses []Status
	observe := func(state State, effects []Effect) {
		for _, effect := range effects {
			if changed, ok := effect.(StatusChanged); ok {
				statuses = append(statuses, changed.To)
			}
		}
	}

	state, err := Play(context.Background(), seq, seq.Initial(), "s2", sleep, observe)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if state.Status != StatusCompleted || len(state.Cards) != 3 || state.Plan == nil {
		t.Fatalf("unexpected final state %+v", state)
	}
	if len(slept) != 4 {
		t.Fatalf("expected 4 sleeps, got %v", slept)
	}
	if diff := cmp.Diff([]Status{StatusProcessing, StatusCompleted}, statuses); diff != "" {
		t.Fatalf("unexpected status transitions:\n%s", diff)
	}

	again, err := Play(context.Background(), seq, state, "s1", Instant, nil)
	if err != nil || again.SelectedID() != "s1" || again.Status != StatusCompleted {
		t.Fatalf("play from a completed state should reset first: %v", err)
	}
}

func TestPlayErrors(t *testing.T) {
	seq := newSequencer(t, nil)
	if _, err := Play(context.Background(), seq, seq.Initial(), "nope", Instant, nil); !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err := Play(ctx, seq, seq.Initial(), "s1", Sleep, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if state.Status != StatusProcessing {
		t.Fatalf("cancelled play should stop mid-run, got %s", state.Status)
	}
	if _, err := Play(context.Background(), seq, state, "s1", Instant, nil); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestStageDelays(t *testing.T) {
	want := map[Stage]time.Duration{
		StageMonitoring: 1500 * time.Millisecond,
		StageAnalysis:   1000 * time.Millisecond,
		StageResponse:   1000 * time.Millisecond,
	}
	for stage, delay := range want {
		if stage.Delay() != delay {
			t.Fatalf("%s delay = %v, want %v", stage, stage.Delay(), delay)
		}
	}
	if StagePending.Icon() != "○" || StageActive.Icon() != "●" || StageCompleted.Icon() != "✓" {
		t.Fatalf("unexpected stage icons")
	}
}
