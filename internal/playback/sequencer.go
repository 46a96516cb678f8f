package playback

import (
	"time"

	"incidentdemo/internal/render"
	"incidentdemo/internal/scenario"
)

// Renderer builds display fragments for the sequencer.
type Renderer interface {
	Card(output scenario.AgentOutput) render.Card
	Plan(plan scenario.ResponsePlan, now time.Time) render.Plan
}

type Sequencer struct {
	store    *scenario.Store
	renderer Renderer
	now      func() time.Time
}

type Option func(*Sequencer)

// WithClock overrides the clock used for the plan header timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		if now != nil {
			s.now = now
		}
	}
}

func New(store *scenario.Store, renderer Renderer, opts ...Option) *Sequencer {
	if renderer == nil {
		renderer = render.Renderer{}
	}
	s := &Sequencer{store: store, renderer: renderer, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequencer) Store() *scenario.Store {
	return s.store
}

func (s *Sequencer) Initial() State {
	return initialState()
}

// Apply returns the state after ev and the effects the host must perform.
// Events that do not apply in the current state leave it unchanged.
func (s *Sequencer) Apply(state State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case SelectScenario:
		return s.selectScenario(state, ev.ID), nil
	case StartRun:
		return s.start(state)
	case Elapsed:
		return s.advance(state, ev)
	case Reset:
		return s.reset(state)
	case ToggleDetails:
		return toggleDetails(state, ev.Target), nil
	case CopyRequested:
		return state, copyRequested(state, ev.Target)
	case CopyFinished:
		return copyFinished(state, ev)
	case CopyExpired:
		return copyExpired(state, ev), nil
	default:
		return state, nil
	}
}

func (s *Sequencer) selectScenario(state State, id string) State {
	if !state.Controls().Select {
		return state
	}
	state.selection++
	record, ok := s.store.Select(id)
	if !ok {
		state.Selected = nil
		state.Preview = nil
		return state
	}
	preview := render.RenderPreview(record.Input)
	state.Selected = &record
	state.Preview = &preview
	return state
}

func (s *Sequencer) start(state State) (State, []Effect) {
	if !state.Controls().Run {
		return state, nil
	}
	from := state.Status
	state.run++
	state.step = 0
	state.Status = StatusProcessing
	state.Cards = nil
	state.Plan = nil
	state.Stages = [3]StageStatus{StageActive, StagePending, StagePending}
	first := Stages[0]
	return state, []Effect{
		StatusChanged{From: from, To: StatusProcessing},
		StageChanged{Stage: first, Status: StageActive},
		Wait{Delay: first.Delay(), Then: Elapsed{Run: state.run, Step: 0}},
	}
}

func (s *Sequencer) advance(state State, ev Elapsed) (State, []Effect) {
	if state.Status != StatusProcessing || ev.Run != state.run || ev.Step != state.step || state.Selected == nil {
		return state, nil
	}
	record := state.Selected
	if state.step == len(Stages) {
		plan := s.renderer.Plan(record.Plan(), s.now())
		state.Plan = &plan
		state.Status = StatusCompleted
		state.step++
		return state, []Effect{StatusChanged{From: StatusProcessing, To: StatusCompleted}}
	}

	stage := Stages[state.step]
	output, _ := record.Output(string(stage))
	cards := make([]render.Card, 0, len(state.Cards)+1)
	cards = append(cards, state.Cards...)
	state.Cards = append(cards, s.renderer.Card(output))
	state.Stages[state.step] = StageCompleted
	state.step++

	effects := []Effect{StageChanged{Stage: stage, Status: StageCompleted}}
	if state.step < len(Stages) {
		next := Stages[state.step]
		state.Stages[state.step] = StageActive
		effects = append(effects,
			StageChanged{Stage: next, Status: StageActive},
			Wait{Delay: next.Delay(), Then: Elapsed{Run: state.run, Step: state.step}},
		)
		return state, effects
	}
	effects = append(effects, Wait{Delay: PlanDelay, Then: Elapsed{Run: state.run, Step: state.step}})
	return state, effects
}

func (s *Sequencer) reset(state State) (State, []Effect) {
	if state.Status == StatusProcessing {
		return state, nil
	}
	from := state.Status
	next := initialState()
	next.run = state.run
	next.selection = state.selection
	next.copies = state.copies
	if from == StatusIdle {
		return next, nil
	}
	return next, []Effect{StatusChanged{From: from, To: StatusIdle}}
}

func toggleDetails(state State, target Target) State {
	if target.Preview || !cardInRange(state, target) {
		return state
	}
	cards := append([]render.Card(nil), state.Cards...)
	cards[target.Card] = cards[target.Card].Toggle()
	state.Cards = cards
	return state
}

func copyRequested(state State, target Target) []Effect {
	if target.Preview {
		if !previewCurrent(state, target) {
			return nil
		}
		return []Effect{WriteClipboard{Target: target, Text: state.Preview.Text}}
	}
	if !cardInRange(state, target) {
		return nil
	}
	return []Effect{WriteClipboard{Target: target, Text: state.Cards[target.Card].Detail}}
}

func copyFinished(state State, ev CopyFinished) (State, []Effect) {
	if ev.Err != nil {
		return state, nil
	}
	gen := state.copies + 1
	next, ok := updateButton(state, ev.Target, func(b render.CopyButton) render.CopyButton {
		return b.Confirm(gen)
	})
	if !ok {
		return state, nil
	}
	next.copies = gen
	return next, []Effect{Wait{Delay: render.CopiedFor, Then: CopyExpired{Target: ev.Target, Gen: gen}}}
}

func copyExpired(state State, ev CopyExpired) State {
	next, _ := updateButton(state, ev.Target, func(b render.CopyButton) render.CopyButton {
		return b.Expire(ev.Gen)
	})
	return next
}

func updateButton(state State, target Target, fn func(render.CopyButton) render.CopyButton) (State, bool) {
	if target.Preview {
		if !previewCurrent(state, target) {
			return state, false
		}
		preview := *state.Preview
		preview.Copy = fn(preview.Copy)
		state.Preview = &preview
		return state, true
	}
	if !cardInRange(state, target) {
		return state, false
	}
	cards := append([]render.Card(nil), state.Cards...)
	cards[target.Card].Copy = fn(cards[target.Card].Copy)
	state.Cards = cards
	return state, true
}

func cardInRange(state State, target Target) bool {
	return target.Run == state.run && target.Card >= 0 && target.Card < len(state.Cards)
}

func previewCurrent(state State, target Target) bool {
	return state.Preview != nil && target.Selection == state.selection
}
