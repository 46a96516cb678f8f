package playback

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrRunInProgress   = errors.New("a run is already in progress")
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep waits on a real timer.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Instant skips every delay.
func Instant(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Observer sees every state the driver moves through, with the effects that
// produced it.
type Observer func(state State, effects []Effect)

// Play selects id and runs it to completion without a UI, sleeping through
// each stage delay. Only run timers are followed; copy timers do not occur
// because nothing is copied.
func Play(ctx context.Context, seq *Sequencer, state State, id string, sleep Sleeper, observe Observer) (State, error) {
	if sleep == nil {
		sleep = Sleep
	}
	if observe == nil {
		observe = func(State, []Effect) {}
	}
	if state.Status == StatusProcessing {
		return state, ErrRunInProgress
	}
	if state.Status != StatusIdle {
		state, _ = seq.Apply(state, Reset{})
	}
	state, _ = seq.Apply(state, SelectScenario{ID: id})
	if state.Selected == nil {
		return state, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	observe(state, nil)

	state, effects := seq.Apply(state, StartRun{})
	observe(state, effects)
	for state.Status == StatusProcessing {
		wait, ok := nextWait(effects)
		if !ok {
			return state, errors.New("run stalled without a pending timer")
		}
		if err := sleep(ctx, wait.Delay); err != nil {
			return state, err
		}
		state, effects = seq.Apply(state, wait.Then)
		observe(state, effects)
	}
	return state, nil
}

func nextWait(effects []Effect) (Wait, bool) {
	for _, effect := range effects {
		if wait, ok := effect.(Wait); ok {
			if _, isStep := wait.Then.(Elapsed); isStep {
				return wait, true
			}
		}
	}
	return Wait{}, false
}
