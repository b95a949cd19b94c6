package watch

import (
	"context"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// Debounce causes passed to the emit callback.
const (
	CauseQuiet    = "quiet"
	CauseMaxDelay = "max_delay"
)

// Debouncer coalesces bursts of change notifications into a single emission.
//
// An emission happens once no request arrived for the quiet window, or once
// the first pending request is older than the max delay, whichever is first.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration
	requests chan struct{}
}

// NewDebouncer validates the windows and returns an idle debouncer.
func NewDebouncer(quiet, maxDelay time.Duration) (*Debouncer, error) {
	if quiet <= 0 {
		return nil, errors.ValidationError("quiet window must be > 0").Build()
	}
	if maxDelay <= 0 {
		return nil, errors.ValidationError("max delay must be > 0").Build()
	}
	if maxDelay < quiet {
		maxDelay = quiet
	}
	return &Debouncer{quiet: quiet, maxDelay: maxDelay, requests: make(chan struct{}, 64)}, nil
}

// Trigger records a change. It never blocks.
func (d *Debouncer) Trigger() {
	select {
	case d.requests <- struct{}{}:
	default:
	}
}

// Run delivers emissions to emit until ctx is done. It must run in a single goroutine.
func (d *Debouncer) Run(ctx context.Context, emit func(cause string)) {
	quietTimer := stoppedTimer()
	maxTimer := stoppedTimer()
	defer quietTimer.Stop()
	defer maxTimer.Stop()

	var (
		quietC  <-chan time.Time
		maxC    <-chan time.Time
		pending bool
	)

	fire := func(cause string) {
		pending = false
		quietC, maxC = nil, nil
		quietTimer.Stop()
		maxTimer.Stop()
		emit(cause)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.requests:
			if !pending {
				pending = true
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			}
			resetTimer(quietTimer, d.quiet)
			quietC = quietTimer.C
		case <-quietC:
			fire(CauseQuiet)
		case <-maxC:
			fire(CauseMaxDelay)
		}
	}
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
