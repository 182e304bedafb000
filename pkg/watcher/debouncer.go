package watcher

import (
	"context"
	"time"
)

// Debouncer coalesces bursts of change events so a spreadsheet being saved
// repeatedly triggers one reload. It emits after quietPeriod without new
// events, or at the latest maxWait after the first event of a burst.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	if maxWait < quietPeriod {
		maxWait = quietPeriod
	}
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet    *time.Timer
		deadline *time.Timer
		pending  *ChangeEvent
		count    int
	)

	stop := func() {
		if quiet != nil {
			quiet.Stop()
			quiet = nil
		}
		if deadline != nil {
			deadline.Stop()
			deadline = nil
		}
	}

	flush := func() {
		stop()
		if pending == nil {
			return
		}
		log.Debug("flushing accumulated events", "count", count, "type", pending.Type)
		event := *pending
		pending, count = nil, 0
		select {
		case d.output <- event:
		case <-ctx.Done():
		}
	}

	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			// The last event decides the type: the file's final state is what counts
			if pending == nil {
				pending = &ChangeEvent{}
			}
			pending.Type = event.Type
			pending.Paths = appendUnique(pending.Paths, event.Paths...)
			pending.Timestamp = event.Timestamp
			count++

			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(d.quietPeriod)
			}
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			quiet = nil
			flush()

		case <-timerC(deadline):
			deadline = nil
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func appendUnique(dst []string, paths ...string) []string {
	for _, p := range paths {
		seen := false
		for _, q := range dst {
			if p == q {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, p)
		}
	}
	return dst
}
