package jobs

// Per-operation run state for the interactive surfaces.
// Each operation name runs at most once at a time; a second Begin while one
// is in flight is rejected rather than queued.

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	InFlight
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInFlight = errors.New("operation already running")

// Status is a point-in-time view of one operation.
type Status struct {
	Op        string
	State     State
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

type Guard struct {
	mu  sync.Mutex
	ops map[string]*Status
	now func() time.Time
}

func NewGuard() *Guard {
	return &Guard{ops: make(map[string]*Status), now: time.Now}
}

// Run is the handle for one in-flight operation.
type Run struct {
	g    *Guard
	op   string
	once sync.Once
}

// Begin marks op as in flight. It returns ErrInFlight if op is already running.
func (g *Guard) Begin(op string) (*Run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.ops[op]
	if ok && st.State == InFlight {
		return nil, fmt.Errorf("%s: %w", op, ErrInFlight)
	}
	g.ops[op] = &Status{Op: op, State: InFlight, StartedAt: g.now()}
	return &Run{g: g, op: op}, nil
}

// Finish ends the run. A nil err returns op to Idle, anything else leaves it Failed
// until the next Begin. Only the first call has an effect.
func (r *Run) Finish(err error) {
	r.once.Do(func() {
		r.g.mu.Lock()
		defer r.g.mu.Unlock()

		st := r.g.ops[r.op]
		st.EndedAt = r.g.now()
		st.Err = err
		if err != nil {
			st.State = Failed
		} else {
			st.State = Idle
		}
	})
}

func (g *Guard) State(op string) State {
	return g.Status(op).State
}

func (g *Guard) Status(op string) Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	if st, ok := g.ops[op]; ok {
		return *st
	}
	return Status{Op: op, State: Idle}
}

// Snapshot returns the status of every operation that has ever run, sorted by name.
func (g *Guard) Snapshot() []Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Status, 0, len(g.ops))
	for _, st := range g.ops {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}
