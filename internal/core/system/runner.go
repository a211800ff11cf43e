package system

import (
	"time"

	"github.com/feacur/customengine/internal/core/check"
)

// Runner keeps systems bucketed by phase and runs the buckets in order.
// Systems of one phase run in registration order. The time spent in each
// phase during the last Tick is kept for frame diagnostics.
type Runner struct {
	phases  [phaseCount][]System
	timings [phaseCount]time.Duration
	count   int
	now     func() time.Time
}

func NewRunner() *Runner {
	return &Runner{now: time.Now}
}

func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		check.True(false, "system registered for %s phase %d", p, int(p))
		return
	}
	r.phases[p] = append(r.phases[p], s)
	r.count++
}

func (r *Runner) Tick(dt time.Duration) {
	for p := Phase(0); p < phaseCount; p++ {
		r.run(p, dt)
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase >= 0 && phase < phaseCount {
		r.run(phase, dt)
	}
}

func (r *Runner) run(p Phase, dt time.Duration) {
	start := r.now()
	for _, s := range r.phases[p] {
		s.Update(dt)
	}
	r.timings[p] = r.now().Sub(start)
}

func (r *Runner) Len() int { return r.count }

// Timing returns how long phase p took the last time it ran.
func (r *Runner) Timing(p Phase) time.Duration {
	if p < 0 || p >= phaseCount {
		return 0
	}
	return r.timings[p]
}
