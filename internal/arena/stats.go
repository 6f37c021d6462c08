package arena

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Rejection reasons tracked in Stats.
const (
	RejectValidation = "validation"
	RejectNotFound   = "not_found"
	RejectExecution  = "execution"
	RejectEntryPoint = "entry_point"
)

// ChallengeStats counts activity for one challenge.
type ChallengeStats struct {
	Attempts int64 `json:"attempts"`
	Passes   int64 `json:"passes"`
}

// Stats is a point-in-time copy of the evaluation counters.
type Stats struct {
	Evaluations int64                     `json:"evaluations"`
	Passed      int64                     `json:"passed"`
	Rejected    map[string]int64          `json:"rejected"`
	Challenges  map[string]ChallengeStats `json:"challenges"`
}

type counters struct {
	evaluations *xsync.Counter
	passed      *xsync.Counter
	rejected    *xsync.MapOf[string, *xsync.Counter]
	attempts    *xsync.MapOf[string, *xsync.Counter]
	passes      *xsync.MapOf[string, *xsync.Counter]
}

func newCounters() *counters {
	return &counters{
		evaluations: xsync.NewCounter(),
		passed:      xsync.NewCounter(),
		rejected:    xsync.NewMapOf[string, *xsync.Counter](),
		attempts:    xsync.NewMapOf[string, *xsync.Counter](),
		passes:      xsync.NewMapOf[string, *xsync.Counter](),
	}
}

func incKey(m *xsync.MapOf[string, *xsync.Counter], key string) {
	c, _ := m.LoadOrCompute(key, xsync.NewCounter)
	c.Inc()
}

func (c *counters) reject(reason string) {
	incKey(c.rejected, reason)
}

func (c *counters) attempt(challengeID string) {
	incKey(c.attempts, challengeID)
}

func (c *counters) pass(challengeID string) {
	c.passed.Inc()
	incKey(c.passes, challengeID)
}

func (c *counters) snapshot() Stats {
	s := Stats{
		Evaluations: c.evaluations.Value(),
		Passed:      c.passed.Value(),
		Rejected:    make(map[string]int64),
		Challenges:  make(map[string]ChallengeStats),
	}
	c.rejected.Range(func(k string, v *xsync.Counter) bool {
		s.Rejected[k] = v.Value()
		return true
	})
	c.attempts.Range(func(k string, v *xsync.Counter) bool {
		cs := s.Challenges[k]
		cs.Attempts = v.Value()
		s.Challenges[k] = cs
		return true
	})
	c.passes.Range(func(k string, v *xsync.Counter) bool {
		cs := s.Challenges[k]
		cs.Passes = v.Value()
		s.Challenges[k] = cs
		return true
	})
	return s
}
