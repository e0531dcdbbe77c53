package api

import (
	"sync/atomic"

	"github.com/nexuslink/reconciler/internal/engine"
)

// CycleHolder hands readers the latest completed cycle. The pointer swap is
// atomic, so a reader always sees one whole cycle, never a mix of two.
type CycleHolder struct {
	v atomic.Pointer[engine.CycleResult]
}

func NewCycleHolder() *CycleHolder {
	return &CycleHolder{}
}

// Store publishes a completed cycle.
func (h *CycleHolder) Store(res *engine.CycleResult) {
	h.v.Store(res)
}

// Latest returns the most recent completed cycle, or nil before the first
// evaluation finishes.
func (h *CycleHolder) Latest() *engine.CycleResult {
	return h.v.Load()
}
