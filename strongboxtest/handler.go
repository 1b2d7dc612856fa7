package strongboxtest

import (
	"sync"

	"github.com/keyless-one/strongbox"
)

// Handler is a mock implementing strongbox.Handler interface. It counts
// how many times each method was called and returns declared results.
type Handler struct {
	mu sync.Mutex

	checkCall   int
	CheckResult strongbox.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult strongbox.DeliverResult
	DeliverErr    error
}

var _ strongbox.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.CheckResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checkCall++
	res := h.CheckResult
	return &res, h.CheckErr
}

func (h *Handler) Deliver(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.DeliverResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.deliverCall++
	res := h.DeliverResult
	return &res, h.DeliverErr
}

func (h *Handler) CheckCallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkCall + h.deliverCall
}
