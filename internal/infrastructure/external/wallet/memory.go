package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ErrInjected is returned by MemorySettler while a failure is injected.
var ErrInjected = errors.New("wallet: injected failure")

// Payment is one settled request kept by MemorySettler.
type Payment struct {
	Request settlement.Request
	Receipt settlement.Receipt
}

// MemorySettler keeps balances in memory and dedupes by idempotency key the
// way the real wallet does.
type MemorySettler struct {
	mu       sync.Mutex
	payments map[string]Payment
	order    []string
	balances map[shared.ChildID]shared.Sats
	calls    int
	failNext int
	failAll  bool
	now      func() time.Time
}

var _ settlement.Settler = (*MemorySettler)(nil)

// NewMemorySettler creates an empty settler.
func NewMemorySettler() *MemorySettler {
	return &MemorySettler{
		payments: make(map[string]Payment),
		balances: make(map[shared.ChildID]shared.Sats),
		now:      time.Now,
	}
}

// Settle records the payment once per idempotency key.
func (m *MemorySettler) Settle(ctx context.Context, req settlement.Request) (*settlement.Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, settlement.Failed("Settle", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failAll || m.failNext > 0 {
		if m.failNext > 0 {
			m.failNext--
		}
		return nil, settlement.Failed("Settle", fmt.Errorf("%w: %s", ErrInjected, req.IdempotencyKey))
	}

	if p, ok := m.payments[req.IdempotencyKey]; ok {
		receipt := p.Receipt
		return &receipt, nil
	}

	receipt := settlement.Receipt{Reference: "mem-" + uuid.NewString(), SettledAt: m.now().UTC()}
	m.payments[req.IdempotencyKey] = Payment{Request: req, Receipt: receipt}
	m.order = append(m.order, req.IdempotencyKey)
	m.balances[req.ChildID] += req.Sats
	return &receipt, nil
}

// FailNext makes the next n calls fail.
func (m *MemorySettler) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// SetFailing makes every call fail until switched off.
func (m *MemorySettler) SetFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = failing
}

// Calls returns the number of Settle calls, failed ones included.
func (m *MemorySettler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Payments returns settled payments in settlement order.
func (m *MemorySettler) Payments() []Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Payment, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.payments[key])
	}
	return out
}

// Balance returns the total paid to a child.
func (m *MemorySettler) Balance(child shared.ChildID) shared.Sats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[child]
}

// Ping always succeeds.
func (m *MemorySettler) Ping(context.Context) error { return nil }
