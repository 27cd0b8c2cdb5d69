// Package memory implements the persistence ports in process memory.
// It backs local development (no DATABASE_URL) and the application tests.
//
// Transactions are serialized by a single lock: Begin takes the lock and
// works on a deep copy of the committed state, Commit swaps the copy in.
// This gives the same observable behavior as the row locks and unique
// constraints of the postgres store, just with coarser granularity.
// Begin must not be called twice from the same goroutine without finishing
// the first unit of work.
package memory

import (
	"context"
	"sync"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

type payoutKey struct {
	child shared.ChildID
	level int
}

type claimKey struct {
	child shared.ChildID
	tier  int
}

type completionKey struct {
	child shared.ChildID
	day   timeutil.Date
}

type state struct {
	tasks       map[shared.TaskID]*chore.Task
	children    map[shared.ChildID]*family.Child
	counters    map[shared.ChildID]*family.Counters
	settings    map[shared.FamilyID]bonus.Settings
	payouts     map[payoutKey]bonus.Payout
	claims      map[claimKey]bonus.GuardianClaim
	completions map[completionKey]challenge.Completion
	learning    map[shared.ChildID]*progression.LearningProgress
	earnings    []earnings.Entry
	nextEntryID int64
}

func newState() *state {
	return &state{
		tasks:       make(map[shared.TaskID]*chore.Task),
		children:    make(map[shared.ChildID]*family.Child),
		counters:    make(map[shared.ChildID]*family.Counters),
		settings:    make(map[shared.FamilyID]bonus.Settings),
		payouts:     make(map[payoutKey]bonus.Payout),
		claims:      make(map[claimKey]bonus.GuardianClaim),
		completions: make(map[completionKey]challenge.Completion),
		learning:    make(map[shared.ChildID]*progression.LearningProgress),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tasks {
		c.tasks[k] = v.Clone()
	}
	for k, v := range s.children {
		child := *v
		c.children[k] = &child
	}
	for k, v := range s.counters {
		counters := *v
		c.counters[k] = &counters
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	for k, v := range s.payouts {
		c.payouts[k] = v
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	for k, v := range s.completions {
		c.completions[k] = v
	}
	for k, v := range s.learning {
		c.learning[k] = v.Clone()
	}
	c.earnings = append([]earnings.Entry(nil), s.earnings...)
	c.nextEntryID = s.nextEntryID
	return c
}

// Store is an in-memory UnitOfWorkFactory.
type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{committed: newState()}
}

// Begin starts a unit of work. It blocks while another one is open.
func (s *Store) Begin(ctx context.Context) (family.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()

	s.mu.RLock()
	working := s.committed.clone()
	s.mu.RUnlock()

	return &unitOfWork{store: s, st: working}, nil
}

// Ping always succeeds. It lets the store act as a health check target.
func (s *Store) Ping(context.Context) error {
	return nil
}

type unitOfWork struct {
	store *Store
	st    *state
	done  bool
}

var _ family.UnitOfWork = (*unitOfWork)(nil)

func (u *unitOfWork) Commit(context.Context) error {
	if u.done {
		return nil
	}
	u.store.mu.Lock()
	u.store.committed = u.st
	u.store.mu.Unlock()
	u.finish()
	return nil
}

func (u *unitOfWork) Rollback(context.Context) error {
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *unitOfWork) finish() {
	u.done = true
	u.store.txMu.Unlock()
}

func (u *unitOfWork) Tasks() chore.Repository                       { return taskRepo{u.st} }
func (u *unitOfWork) Children() family.ChildRepository              { return childRepo{u.st} }
func (u *unitOfWork) Counters() family.CounterRepository            { return counterRepo{u.st} }
func (u *unitOfWork) BonusSettings() bonus.SettingsRepository       { return settingsRepo{u.st} }
func (u *unitOfWork) Payouts() bonus.PayoutRepository               { return payoutRepo{u.st} }
func (u *unitOfWork) GuardianClaims() bonus.GuardianClaimRepository { return claimRepo{u.st} }
func (u *unitOfWork) Challenges() challenge.CompletionRepository    { return completionRepo{u.st} }
func (u *unitOfWork) Learning() progression.Repository              { return learningRepo{u.st} }
func (u *unitOfWork) Earnings() earnings.Repository                 { return earningsRepo{u.st} }
