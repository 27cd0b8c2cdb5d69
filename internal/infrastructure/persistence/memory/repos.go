package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tasks
// ──────────────────────────────────────────────────────────────────────────────

type taskRepo struct{ st *state }

func (r taskRepo) Create(_ context.Context, task *chore.Task) error {
	if _, ok := r.st.tasks[task.ID]; ok {
		return shared.NewDomainError("chore", "Create", shared.ErrAlreadyExists, "task already exists")
	}
	r.st.tasks[task.ID] = task.Clone()
	return nil
}

func (r taskRepo) GetByID(_ context.Context, id shared.TaskID) (*chore.Task, error) {
	task, ok := r.st.tasks[id]
	if !ok {
		return nil, shared.ErrTaskNotFound
	}
	return task.Clone(), nil
}

func (r taskRepo) ListByFamily(_ context.Context, fam shared.FamilyID, status *chore.Status) ([]*chore.Task, error) {
	var out []*chore.Task
	for _, task := range r.st.tasks {
		if task.FamilyID != fam {
			continue
		}
		if status != nil && task.Status != *status {
			continue
		}
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r taskRepo) Assign(_ context.Context, id shared.TaskID, child shared.ChildID, at time.Time) (bool, error) {
	task, ok := r.st.tasks[id]
	if !ok {
		return false, nil
	}
	return task.Assign(child, at) == nil, nil
}

func (r taskRepo) MarkSubmitted(_ context.Context, id shared.TaskID, child shared.ChildID, proofRef string, at time.Time) (bool, error) {
	task, ok := r.st.tasks[id]
	if !ok {
		return false, nil
	}
	return task.Submit(child, proofRef, at) == nil, nil
}

func (r taskRepo) MarkApproved(_ context.Context, id shared.TaskID, at time.Time) (bool, error) {
	task, ok := r.st.tasks[id]
	if !ok {
		return false, nil
	}
	return task.Approve(at) == nil, nil
}

func (r taskRepo) Delete(_ context.Context, id shared.TaskID) (bool, error) {
	task, ok := r.st.tasks[id]
	if !ok || !task.CanDelete() {
		return false, nil
	}
	delete(r.st.tasks, id)
	return true, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Children & counters
// ──────────────────────────────────────────────────────────────────────────────

type childRepo struct{ st *state }

func (r childRepo) Create(_ context.Context, child *family.Child) error {
	if _, ok := r.st.children[child.ID]; ok {
		return shared.ErrChildAlreadyExists
	}
	c := *child
	r.st.children[child.ID] = &c
	return nil
}

func (r childRepo) GetByID(_ context.Context, id shared.ChildID) (*family.Child, error) {
	child, ok := r.st.children[id]
	if !ok {
		return nil, shared.ErrChildNotFound
	}
	c := *child
	return &c, nil
}

func (r childRepo) ListByFamily(_ context.Context, fam shared.FamilyID) ([]*family.Child, error) {
	var out []*family.Child
	for _, child := range r.st.children {
		if child.FamilyID == fam {
			c := *child
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r childRepo) ListFamilies(context.Context) ([]shared.FamilyID, error) {
	seen := make(map[shared.FamilyID]bool)
	var out []shared.FamilyID
	for _, child := range r.st.children {
		if !seen[child.FamilyID] {
			seen[child.FamilyID] = true
			out = append(out, child.FamilyID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type counterRepo struct{ st *state }

func (r counterRepo) Get(_ context.Context, child shared.ChildID) (*family.Counters, error) {
	if c, ok := r.st.counters[child]; ok {
		copied := *c
		return &copied, nil
	}
	return family.NewCounters(child), nil
}

// GetForUpdate needs no extra locking: the whole unit of work is exclusive.
func (r counterRepo) GetForUpdate(ctx context.Context, child shared.ChildID) (*family.Counters, error) {
	return r.Get(ctx, child)
}

func (r counterRepo) Save(_ context.Context, c *family.Counters) error {
	copied := *c
	r.st.counters[c.ChildID] = &copied
	return nil
}

func (r counterRepo) ListLagging(_ context.Context, after shared.ChildID, limit int) ([]*family.Counters, error) {
	var out []*family.Counters
	for _, c := range r.st.counters {
		if c.ChildID > after && c.LevelLags() {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChildID < out[j].ChildID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Bonus ledgers
// ──────────────────────────────────────────────────────────────────────────────

type settingsRepo struct{ st *state }

func (r settingsRepo) Get(_ context.Context, fam shared.FamilyID) (bonus.Settings, error) {
	if s, ok := r.st.settings[fam]; ok {
		return s, nil
	}
	return bonus.DefaultSettings(fam), nil
}

func (r settingsRepo) Upsert(_ context.Context, s bonus.Settings) error {
	r.st.settings[s.FamilyID] = s
	return nil
}

type payoutRepo struct{ st *state }

func (r payoutRepo) Insert(_ context.Context, p bonus.Payout) (bool, error) {
	key := payoutKey{p.ChildID, p.Level}
	if _, ok := r.st.payouts[key]; ok {
		return false, nil
	}
	r.st.payouts[key] = p
	return true, nil
}

func (r payoutRepo) ListByChild(_ context.Context, child shared.ChildID) ([]bonus.Payout, error) {
	var out []bonus.Payout
	for k, p := range r.st.payouts {
		if k.child == child {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

type claimRepo struct{ st *state }

func (r claimRepo) Insert(_ context.Context, c bonus.GuardianClaim) (bool, error) {
	key := claimKey{c.ChildID, c.Tier}
	if _, ok := r.st.claims[key]; ok {
		return false, nil
	}
	r.st.claims[key] = c
	return true, nil
}

func (r claimRepo) ListByChild(_ context.Context, child shared.ChildID) ([]bonus.GuardianClaim, error) {
	var out []bonus.GuardianClaim
	for k, c := range r.st.claims {
		if k.child == child {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Learning
// ──────────────────────────────────────────────────────────────────────────────

type completionRepo struct{ st *state }

func (r completionRepo) Get(_ context.Context, child shared.ChildID, day timeutil.Date) (*challenge.Completion, error) {
	c, ok := r.st.completions[completionKey{child, day}]
	if !ok {
		return nil, shared.NewDomainError("challenge", "Get", shared.ErrNotFound, "no completion for this day")
	}
	return &c, nil
}

func (r completionRepo) Insert(_ context.Context, c challenge.Completion) (bool, error) {
	key := completionKey{c.ChildID, c.Date}
	if _, ok := r.st.completions[key]; ok {
		return false, nil
	}
	r.st.completions[key] = c
	return true, nil
}

type learningRepo struct{ st *state }

func (r learningRepo) Get(_ context.Context, child shared.ChildID) (*progression.LearningProgress, error) {
	if p, ok := r.st.learning[child]; ok {
		return p.Clone(), nil
	}
	return progression.NewLearningProgress(child), nil
}

func (r learningRepo) GetForUpdate(ctx context.Context, child shared.ChildID) (*progression.LearningProgress, error) {
	return r.Get(ctx, child)
}

func (r learningRepo) Save(_ context.Context, p *progression.LearningProgress) error {
	r.st.learning[p.ChildID] = p.Clone()
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Earnings
// ──────────────────────────────────────────────────────────────────────────────

type earningsRepo struct{ st *state }

func (r earningsRepo) Append(_ context.Context, e *earnings.Entry) (bool, error) {
	var cumulative shared.Sats
	for _, existing := range r.st.earnings {
		if existing.Reference == e.Reference {
			return false, nil
		}
		if existing.ChildID == e.ChildID {
			cumulative += existing.Sats
		}
	}
	r.st.nextEntryID++
	e.ID = r.st.nextEntryID
	e.CumulativeSats = cumulative + e.Sats
	r.st.earnings = append(r.st.earnings, *e)
	return true, nil
}

func (r earningsRepo) ListByChild(_ context.Context, child shared.ChildID, limit int) ([]earnings.Entry, error) {
	var out []earnings.Entry
	for i := len(r.st.earnings) - 1; i >= 0; i-- {
		if r.st.earnings[i].ChildID != child {
			continue
		}
		out = append(out, r.st.earnings[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r earningsRepo) Total(_ context.Context, child shared.ChildID) (shared.Sats, error) {
	var total shared.Sats
	for _, e := range r.st.earnings {
		if e.ChildID == child {
			total += e.Sats
		}
	}
	return total, nil
}
