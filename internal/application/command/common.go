// Package command contains write operations (CQRS - Commands).
//
// Every handler opens one unit of work, takes the row locks it needs, and
// commits once. Payouts follow settle-then-commit: the wallet is called while
// the deciding transaction is still open, and a wallet failure rolls it back.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateCommand checks struct tags and converts failures into a validation
// DomainError listing every offending field.
func validateCommand(op string, cmd interface{}) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.WrapError("command", op, shared.ErrValidation, "invalid command", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return shared.NewDomainError("command", op, shared.ErrValidation, strings.Join(msgs, "; "))
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYOUT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// PriceConfig controls the best-effort BTC quote attached to earning entries.
type PriceConfig struct {
	Currency string
	Timeout  time.Duration
}

// DefaultPriceConfig returns EUR with a short timeout.
func DefaultPriceConfig() PriceConfig {
	return PriceConfig{Currency: "eur", Timeout: 2 * time.Second}
}

// quoter asks the feed for the BTC price at most once, on first use.
// Any failure yields nil: a missing quote never blocks a payout.
type quoter struct {
	feed earnings.PriceFeed
	cfg  PriceConfig
	log  *logger.Logger

	asked bool
	price *float64
}

func newQuoter(feed earnings.PriceFeed, cfg PriceConfig, log *logger.Logger) *quoter {
	return &quoter{feed: feed, cfg: cfg, log: log}
}

func (q *quoter) get(ctx context.Context) *float64 {
	if q == nil || q.feed == nil {
		return nil
	}
	if q.asked {
		return q.price
	}
	q.asked = true

	if q.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.Timeout)
		defer cancel()
	}
	price, err := q.feed.BTCPrice(ctx, q.cfg.Currency)
	if err != nil {
		q.log.Debug("btc quote skipped", logger.Err(err))
		return nil
	}
	q.price = &price
	return q.price
}

// payout settles req and appends the matching earning entry inside uow.
// The price is quoted only here, so duplicates and unpaid work never wait on the feed.
// A settlement error is returned as a SettlementFailure; the caller must roll back.
func payout(
	ctx context.Context,
	uow family.UnitOfWork,
	settler settlement.Settler,
	req settlement.Request,
	quote *quoter,
	now time.Time,
	op string,
) (*settlement.Receipt, error) {
	receipt, err := settler.Settle(ctx, req)
	if err != nil {
		if shared.IsSettlementFailure(err) {
			return nil, err
		}
		return nil, settlement.Failed(op, err)
	}

	entry := &earnings.Entry{
		ChildID:     req.ChildID,
		Sats:        req.Sats,
		Reason:      req.Reason,
		Reference:   req.IdempotencyKey,
		BTCPriceEUR: quote.get(ctx),
		CreatedAt:   now,
	}
	if _, err := uow.Earnings().Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("%s: append earning: %w", op, err)
	}
	return receipt, nil
}

// publishAll publishes events after commit. Failures are logged only.
func publishAll(publisher shared.EventPublisher, log *logger.Logger, events ...shared.Event) {
	if publisher == nil {
		return
	}
	for _, e := range events {
		if err := publisher.Publish(e); err != nil {
			log.Warn("failed to publish event", logger.String("event_type", string(e.EventType())), logger.Err(err))
		}
	}
}

// loadChild returns the child or ErrChildNotFound.
func loadChild(ctx context.Context, repos family.Repositories, id shared.ChildID) (*family.Child, error) {
	child, err := repos.Children().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return child, nil
}
