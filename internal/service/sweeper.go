package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper periodically expires wallet orders that never got captured
// and surfaces states waiting on an operator. Expiring a pending order
// is safe: no seller credit or cascade has run for it.
type Sweeper struct {
	db                 *gorm.DB
	orderRepo          repository.OrderRepository
	idempotencyRepo    repository.IdempotencyRepository
	reconciliationRepo repository.ReconciliationRepository
	pendingTTL         time.Duration
}

func NewSweeper(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	idempotencyRepo repository.IdempotencyRepository,
	reconciliationRepo repository.ReconciliationRepository,
	pendingTTL time.Duration,
) *Sweeper {
	return &Sweeper{
		db:                 db,
		orderRepo:          orderRepo,
		idempotencyRepo:    idempotencyRepo,
		reconciliationRepo: reconciliationRepo,
		pendingTTL:         pendingTTL,
	}
}

// Schedule registers the sweep on the given cron. The schedule spec
// comes from config (e.g. "@every 15m").
func (s *Sweeper) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := s.Sweep(ctx); err != nil {
			zap.S().Errorw("settlement sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}

	return nil
}

func (s *Sweeper) Sweep(ctx context.Context) error {
	if err := s.expirePendingOrders(ctx); err != nil {
		return err
	}

	s.reportUnresolved(ctx)

	return nil
}

func (s *Sweeper) expirePendingOrders(ctx context.Context) error {
	cutoff := time.Now().Add(-s.pendingTTL)

	stale, err := s.orderRepo.FindStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale pending orders: %w", err)
	}

	for _, order := range stale {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.orderRepo.MarkFailed(ctx, tx, order.ID); err != nil {
				return err
			}
			return s.idempotencyRepo.SetStatusByOrder(ctx, tx, order.ID, model.IdemStatusFailed)
		})
		if err != nil {
			// A capture may have settled the order between the query
			// and the update; that is the race working as intended.
			zap.S().Warnw("could not expire pending order",
				"order_id", order.ID, "error", err)
			continue
		}

		zap.S().Infow("expired pending wallet order",
			"order_id", order.ID, "intent_id", order.WalletIntentID, "age", time.Since(order.CreatedAt))
	}

	return nil
}

// Reconciliations lists the records still waiting on an operator.
func (s *Sweeper) Reconciliations(ctx context.Context) ([]*model.ReconciliationRecord, error) {
	return s.reconciliationRepo.ListUnresolved(ctx)
}

// ResolveReconciliation marks a record as handled after the operator
// has refunded or re-recorded the charge out of band.
func (s *Sweeper) ResolveReconciliation(ctx context.Context, id string) error {
	if err := s.reconciliationRepo.Resolve(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "reconciliation record not found")
		}
		return fmt.Errorf("resolve reconciliation record: %w", err)
	}

	return nil
}

func (s *Sweeper) reportUnresolved(ctx context.Context) {
	records, err := s.reconciliationRepo.ListUnresolved(ctx)
	if err != nil {
		zap.S().Errorw("failed to list reconciliation records", "error", err)
	} else if len(records) > 0 {
		zap.S().Errorw("unresolved reconciliation records awaiting an operator",
			"count", len(records))
	}

	cutoff := time.Now().Add(-s.pendingTTL)
	keys, err := s.idempotencyRepo.FindStaleUnknown(ctx, cutoff)
	if err != nil {
		zap.S().Errorw("failed to list unconfirmed idempotency keys", "error", err)
	} else if len(keys) > 0 {
		zap.S().Errorw("idempotency keys with unconfirmed charges awaiting reconciliation",
			"count", len(keys))
	}
}
