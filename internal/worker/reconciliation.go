package worker

import (
	"context"
	"log/slog"
	"time"

	"terra-storefront/internal/domain"
	"terra-storefront/internal/infrastructure/payment"
	"terra-storefront/internal/repo"
)

// ReconciliationWorker sweeps orders stuck in pending. A checkout can be
// abandoned after the gateway session was created, or the confirmation
// webhook can be lost; either way the gateway is the source of truth, so
// the sweep asks it and fixes the order to match.
type ReconciliationWorker struct {
	orderRepo repo.OrderRepo
	gateway   payment.Gateway
	interval  time.Duration
	olderThan time.Duration
	logger    *slog.Logger
}

func NewReconciliationWorker(
	orderRepo repo.OrderRepo,
	gateway payment.Gateway,
	interval, olderThan time.Duration,
	logger *slog.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		orderRepo: orderRepo,
		gateway:   gateway,
		interval:  interval,
		olderThan: olderThan,
		logger:    logger,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("reconciliation worker started",
		"interval", rw.interval, "older_than", rw.olderThan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rw.process(ctx); err != nil {
				rw.logger.Error("reconciliation sweep failed", "error", err)
			}
		}
	}
}

func (rw *ReconciliationWorker) process(ctx context.Context) error {
	stuck, err := rw.orderRepo.FindStuckPending(ctx, rw.olderThan)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	rw.logger.Info("found stuck pending orders", "count", len(stuck))

	for _, order := range stuck {
		rw.reconcile(ctx, order)
	}
	return nil
}

func (rw *ReconciliationWorker) reconcile(ctx context.Context, order domain.Order) {
	// No session id means the gateway call never succeeded; nothing was
	// ever chargeable, so the order can only age out.
	if order.PaymentSessionID == "" {
		if err := rw.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderFailed); err != nil {
			rw.logger.Error("failed to fail sessionless order",
				"order_id", order.ID, "error", err)
		}
		return
	}

	status, err := rw.gateway.CheckSession(ctx, order.PaymentSessionID)
	if err != nil {
		rw.logger.Warn("could not check session status, will retry next sweep",
			"order_id", order.ID, "error", err)
		return
	}

	switch status {
	case payment.SessionComplete:
		// The webhook never landed but the customer paid.
		changed, err := rw.orderRepo.MarkPaid(ctx, order.ID)
		if err != nil {
			rw.logger.Error("failed to mark reconciled order paid",
				"order_id", order.ID, "error", err)
			return
		}
		if changed {
			rw.logger.Info("reconciled stuck order to paid", "order_id", order.ID)
		}
	case payment.SessionExpired:
		if err := rw.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderFailed); err != nil {
			rw.logger.Error("failed to fail expired order",
				"order_id", order.ID, "error", err)
			return
		}
		rw.logger.Info("reconciled abandoned order to failed", "order_id", order.ID)
	default:
		// Still open at the gateway; leave it for a later sweep.
	}
}
