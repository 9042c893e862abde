package worker

import (
	"context"
	"log"

	"apparel-order-service/internal/broker"
	"apparel-order-service/internal/models"
	"apparel-order-service/internal/store"
	"apparel-order-service/internal/util"

	"go.uber.org/zap"
)

// AuditWorker consumes domain events for the audit trail. It is the second
// line of defense for reconciliation failures: a BatchReconcileFailed event
// is logged at error level with the vendor order number so a human can
// reconcile manually even if the HTTP response was lost.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewAuditWorker creates the audit worker.
func NewAuditWorker(consumer *broker.Consumer, st *store.Store) *AuditWorker {
	w := &AuditWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderReceived(w.handleOrderReceived)
	eventHandler.OnOrderDeleted(w.handleOrderDeleted)
	eventHandler.OnBatchSubmitted(w.handleBatchSubmitted)
	eventHandler.OnBatchCompleted(w.handleBatchCompleted)
	eventHandler.OnBatchReconcileFailed(w.handleReconcileFailed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	log.Println("Starting audit worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	log.Println("Stopping audit worker...")
	return w.consumer.Close()
}

// seen dedups redelivered events via the processed_events table.
func (w *AuditWorker) seen(ctx context.Context, event models.BaseEvent) bool {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		w.logger.Error("Failed to check event processed", zap.Error(err))
		return false
	}
	return processed
}

func (w *AuditWorker) mark(ctx context.Context, event models.BaseEvent) {
	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}
}

func (w *AuditWorker) handleOrderReceived(ctx context.Context, event *models.OrderReceivedEvent) error {
	if w.seen(ctx, event.BaseEvent) {
		return nil
	}
	w.logger.Info("Audit: employee order received",
		zap.String("order_id", event.OrderID),
		zap.String("employee", event.EmployeeName))
	w.mark(ctx, event.BaseEvent)
	return nil
}

func (w *AuditWorker) handleOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	if w.seen(ctx, event.BaseEvent) {
		return nil
	}
	w.logger.Info("Audit: pending order deleted", zap.String("order_id", event.OrderID))
	w.mark(ctx, event.BaseEvent)
	return nil
}

func (w *AuditWorker) handleBatchSubmitted(ctx context.Context, event *models.BatchSubmittedEvent) error {
	if w.seen(ctx, event.BaseEvent) {
		return nil
	}
	w.logger.Info("Audit: bulk order submitted to vendor",
		zap.String("batch_id", event.BatchID),
		zap.String("ss_order_id", event.SSOrderID),
		zap.String("po_number", event.PONumber),
		zap.Bool("test_order", event.TestOrder),
		zap.Int("orders", len(event.OrderIDs)),
		zap.Int("total_units", event.TotalUnits))
	w.mark(ctx, event.BaseEvent)
	return nil
}

func (w *AuditWorker) handleBatchCompleted(ctx context.Context, event *models.BatchCompletedEvent) error {
	if w.seen(ctx, event.BaseEvent) {
		return nil
	}
	w.logger.Info("Audit: batch completed",
		zap.String("batch_id", event.BatchID),
		zap.String("ss_order_id", event.SSOrderID),
		zap.Int("orders", event.OrderCount))
	w.mark(ctx, event.BaseEvent)
	return nil
}

func (w *AuditWorker) handleReconcileFailed(ctx context.Context, event *models.BatchReconcileFailedEvent) error {
	if w.seen(ctx, event.BaseEvent) {
		return nil
	}
	w.logger.Error("Audit: vendor order placed but completion write-back failed - manual reconciliation required",
		zap.String("batch_id", event.BatchID),
		zap.String("ss_order_id", event.SSOrderID),
		zap.Strings("pending_ids", event.PendingIDs),
		zap.String("reason", event.Reason))
	w.mark(ctx, event.BaseEvent)
	return nil
}
