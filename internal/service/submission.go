package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apparel-order-service/internal/broker"
	"apparel-order-service/internal/models"
	"apparel-order-service/internal/util"
	"apparel-order-service/internal/vendor"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmissionState is the explicit state of one bulk submission attempt.
type SubmissionState string

const (
	StateIdle       SubmissionState = "IDLE"
	StateValidating SubmissionState = "VALIDATING"
	StateSubmitting SubmissionState = "SUBMITTING"
	StateSubmitted  SubmissionState = "SUBMITTED"
	StateCompleting SubmissionState = "COMPLETING"
	StateCompleted  SubmissionState = "COMPLETED"
	StateFailed     SubmissionState = "FAILED"
)

// ErrSubmissionInFlight means another admin session holds the bulk
// submission lock.
var ErrSubmissionInFlight = errors.New("another bulk submission is in flight")

// submissionLockKey is the advisory lock guarding the pending set against
// overlapping bulk submissions from concurrent admin sessions.
const submissionLockKey = "bulk-submission"

// ShippingAddress is the destination for a bulk order.
type ShippingAddress struct {
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	Customer    string `json:"customer"`
	Attn        string `json:"attn"`
	Residential *bool  `json:"residential"`
}

// SubmitBatchRequest is the admin's bulk submission input.
type SubmitBatchRequest struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	ShippingMethod  int             `json:"shippingMethod"`
	PONumber        string          `json:"poNumber"`
	TestOrder       bool            `json:"testOrder"`
}

// Submission is the inspectable record of one bulk submission attempt. The
// "vendor accepted but completion failed" condition is a first-class value
// (state COMPLETING with a non-nil Err), not a swallowed exception.
type Submission struct {
	State       SubmissionState             `json:"state"`
	BatchID     string                      `json:"batch_id,omitempty"`
	PONumber    string                      `json:"po_number,omitempty"`
	TestOrder   bool                        `json:"test_order"`
	OrderIDs    []string                    `json:"order_ids,omitempty"`
	Lines       []models.AggregatedLineItem `json:"lines,omitempty"`
	SSOrderID   string                      `json:"ss_order_id,omitempty"`
	SSOrderDate time.Time                   `json:"ss_order_date,omitempty"`
	Err         error                       `json:"-"`
}

// BatchStore is the slice of the record store the orchestrator needs.
type BatchStore interface {
	ListOrdersByStatus(ctx context.Context, status string) ([]models.EmployeeOrder, error)
	CompleteBatch(ctx context.Context, ids []string, batchID, ssOrderID string, ssOrderDate time.Time) (int64, error)
}

// VendorOrderAPI is the slice of the vendor client the orchestrator needs.
type VendorOrderAPI interface {
	PlaceOrder(ctx context.Context, po *vendor.PurchaseOrder) (*vendor.OrderConfirmation, error)
}

// SubmissionLocker guards the pending set during a submission attempt.
type SubmissionLocker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// SubmissionOrchestrator drives a bulk submission through its states:
// validate, submit to the vendor, then complete every contributing record
// with one shared batch id. Side effects are strictly ordered: no record is
// ever mutated before the vendor call succeeds.
type SubmissionOrchestrator struct {
	store      BatchStore
	vendorAPI  VendorOrderAPI
	locker     SubmissionLocker
	aggregator *Aggregator
	publisher  *broker.EventPublisher
	poPrefix   string
	logger     *zap.Logger
	now        func() time.Time
}

// NewSubmissionOrchestrator creates the bulk submission orchestrator.
func NewSubmissionOrchestrator(
	store BatchStore,
	vendorAPI VendorOrderAPI,
	locker SubmissionLocker,
	aggregator *Aggregator,
	publisher *broker.EventPublisher,
	poPrefix string,
) *SubmissionOrchestrator {
	return &SubmissionOrchestrator{
		store:      store,
		vendorAPI:  vendorAPI,
		locker:     locker,
		aggregator: aggregator,
		publisher:  publisher,
		poPrefix:   poPrefix,
		logger:     util.GetLogger(),
		now:        time.Now,
	}
}

// Submit runs one bulk submission attempt end to end. On any failure before
// the vendor accepts, no record is mutated and the pending set is safe to
// retry. After vendor acceptance the only remaining failure mode is the
// completion write-back, surfaced as PostSubmitReconciliationError on the
// returned Submission.
func (o *SubmissionOrchestrator) Submit(ctx context.Context, req *SubmitBatchRequest) (*Submission, error) {
	ctx, span := util.StartSpan(ctx, "SubmissionOrchestrator.Submit")
	defer span.End()

	sub := &Submission{State: StateIdle, TestOrder: req.TestOrder}

	if o.locker != nil {
		acquired, err := o.locker.AcquireLock(ctx, submissionLockKey, 2*time.Minute)
		if err != nil {
			return o.fail(sub, fmt.Errorf("failed to acquire submission lock: %w", err))
		}
		if !acquired {
			return o.fail(sub, ErrSubmissionInFlight)
		}
		defer func() {
			if err := o.locker.ReleaseLock(context.Background(), submissionLockKey); err != nil {
				o.logger.Error("Failed to release submission lock", zap.Error(err))
			}
		}()
	}

	o.transition(sub, StateValidating)

	if err := validateAddress(&req.ShippingAddress); err != nil {
		util.BatchesFailedTotal.WithLabelValues("validation").Inc()
		return o.fail(sub, err)
	}

	pending, err := o.store.ListOrdersByStatus(ctx, models.OrderStatusPending)
	if err != nil {
		return o.fail(sub, fmt.Errorf("failed to load pending orders: %w", err))
	}
	if len(pending) == 0 {
		util.BatchesFailedTotal.WithLabelValues("validation").Inc()
		return o.fail(sub, &models.ValidationError{Reason: "no pending orders to submit"})
	}

	sub.OrderIDs = make([]string, len(pending))
	for i := range pending {
		sub.OrderIDs[i] = pending[i].ID
	}

	sub.Lines = o.aggregator.Aggregate(pending)

	// Unresolved composite keys are not real SKUs; the vendor would reject
	// or misread them. Test orders may carry them through, real ones may not.
	if !req.TestOrder {
		for _, line := range sub.Lines {
			if !line.Resolved {
				util.BatchesFailedTotal.WithLabelValues("validation").Inc()
				return o.fail(sub, &models.ValidationError{
					Field:  "lineItems",
					Reason: fmt.Sprintf("no vendor SKU mapping for %q; add it to sku_map before submitting", line.Identifier),
				})
			}
		}
	}

	sub.PONumber = req.PONumber
	if sub.PONumber == "" {
		sub.PONumber = fmt.Sprintf("%s-%s", o.poPrefix, o.now().Format("20060102-150405"))
	}

	o.transition(sub, StateSubmitting)

	po := buildPurchaseOrder(req, sub)

	start := o.now()
	conf, err := o.vendorAPI.PlaceOrder(ctx, po)
	util.VendorSubmitLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		var rejected *models.VendorRejectedError
		if errors.As(err, &rejected) {
			util.BatchesFailedTotal.WithLabelValues("vendor_rejected").Inc()
			o.logger.Warn("Vendor rejected bulk order",
				zap.Int("status", rejected.StatusCode),
				zap.String("po_number", sub.PONumber))
		} else {
			util.BatchesFailedTotal.WithLabelValues("transport").Inc()
		}
		return o.fail(sub, err)
	}

	o.transition(sub, StateSubmitted)
	util.BatchesSubmittedTotal.Inc()

	sub.SSOrderID = conf.OrderNumber
	if sub.SSOrderID == "" {
		// Degraded success: the vendor accepted but omitted an order number.
		// Fabricate a usable batch key so completion can still proceed.
		sub.SSOrderID = fmt.Sprintf("SS-%d", o.now().Unix())
		o.logger.Warn("Vendor confirmation had no order number, using fallback identifier",
			zap.String("ss_order_id", sub.SSOrderID))
	}
	sub.SSOrderDate = parseOrderDate(conf.OrderDate, o.now)
	sub.BatchID = uuid.New().String()

	o.logger.Info("Bulk order accepted by vendor",
		zap.String("ss_order_id", sub.SSOrderID),
		zap.String("batch_id", sub.BatchID),
		zap.String("po_number", sub.PONumber),
		zap.Bool("test_order", sub.TestOrder),
		zap.Int("orders", len(sub.OrderIDs)),
		zap.Int("lines", len(sub.Lines)))

	o.publishBatchSubmitted(ctx, sub)

	o.transition(sub, StateCompleting)

	affected, err := o.store.CompleteBatch(ctx, sub.OrderIDs, sub.BatchID, sub.SSOrderID, sub.SSOrderDate)
	if err != nil || affected != int64(len(sub.OrderIDs)) {
		if err == nil {
			err = fmt.Errorf("completed %d of %d records", affected, len(sub.OrderIDs))
		}
		reconcile := &models.PostSubmitReconciliationError{
			SSOrderID:   sub.SSOrderID,
			SSOrderDate: sub.SSOrderDate,
			BatchID:     sub.BatchID,
			PendingIDs:  sub.OrderIDs,
			Cause:       err,
		}
		util.BatchReconcileFailuresTotal.Inc()
		// The vendor already holds this order; a blind retry would
		// double-order every item still pending.
		o.logger.Error("Completion write-back failed after vendor acceptance",
			zap.String("ss_order_id", sub.SSOrderID),
			zap.String("batch_id", sub.BatchID),
			zap.Strings("order_ids", sub.OrderIDs),
			zap.Error(err))

		o.publishReconcileFailed(ctx, sub, err)

		sub.Err = reconcile
		return sub, reconcile
	}

	o.transition(sub, StateCompleted)
	o.publishBatchCompleted(ctx, sub)

	o.logger.Info("Batch completed",
		zap.String("batch_id", sub.BatchID),
		zap.String("ss_order_id", sub.SSOrderID),
		zap.Int("orders", len(sub.OrderIDs)))

	return sub, nil
}

func (o *SubmissionOrchestrator) transition(sub *Submission, next SubmissionState) {
	o.logger.Debug("Submission state transition",
		zap.String("from", string(sub.State)),
		zap.String("to", string(next)))
	sub.State = next
}

func (o *SubmissionOrchestrator) fail(sub *Submission, err error) (*Submission, error) {
	sub.State = StateFailed
	sub.Err = err
	return sub, err
}

func validateAddress(addr *ShippingAddress) error {
	switch {
	case addr.Address == "":
		return &models.ValidationError{Field: "shippingAddress.address", Reason: "is required"}
	case addr.City == "":
		return &models.ValidationError{Field: "shippingAddress.city", Reason: "is required"}
	case addr.State == "":
		return &models.ValidationError{Field: "shippingAddress.state", Reason: "is required"}
	case addr.Zip == "":
		return &models.ValidationError{Field: "shippingAddress.zip", Reason: "is required"}
	}
	return nil
}

func buildPurchaseOrder(req *SubmitBatchRequest, sub *Submission) *vendor.PurchaseOrder {
	residential := true
	if req.ShippingAddress.Residential != nil {
		residential = *req.ShippingAddress.Residential
	}

	method := req.ShippingMethod
	if method == 0 {
		method = 1 // Ground
	}

	lines := make([]vendor.OrderLine, len(sub.Lines))
	for i, line := range sub.Lines {
		lines[i] = vendor.OrderLine{SKU: line.Identifier, Qty: line.Qty}
	}

	return &vendor.PurchaseOrder{
		Address:        req.ShippingAddress.Address,
		City:           req.ShippingAddress.City,
		State:          req.ShippingAddress.State,
		Zip:            req.ShippingAddress.Zip,
		Customer:       req.ShippingAddress.Customer,
		Attn:           req.ShippingAddress.Attn,
		Residential:    residential,
		ShippingMethod: method,
		TestOrder:      req.TestOrder,
		PONumber:       sub.PONumber,
		Lines:          lines,
	}
}

func parseOrderDate(raw string, now func() time.Time) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now()
}

func (o *SubmissionOrchestrator) publishBatchSubmitted(ctx context.Context, sub *Submission) {
	if o.publisher == nil {
		return
	}
	total := 0
	for _, line := range sub.Lines {
		total += line.Qty
	}
	event := &models.BatchSubmittedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeBatchSubmitted),
		BatchID:    sub.BatchID,
		SSOrderID:  sub.SSOrderID,
		PONumber:   sub.PONumber,
		TestOrder:  sub.TestOrder,
		OrderIDs:   sub.OrderIDs,
		LineItems:  sub.Lines,
		TotalUnits: total,
	}
	if err := o.publisher.PublishBatchSubmitted(ctx, event); err != nil {
		o.logger.Error("Failed to publish BatchSubmitted event", zap.Error(err))
	}
}

func (o *SubmissionOrchestrator) publishBatchCompleted(ctx context.Context, sub *Submission) {
	if o.publisher == nil {
		return
	}
	event := &models.BatchCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeBatchCompleted),
		BatchID:    sub.BatchID,
		SSOrderID:  sub.SSOrderID,
		OrderIDs:   sub.OrderIDs,
		OrderCount: len(sub.OrderIDs),
	}
	if err := o.publisher.PublishBatchCompleted(ctx, event); err != nil {
		o.logger.Error("Failed to publish BatchCompleted event", zap.Error(err))
	}
}

func (o *SubmissionOrchestrator) publishReconcileFailed(ctx context.Context, sub *Submission, cause error) {
	if o.publisher == nil {
		return
	}
	event := &models.BatchReconcileFailedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeBatchReconcileFailed),
		BatchID:    sub.BatchID,
		SSOrderID:  sub.SSOrderID,
		PendingIDs: sub.OrderIDs,
		Reason:     cause.Error(),
	}
	if err := o.publisher.PublishBatchReconcileFailed(ctx, event); err != nil {
		o.logger.Error("Failed to publish BatchReconcileFailed event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
