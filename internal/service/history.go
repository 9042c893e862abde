package service

import (
	"context"
	"time"

	"apparel-order-service/internal/models"
)

// HistoryStore is the slice of the record store the history view needs.
type HistoryStore interface {
	ListBatchSummaries(ctx context.Context) ([]models.BatchSummary, error)
	ListOrdersByBatch(ctx context.Context, ssOrderID string) ([]models.EmployeeOrder, error)
}

// HistoryService is the read-only audit view over completed batches. It
// never mutates records.
type HistoryService struct {
	store HistoryStore
}

// NewHistoryService creates the batch history view.
func NewHistoryService(store HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// ListBatches returns one summary per distinct vendor order identifier,
// newest first.
func (h *HistoryService) ListBatches(ctx context.Context) ([]models.BatchSummary, error) {
	summaries, err := h.store.ListBatchSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []models.BatchSummary{}
	}
	return summaries, nil
}

// BatchDetail is one batch with its member orders.
type BatchDetail struct {
	SSOrderID   string                 `json:"ss_order_id"`
	SSOrderDate time.Time              `json:"ss_order_date"`
	Orders      []models.EmployeeOrder `json:"orders"`
}

// GetBatch returns the members of one batch sorted by employee name.
func (h *HistoryService) GetBatch(ctx context.Context, ssOrderID string) (*BatchDetail, error) {
	orders, err := h.store.ListOrdersByBatch(ctx, ssOrderID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, &models.ValidationError{Field: "ss_order_id", Reason: "unknown batch"}
	}

	detail := &BatchDetail{SSOrderID: ssOrderID, Orders: orders}
	if orders[0].SSOrderDate != nil {
		detail.SSOrderDate = *orders[0].SSOrderDate
	}
	return detail, nil
}
