package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apparel-order-service/internal/broker"
	"apparel-order-service/internal/models"
	"apparel-order-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the slice of the record store the order service needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.EmployeeOrder) error
	ListOrdersByStatus(ctx context.Context, status string) ([]models.EmployeeOrder, error)
	DeleteOrder(ctx context.Context, id string) error
}

// IdempotencyStore dedups retried intake submissions by client-supplied key.
type IdempotencyStore interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ErrDuplicateSubmission means the idempotency key was already used by an
// earlier accepted submission.
var ErrDuplicateSubmission = errors.New("duplicate submission for idempotency key")

// idempotencyTTL outlives any plausible client retry window.
const idempotencyTTL = 24 * time.Hour

// OrderService handles employee order intake and the admin pending-set view.
type OrderService struct {
	store          OrderStore
	idem           IdempotencyStore
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, idem IdempotencyStore, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		idem:           idem,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SubmitOrderRequest is one employee's apparel selection: exactly three
// shirt slots and one outerwear slot.
type SubmitOrderRequest struct {
	EmployeeName string                 `json:"employee_name" binding:"required"`
	Shirts       [3]models.ItemSelection `json:"shirts"`
	Outerwear    models.ItemSelection    `json:"outerwear"`
}

// SubmitOrder validates and records an employee submission as pending.
// A non-empty idempotencyKey dedups client retries: a key that already
// produced an accepted order is rejected with ErrDuplicateSubmission.
func (s *OrderService) SubmitOrder(ctx context.Context, req *SubmitOrderRequest, idempotencyKey string) (*models.EmployeeOrder, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SubmitOrder")
	defer span.End()

	if err := validateSubmission(req); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("invalid_selection").Inc()
		return nil, err
	}

	if s.idem != nil && idempotencyKey != "" {
		seen, err := s.idem.CheckIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			// Dedup is best-effort: a redis outage must not block intake.
			s.logger.Warn("Idempotency check failed, accepting submission", zap.Error(err))
		} else if seen {
			util.OrdersRejectedTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicateSubmission
		}
	}

	order := &models.EmployeeOrder{
		ID:           uuid.New().String(),
		EmployeeName: req.EmployeeName,
		Shirt1Style:  &req.Shirts[0].Style, Shirt1Color: &req.Shirts[0].Color, Shirt1Size: &req.Shirts[0].Size,
		Shirt2Style: &req.Shirts[1].Style, Shirt2Color: &req.Shirts[1].Color, Shirt2Size: &req.Shirts[1].Size,
		Shirt3Style: &req.Shirts[2].Style, Shirt3Color: &req.Shirts[2].Color, Shirt3Size: &req.Shirts[2].Size,
		OuterType: &req.Outerwear.Style, OuterColor: &req.Outerwear.Color, OuterSize: &req.Outerwear.Size,
		Status: models.OrderStatusPending,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	util.OrdersReceivedTotal.Inc()
	s.logger.Info("Employee order recorded",
		zap.String("order_id", order.ID),
		zap.String("employee", order.EmployeeName))

	if s.idem != nil && idempotencyKey != "" {
		if err := s.idem.SetIdempotencyKey(ctx, idempotencyKey, order.ID, idempotencyTTL); err != nil {
			s.logger.Warn("Failed to record idempotency key", zap.Error(err))
		}
	}

	if s.eventPublisher != nil {
		event := &models.OrderReceivedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderReceived,
				Timestamp: time.Now(),
			},
			OrderID:      order.ID,
			EmployeeName: order.EmployeeName,
			SlotCount:    4,
		}
		if err := s.eventPublisher.PublishOrderReceived(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderReceived event", zap.Error(err))
		}
	}

	return order, nil
}

// ListOrders returns orders filtered by lifecycle status.
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.EmployeeOrder, error) {
	if status != models.OrderStatusPending && status != models.OrderStatusCompleted {
		return nil, &models.ValidationError{Field: "status", Reason: "must be pending or completed"}
	}
	return s.store.ListOrdersByStatus(ctx, status)
}

// DeleteOrder removes a pending order before it joins a batch.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}

	util.OrdersDeletedTotal.Inc()
	s.logger.Info("Pending order deleted", zap.String("order_id", id))

	if s.eventPublisher != nil {
		event := &models.OrderDeletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderDeleted,
				Timestamp: time.Now(),
			},
			OrderID: id,
		}
		if err := s.eventPublisher.PublishOrderDeleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
		}
	}
	return nil
}

func validateSubmission(req *SubmitOrderRequest) error {
	if req.EmployeeName == "" {
		return &models.ValidationError{Field: "employee_name", Reason: "is required"}
	}
	for i, shirt := range req.Shirts {
		if !shirt.Complete() {
			return &models.ValidationError{
				Field:  fmt.Sprintf("shirts[%d]", i),
				Reason: "style, color and size are all required",
			}
		}
	}
	if !req.Outerwear.Complete() {
		return &models.ValidationError{Field: "outerwear", Reason: "style, color and size are all required"}
	}
	return nil
}
