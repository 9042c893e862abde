package models

import "time"

// Event types
const (
	EventTypeOrderReceived        = "ORDER_RECEIVED"
	EventTypeOrderDeleted         = "ORDER_DELETED"
	EventTypeBatchSubmitted       = "BATCH_SUBMITTED"
	EventTypeBatchCompleted       = "BATCH_COMPLETED"
	EventTypeBatchReconcileFailed = "BATCH_RECONCILE_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderReceivedEvent published when an employee order is recorded
type OrderReceivedEvent struct {
	BaseEvent
	OrderID      string `json:"order_id"`
	EmployeeName string `json:"employee_name"`
	SlotCount    int    `json:"slot_count"`
}

// OrderDeletedEvent published when an admin removes a pending order
type OrderDeletedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
}

// BatchSubmittedEvent published after the vendor accepts a bulk order,
// before the completion write-back.
type BatchSubmittedEvent struct {
	BaseEvent
	BatchID    string               `json:"batch_id"`
	SSOrderID  string               `json:"ss_order_id"`
	PONumber   string               `json:"po_number"`
	TestOrder  bool                 `json:"test_order"`
	OrderIDs   []string             `json:"order_ids"`
	LineItems  []AggregatedLineItem `json:"line_items"`
	TotalUnits int                  `json:"total_units"`
}

// BatchCompletedEvent published once every contributing order carries the
// shared batch and vendor order identifiers.
type BatchCompletedEvent struct {
	BaseEvent
	BatchID    string   `json:"batch_id"`
	SSOrderID  string   `json:"ss_order_id"`
	OrderIDs   []string `json:"order_ids"`
	OrderCount int      `json:"order_count"`
}

// BatchReconcileFailedEvent published when the vendor accepted the order but
// the completion write-back did not fully apply. This is the loud path: the
// audit worker logs it at error level with the vendor order number.
type BatchReconcileFailedEvent struct {
	BaseEvent
	BatchID    string   `json:"batch_id"`
	SSOrderID  string   `json:"ss_order_id"`
	PendingIDs []string `json:"pending_ids"`
	Reason     string   `json:"reason"`
}
