package models

import (
	"fmt"
	"time"
)

// ValidationError is a user-correctable input problem, surfaced verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StockUnavailableError means the vendor stock fetch failed or returned
// nothing usable. Callers degrade to an empty orderable set; this never
// blocks the UI.
type StockUnavailableError struct {
	StyleCode string
	Cause     error
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("stock unavailable for style %s: %v", e.StyleCode, e.Cause)
}

func (e *StockUnavailableError) Unwrap() error { return e.Cause }

// VendorRejectedError is a non-2xx response from the vendor order endpoint.
// No local state was mutated; the pending set is safe to retry.
type VendorRejectedError struct {
	StatusCode int
	Body       string
}

func (e *VendorRejectedError) Error() string {
	return fmt.Sprintf("vendor rejected order: status=%d body=%s", e.StatusCode, e.Body)
}

// PostSubmitReconciliationError means the vendor accepted the order but the
// completion write-back failed or only partially applied. The orders named
// in PendingIDs are still marked pending for an order the vendor already
// placed; re-submitting them would double-order.
type PostSubmitReconciliationError struct {
	SSOrderID   string
	SSOrderDate time.Time
	BatchID     string
	PendingIDs  []string
	Cause       error
}

func (e *PostSubmitReconciliationError) Error() string {
	return fmt.Sprintf("vendor order %s placed but completion write-back failed for %d record(s): %v",
		e.SSOrderID, len(e.PendingIDs), e.Cause)
}

func (e *PostSubmitReconciliationError) Unwrap() error { return e.Cause }

// ConfigurationError is a missing-credential class failure. It is fatal at
// startup; it is never recovered per request.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}
