package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"apparel-order-service/internal/models"
	"apparel-order-service/internal/vendor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBatchStore struct {
	pending []models.EmployeeOrder

	completeCalls int
	completedIDs  []string
	batchID       string
	ssOrderID     string
	ssOrderDate   time.Time
	completeErr   error
	affected      int64
}

func (f *fakeBatchStore) ListOrdersByStatus(ctx context.Context, status string) ([]models.EmployeeOrder, error) {
	return f.pending, nil
}

func (f *fakeBatchStore) CompleteBatch(ctx context.Context, ids []string, batchID, ssOrderID string, ssOrderDate time.Time) (int64, error) {
	f.completeCalls++
	f.completedIDs = ids
	f.batchID = batchID
	f.ssOrderID = ssOrderID
	f.ssOrderDate = ssOrderDate
	if f.completeErr != nil {
		return 0, f.completeErr
	}
	if f.affected != 0 {
		return f.affected, nil
	}
	return int64(len(ids)), nil
}

type fakeVendor struct {
	calls int
	conf  *vendor.OrderConfirmation
	err   error
	last  *vendor.PurchaseOrder
}

func (f *fakeVendor) PlaceOrder(ctx context.Context, po *vendor.PurchaseOrder) (*vendor.OrderConfirmation, error) {
	f.calls++
	f.last = po
	if f.err != nil {
		return nil, f.err
	}
	return f.conf, nil
}

type fakeLocker struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.acquires++
	return !f.held, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, key string) error {
	f.releases++
	return nil
}

func pendingOrders() []models.EmployeeOrder {
	return []models.EmployeeOrder{
		fullOrder("ord-1", [3][3]string{
			{"3600", "Black", "M"}, {"3600", "White", "S"}, {"6240", "Black", "L"},
		}, [3]string{"18500", "Navy", "L"}),
		fullOrder("ord-2", [3][3]string{
			{"3600", "Black", "M"}, {"3600", "Royal", "M"}, {"6240", "White", "S"},
		}, [3]string{"18000", "Black", "XL"}),
	}
}

func validRequest() *SubmitBatchRequest {
	return &SubmitBatchRequest{
		ShippingAddress: ShippingAddress{
			Address:  "11 S State St",
			City:     "Lockport",
			State:    "IL",
			Zip:      "60441",
			Customer: "Iconik",
		},
		TestOrder: true,
	}
}

func newTestOrchestrator(store *fakeBatchStore, api *fakeVendor, locker SubmissionLocker) *SubmissionOrchestrator {
	o := NewSubmissionOrchestrator(store, api, locker, NewAggregator(nil), nil, "ICONIK")
	o.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func TestSubmitMissingZipRejectedBeforeVendorCall(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders()}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "123"}}
	o := newTestOrchestrator(store, api, nil)

	req := validRequest()
	req.ShippingAddress.Zip = ""

	sub, err := o.Submit(context.Background(), req)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StateFailed, sub.State)
	assert.Zero(t, api.calls, "validation failures must never reach the vendor")
	assert.Zero(t, store.completeCalls)
}

func TestSubmitEmptyPendingSetRejected(t *testing.T) {
	store := &fakeBatchStore{}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "123"}}
	o := newTestOrchestrator(store, api, nil)

	sub, err := o.Submit(context.Background(), validRequest())

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StateFailed, sub.State)
	assert.Zero(t, api.calls)
}

func TestSubmitVendorRejectionLeavesRecordsUntouched(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders()}
	api := &fakeVendor{err: &models.VendorRejectedError{StatusCode: 422, Body: `{"errors":[{"message":"invalid sku"}]}`}}
	o := newTestOrchestrator(store, api, nil)

	sub, err := o.Submit(context.Background(), validRequest())

	var rejected *models.VendorRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 422, rejected.StatusCode)
	assert.Equal(t, StateFailed, sub.State)
	assert.Equal(t, 1, api.calls)
	assert.Zero(t, store.completeCalls, "no record may be mutated when the vendor rejects")
}

func TestSubmitFallbackOrderIdentifierAndSharedBatch(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders()}
	// Vendor accepts but the confirmation carries no order number.
	api := &fakeVendor{conf: &vendor.OrderConfirmation{}}
	o := newTestOrchestrator(store, api, nil)

	sub, err := o.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, sub.State)
	expected := fmt.Sprintf("SS-%d", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Unix())
	assert.Equal(t, expected, sub.SSOrderID)

	assert.Equal(t, 1, store.completeCalls)
	assert.ElementsMatch(t, []string{"ord-1", "ord-2"}, store.completedIDs)
	assert.Equal(t, sub.BatchID, store.batchID)
	assert.Equal(t, expected, store.ssOrderID)
	assert.NotEmpty(t, sub.BatchID)
}

func TestSubmitSuccessUsesVendorOrderNumber(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders()}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "7041337", OrderDate: "2024-06-01"}}
	o := newTestOrchestrator(store, api, nil)

	sub, err := o.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "7041337", sub.SSOrderID)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), sub.SSOrderDate)

	// Payload carries the aggregated lines: 8 slots total across 2 records,
	// with the shared (3600, Black, M) triple merged into one line of 2.
	require.NotNil(t, api.last)
	total := 0
	for _, l := range api.last.Lines {
		total += l.Qty
	}
	assert.Equal(t, 8, total)
	assert.True(t, api.last.TestOrder)
	assert.True(t, api.last.Residential)
	assert.Equal(t, 1, api.last.ShippingMethod)
	assert.Equal(t, "ICONIK-20240601-120000", api.last.PONumber)
}

func TestSubmitPartialCompletionSurfacesReconciliationError(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders(), affected: 1}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "7041338"}}
	o := newTestOrchestrator(store, api, nil)

	sub, err := o.Submit(context.Background(), validRequest())

	var reconcile *models.PostSubmitReconciliationError
	require.ErrorAs(t, err, &reconcile)
	assert.Equal(t, "7041338", reconcile.SSOrderID)
	assert.ElementsMatch(t, []string{"ord-1", "ord-2"}, reconcile.PendingIDs)
	assert.Equal(t, StateCompleting, sub.State)
	assert.Same(t, reconcile, sub.Err)
}

func TestSubmitWriteBackErrorSurfacesReconciliationError(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders(), completeErr: errors.New("connection reset")}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "7041339"}}
	o := newTestOrchestrator(store, api, nil)

	_, err := o.Submit(context.Background(), validRequest())

	var reconcile *models.PostSubmitReconciliationError
	require.ErrorAs(t, err, &reconcile)
	assert.Equal(t, "7041339", reconcile.SSOrderID)
}

func TestSubmitRealOrderBlockedOnUnresolvedSKUs(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders()}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "123"}}
	// No resolver: everything falls back to composite keys.
	o := newTestOrchestrator(store, api, nil)

	req := validRequest()
	req.TestOrder = false

	_, err := o.Submit(context.Background(), req)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, api.calls)
}

func TestSubmitHeldLockRejectsAttempt(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders()}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "123"}}
	locker := &fakeLocker{held: true}
	o := newTestOrchestrator(store, api, locker)

	_, err := o.Submit(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Zero(t, api.calls)
	assert.Zero(t, locker.releases, "a lock we never held must not be released")
}

func TestSubmitReleasesLockAfterAttempt(t *testing.T) {
	store := &fakeBatchStore{pending: pendingOrders()}
	api := &fakeVendor{conf: &vendor.OrderConfirmation{OrderNumber: "123"}}
	locker := &fakeLocker{}
	o := newTestOrchestrator(store, api, locker)

	_, err := o.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, locker.acquires)
	assert.Equal(t, 1, locker.releases)
}
