package service

import (
	"context"
	"testing"
	"time"

	"apparel-order-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	created []*models.EmployeeOrder
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, order *models.EmployeeOrder) error {
	f.created = append(f.created, order)
	return nil
}

func (f *fakeOrderStore) ListOrdersByStatus(ctx context.Context, status string) ([]models.EmployeeOrder, error) {
	return nil, nil
}

func (f *fakeOrderStore) DeleteOrder(ctx context.Context, id string) error {
	return nil
}

type fakeIdemStore struct {
	keys map[string]bool
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{keys: make(map[string]bool)}
}

func (f *fakeIdemStore) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	return f.keys[key], nil
}

func (f *fakeIdemStore) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.keys[key] = true
	return nil
}

func validSubmitRequest() *SubmitOrderRequest {
	return &SubmitOrderRequest{
		EmployeeName: "Avery",
		Shirts: [3]models.ItemSelection{
			{Style: "3600", Color: "Black", Size: "M"},
			{Style: "3600", Color: "White", Size: "M"},
			{Style: "6240", Color: "Black", Size: "L"},
		},
		Outerwear: models.ItemSelection{Style: "18500", Color: "Navy", Size: "L"},
	}
}

func TestValidateSubmissionAcceptsCompleteOrder(t *testing.T) {
	assert.NoError(t, validateSubmission(validSubmitRequest()))
}

func TestSubmitOrderRejectsReusedIdempotencyKey(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, newFakeIdemStore(), nil)

	first, err := svc.SubmitOrder(context.Background(), validSubmitRequest(), "retry-abc123")
	require.NoError(t, err)
	require.NotNil(t, first)

	// A client retry with the same key must not record a second order.
	second, err := svc.SubmitOrder(context.Background(), validSubmitRequest(), "retry-abc123")
	require.ErrorIs(t, err, ErrDuplicateSubmission)
	assert.Nil(t, second)
	assert.Len(t, store.created, 1)
}

func TestSubmitOrderWithoutIdempotencyKeyAlwaysRecords(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, newFakeIdemStore(), nil)

	_, err := svc.SubmitOrder(context.Background(), validSubmitRequest(), "")
	require.NoError(t, err)
	_, err = svc.SubmitOrder(context.Background(), validSubmitRequest(), "")
	require.NoError(t, err)

	assert.Len(t, store.created, 2)
}

func TestValidateSubmissionRequiresName(t *testing.T) {
	req := validSubmitRequest()
	req.EmployeeName = ""

	err := validateSubmission(req)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "employee_name", vErr.Field)
}

func TestValidateSubmissionRequiresAllShirtSlots(t *testing.T) {
	req := validSubmitRequest()
	req.Shirts[1].Size = ""

	err := validateSubmission(req)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "shirts[1]", vErr.Field)
}

func TestValidateSubmissionRequiresOuterwear(t *testing.T) {
	req := validSubmitRequest()
	req.Outerwear = models.ItemSelection{}

	err := validateSubmission(req)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "outerwear", vErr.Field)
}
