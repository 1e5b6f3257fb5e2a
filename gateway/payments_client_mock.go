package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bookings/entity"
)

type PaymentsMock struct {
	lock sync.Mutex

	// Status is returned from ProcessPayment; defaults to SUCCESS.
	Status     string
	Message    string
	ProcessErr error

	// Reconciled is returned from GetPaymentByBookingID when set.
	Reconciled    *entity.PaymentResult
	ReconcileErr  error
	ProcessedReqs []entity.PaymentRequest
	ReconcileIDs  []string
}

func (m *PaymentsMock) ProcessPayment(ctx context.Context, request entity.PaymentRequest) (entity.PaymentResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.ProcessedReqs = append(m.ProcessedReqs, request)

	if m.ProcessErr != nil {
		return entity.PaymentResult{}, m.ProcessErr
	}

	status := m.Status
	if status == "" {
		status = entity.PaymentStatusSuccess
	}

	return entity.PaymentResult{
		TransactionID: uuid.NewString(),
		Status:        status,
		Message:       m.Message,
	}, nil
}

func (m *PaymentsMock) GetPaymentByBookingID(ctx context.Context, bookingID string) (entity.PaymentResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.ReconcileIDs = append(m.ReconcileIDs, bookingID)

	if m.ReconcileErr != nil {
		return entity.PaymentResult{}, m.ReconcileErr
	}
	if m.Reconciled != nil {
		return *m.Reconciled, nil
	}

	return entity.PaymentResult{}, entity.ErrNotFound
}
