package gateway

import (
	"context"
	"fmt"
	"sync"

	"bookings/entity"
)

// InventoryMock keeps a seat counter per event so tests can assert that a
// compensated saga restores the original count.
type InventoryMock struct {
	lock sync.Mutex

	Seats map[string]int

	CheckStockErr error
	ReserveErr    error
	ReleaseErr    error

	CheckStockCalls []string
	ReserveCalls    []string
	ReleaseCalls    []string
}

func NewInventoryMock(seats map[string]int) *InventoryMock {
	if seats == nil {
		seats = map[string]int{}
	}
	return &InventoryMock{Seats: seats}
}

func (m *InventoryMock) CheckStock(ctx context.Context, eventID string) (entity.EventStock, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.CheckStockCalls = append(m.CheckStockCalls, eventID)

	if m.CheckStockErr != nil {
		return entity.EventStock{}, m.CheckStockErr
	}

	seats := m.Seats[eventID]
	return entity.EventStock{
		EventID:        eventID,
		AvailableSeats: seats,
		HasStock:       seats > 0,
	}, nil
}

func (m *InventoryMock) ReserveSeat(ctx context.Context, eventID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.ReserveCalls = append(m.ReserveCalls, eventID)

	if m.ReserveErr != nil {
		return m.ReserveErr
	}

	if m.Seats[eventID] <= 0 {
		return fmt.Errorf("inventory service declined reserve for event %s", eventID)
	}
	m.Seats[eventID]--

	return nil
}

func (m *InventoryMock) ReleaseSeat(ctx context.Context, eventID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.ReleaseCalls = append(m.ReleaseCalls, eventID)

	if m.ReleaseErr != nil {
		return m.ReleaseErr
	}

	m.Seats[eventID]++

	return nil
}

func (m *InventoryMock) AvailableSeats(eventID string) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.Seats[eventID]
}
