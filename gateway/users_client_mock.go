package gateway

import (
	"context"
	"sync"
)

type UsersMock struct {
	lock sync.Mutex

	Valid bool
	Err   error

	ValidatedUserIDs []string
}

func (m *UsersMock) ValidateUser(ctx context.Context, userID string) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.ValidatedUserIDs = append(m.ValidatedUserIDs, userID)

	if m.Err != nil {
		return false, m.Err
	}

	return m.Valid, nil
}
