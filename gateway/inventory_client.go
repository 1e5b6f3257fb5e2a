package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"bookings/entity"
)

type InventoryClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewInventoryClient(httpClient *http.Client, baseURL string) InventoryClient {
	return InventoryClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

func (c InventoryClient) CheckStock(ctx context.Context, eventID string) (entity.EventStock, error) {
	url := fmt.Sprintf("%s/api/events/%s/stock", c.baseURL, eventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.EventStock{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.EventStock{}, fmt.Errorf("could not call inventory service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.EventStock{}, fmt.Errorf("unexpected status code while checking stock: %d", resp.StatusCode)
	}

	var stock entity.EventStock
	if err := json.NewDecoder(resp.Body).Decode(&stock); err != nil {
		return entity.EventStock{}, fmt.Errorf("could not decode stock response: %w", err)
	}

	return stock, nil
}

// ReserveSeat debits one seat. The inventory service is responsible for the
// atomicity of the check-and-decrement; a declined debit comes back as an error.
func (c InventoryClient) ReserveSeat(ctx context.Context, eventID string) error {
	return c.putSeatOp(ctx, eventID, "reserve")
}

// ReleaseSeat credits one seat back. This is the saga's only compensating action.
func (c InventoryClient) ReleaseSeat(ctx context.Context, eventID string) error {
	return c.putSeatOp(ctx, eventID, "release")
}

func (c InventoryClient) putSeatOp(ctx context.Context, eventID, op string) error {
	url := fmt.Sprintf("%s/api/events/%s/%s", c.baseURL, eventID, op)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not call inventory service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code while calling %s: %d", op, resp.StatusCode)
	}

	var ok bool
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		return fmt.Errorf("could not decode %s response: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("inventory service declined %s for event %s", op, eventID)
	}

	return nil
}
