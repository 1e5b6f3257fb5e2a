package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"bookings/entity"
)

type PaymentsClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewPaymentsClient(httpClient *http.Client, baseURL string) PaymentsClient {
	return PaymentsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// ProcessPayment charges the given amount against the booking. A transport
// error here means the charge outcome is unknown to us, not that it failed.
func (c PaymentsClient) ProcessPayment(ctx context.Context, request entity.PaymentRequest) (entity.PaymentResult, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return entity.PaymentResult{}, fmt.Errorf("could not marshal payment request: %w", err)
	}

	url := c.baseURL + "/api/payments/process"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return entity.PaymentResult{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.PaymentResult{}, fmt.Errorf("could not call payments service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.PaymentResult{}, fmt.Errorf("unexpected status code while processing payment: %d", resp.StatusCode)
	}

	var result entity.PaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return entity.PaymentResult{}, fmt.Errorf("could not decode payment response: %w", err)
	}

	return result, nil
}

// GetPaymentByBookingID reads back the recorded outcome for a booking. Used to
// reconcile after an ambiguous ProcessPayment failure.
func (c PaymentsClient) GetPaymentByBookingID(ctx context.Context, bookingID string) (entity.PaymentResult, error) {
	url := fmt.Sprintf("%s/api/payments/booking/%s", c.baseURL, bookingID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.PaymentResult{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.PaymentResult{}, fmt.Errorf("could not call payments service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result entity.PaymentResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return entity.PaymentResult{}, fmt.Errorf("could not decode payment response: %w", err)
		}
		return result, nil
	case http.StatusNotFound:
		return entity.PaymentResult{}, fmt.Errorf("no payment recorded for booking %s: %w", bookingID, entity.ErrNotFound)
	default:
		return entity.PaymentResult{}, fmt.Errorf("unexpected status code while fetching payment: %d", resp.StatusCode)
	}
}
