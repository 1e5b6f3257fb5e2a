package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

type UsersClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewUsersClient(httpClient *http.Client, baseURL string) UsersClient {
	return UsersClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// ValidateUser asks the identity service whether the user may book.
// Transport errors are returned as-is; the orchestrator fails closed on them.
func (c UsersClient) ValidateUser(ctx context.Context, userID string) (bool, error) {
	url := fmt.Sprintf("%s/api/users/%s/validate", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("could not call users service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status code while validating user: %d", resp.StatusCode)
	}

	var valid bool
	if err := json.NewDecoder(resp.Body).Decode(&valid); err != nil {
		return false, fmt.Errorf("could not decode users service response: %w", err)
	}

	return valid, nil
}
