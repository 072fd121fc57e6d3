package client

import (
	"context"
	"fmt"
	"net/http"
)

// PropertyClient talks to the catalog service. The bookings service only
// needs an existence check; property data itself stays collaborator-owned.
type PropertyClient struct {
	http *HTTPClient
}

func NewPropertyClient(baseURL string) *PropertyClient {
	return &PropertyClient{http: NewHTTPClient(baseURL)}
}

func (c *PropertyClient) Exists(ctx context.Context, propertyID string) (bool, error) {
	resp, err := c.http.Get(ctx, "/api/v1/properties/id/"+propertyID)
	if err != nil {
		return false, fmt.Errorf("catalog lookup failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("catalog lookup returned status %d", resp.StatusCode)
	}
}
