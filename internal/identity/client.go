package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rideshare-platform/service-rides/internal/pkg/domain"
)

// DriverProfile is the identity service's view of a driver.
type DriverProfile struct {
	ID                    uuid.UUID `json:"id"`
	Email                 string    `json:"email"`
	FullName              string    `json:"full_name"`
	PhoneNumber           string    `json:"phone_number"`
	IsActive              bool      `json:"is_active"`
	DriverLicenseVerified bool      `json:"driver_license_verified"`
}

// Client resolves driver profiles from the external identity service. A 404
// means the driver does not exist; transport failures, timeouts and non-2xx
// responses surface as upstream-unavailable so an outage is never mistaken
// for an unknown driver.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	totalTimeout time.Duration
	logger       *zap.Logger
}

// NewClient creates an identity Client with bounded connect and total timeouts.
func NewClient(baseURL string, connectTimeout, totalTimeout time.Duration, logger *zap.Logger) *Client {
	if connectTimeout == 0 {
		connectTimeout = 5 * time.Second
	}
	if totalTimeout == 0 {
		totalTimeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		MaxIdleConnsPerHost: 4,
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   totalTimeout,
			Transport: transport,
		},
		totalTimeout: totalTimeout,
		logger:       logger,
	}
}

// ResolveDriver fetches the driver's profile. Transient failures are retried
// with exponential backoff; the whole operation, retries and waits included,
// is bounded by the total timeout. A definitive 404 is never retried.
func (c *Client) ResolveDriver(ctx context.Context, driverID uuid.UUID) (*DriverProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.totalTimeout)
	defer cancel()

	var profile *DriverProfile

	operation := func() error {
		p, err := c.fetchDriver(ctx, driverID)
		if err != nil {
			if domain.KindOf(err) == domain.KindDriverNotFound {
				return backoff.Permanent(err)
			}
			return err
		}
		profile = p
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		// An exhausted budget surfaces as a bare context error.
		var derr *domain.Error
		if !errors.As(err, &derr) {
			err = domain.NewUpstreamUnavailableError("identity service", err)
		}
		return nil, err
	}
	return profile, nil
}

func (c *Client) fetchDriver(ctx context.Context, driverID uuid.UUID) (*DriverProfile, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, driverID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewUpstreamUnavailableError("identity service", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("identity service request failed",
			zap.String("driver_id", driverID.String()),
			zap.Error(err),
		)
		return nil, domain.NewUpstreamUnavailableError("identity service", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var profile DriverProfile
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			return nil, domain.NewUpstreamUnavailableError("identity service", err)
		}
		return &profile, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NewDriverNotFoundError(driverID.String())

	default:
		c.logger.Warn("identity service returned unexpected status",
			zap.String("driver_id", driverID.String()),
			zap.Int("status", resp.StatusCode),
		)
		return nil, domain.NewUpstreamUnavailableError("identity service",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
