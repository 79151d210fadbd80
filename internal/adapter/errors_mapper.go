package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrValidation, body)
	case http.StatusUnauthorized:
		if strings.Contains(strings.ToLower(body), "two-factor") {
			return ErrTwoFactorRequired
		}
		return fmt.Errorf("%w: %s", ErrAuth, body)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusConflict:
		var record models.RemoteRecord
		if err := json.Unmarshal(resp.Body(), &record); err == nil && record.Version > 0 {
			return &VersionConflictError{Server: record}
		}
		return fmt.Errorf("%w: %s", ErrVersionConflict, body)
	case http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After"))}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: http %d: %s", ErrTransport, resp.StatusCode(), body)
	default:
		if body == "" {
			body = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
	}
}

// parseRetryAfter handles the delay-seconds form of the Retry-After header.
// The HTTP-date form is rare from rate limiters and is treated as absent.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
