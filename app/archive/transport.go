package archive

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Transient statuses worth retrying. Only GET requests pass through this
// transport, so replaying is always safe.
var retryStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    float64
}

func newRetryTransport(maxRetries int, backoffFactor float64) http.RoundTripper {
	return &retryTransport{
		base:       http.DefaultTransport,
		maxRetries: maxRetries,
		backoff:    backoffFactor,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		var err error
		resp, err = t.base.RoundTrip(req)
		if err != nil {
			return err
		}
		if retryStatusCodes[resp.StatusCode] {
			resp.Body.Close()
			return fmt.Errorf("retryable status %d for %s", resp.StatusCode, req.URL)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(t.backoff * float64(time.Second))
	policy.RandomizationFactor = 0

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(t.maxRetries)), req.Context()))
	if err != nil {
		return nil, err
	}

	return resp, nil
}
