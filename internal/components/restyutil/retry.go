package restyutil

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// SetLinearRetry makes the client try a request up to `attempts` times, waiting
// `unit * n` after the nth failed attempt. Only transport errors are retried
// unless retryOnStatus is set, in which case 4xx/5xx responses are retried too.
// The error of the last attempt is the one returned to the caller.
func SetLinearRetry(client *resty.Client, attempts int, unit time.Duration, retryOnStatus bool) {
	if attempts < 1 {
		attempts = 1
	}

	client.SetRetryCount(attempts - 1)
	client.SetRetryWaitTime(unit)
	client.SetRetryMaxWaitTime(unit * time.Duration(attempts))
	client.SetRetryAfter(func(_ *resty.Client, res *resty.Response) (time.Duration, error) {
		if res == nil || res.Request == nil {
			return unit, nil
		}
		return LinearBackoff(unit, res.Request.Attempt), nil
	})

	if retryOnStatus {
		client.AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return res != nil && res.StatusCode() >= 400
		})
	}
}

// LinearBackoff is the wait before retrying after the given (1-based) attempt.
func LinearBackoff(unit time.Duration, attempt int) time.Duration {
	return unit * time.Duration(attempt)
}
