package collector

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultRetryWaitTime    = 500 * time.Millisecond
	defaultRetryMaxWaitTime = 5 * time.Second
	userAgent               = "Mozilla/5.0 (compatible; fundwatch/1.0)"
)

// HTTPConfig configures a provider HTTP client.
type HTTPConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// NewHTTPClient creates a resty client with a per-request timeout and retry
// with backoff on network errors, 5xx, 408 and 429.
func NewHTTPClient(cfg HTTPConfig, log *zap.Logger) *resty.Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(func(r *resty.Response, err error) {
			fields := []zap.Field{
				zap.String("url", r.Request.URL),
				zap.Int("attempt", r.Request.Attempt),
			}
			if err != nil {
				log.Debug("retrying request due to error", append(fields, zap.Error(err))...)
				return
			}
			log.Debug("retrying request due to status code", append(fields, zap.Int("status_code", r.StatusCode()))...)
		})

	return client
}

// retryCondition determines whether a request should be retried
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	switch code := r.StatusCode(); {
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}
