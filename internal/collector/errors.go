package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/newthinker/fundwatch/internal/core"
)

// ClassifyStatus maps a non-2xx HTTP status to a structured error.
func ClassifyStatus(provider string, status int) error {
	cause := fmt.Errorf("%s: unexpected status %d", provider, status)
	switch {
	case status == http.StatusTooManyRequests:
		return core.WrapError(core.ErrRateLimited, cause)
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return core.WrapError(core.ErrProviderTimeout, cause)
	default:
		return core.WrapError(core.ErrProviderFailed, cause)
	}
}

// ClassifyError maps a transport error to a structured error. Errors that
// already carry a core code are returned unchanged.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var coded *core.Error
	if errors.As(err, &coded) {
		return err
	}

	cause := fmt.Errorf("%s: %w", provider, err)
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrProviderTimeout, cause)
	}
	if errors.Is(err, context.Canceled) {
		return core.WrapError(core.ErrCancelled, cause)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.WrapError(core.ErrProviderTimeout, cause)
	}
	return core.WrapError(core.ErrProviderFailed, cause)
}
