// Package httputil provides HTTP utilities for outbound API calls.
//
// # Retry
//
// [Retry] wraps calls to external services with automatic retry for
// transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Wrap transient errors in [RetryableError] so Retry knows to attempt
// the operation again; other errors return immediately:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := callModel(ctx)
//	    if isTransient(err) {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return err
//	})
package httputil
