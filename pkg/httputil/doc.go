// Package httputil provides the HTTP plumbing used to fetch remote source
// trees.
//
//   - [Client]: GET with default headers, status classification and a
//     response size limit
//   - [Retry]: retry with exponential backoff for transient failures,
//     honoring Retry-After
//
// Transient failures (network errors, 5xx and 429 responses) are wrapped in
// [RetryableError]; [Retry] only retries those. All other failures are
// returned as coded errors from [github.com/matzehuels/slocmap/pkg/errors].
//
//	c := httputil.NewClient(map[string]string{"Accept": "application/json"})
//	var body []byte
//	err := httputil.Retry(ctx, 3, time.Second, func() (err error) {
//		body, err = c.Fetch(ctx, url)
//		return err
//	})
package httputil
