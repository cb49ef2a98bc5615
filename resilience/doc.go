// Package resilience retries transient failures of external collaborators
// (the whisper sidecar, the OpenAI API) with exponential backoff and jitter.
//
//	resp, err := resilience.Retry(ctx, cfg, func() (*Response, error) {
//	    return client.Do(req)
//	})
//
// By default only AppErrors flagged Retryable are retried.
package resilience
