// Package llm provides an OpenRouter chat client for video understanding.
//
// DescribeVideo attaches the source video as a base64 data URL next to the
// commentary prompt and returns the text fragments of the reply; callers
// extract the commentary JSON with commentary.ExtractPayload.
//
// # Retry Behaviour
//
// Requests retry on HTTP 408/429/5xx, network timeouts and empty replies with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately. HealthCheck makes a single
// attempt so `crosstalk check` reports quickly.
package llm
