// Package notifications publishes run outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Each Event maps to a fixed title, tag set
// and priority; Payload carries the event's free-form fields.
package notifications
