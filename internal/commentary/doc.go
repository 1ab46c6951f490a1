// Package commentary models a generated commentary track: a match summary,
// the display names of the two commentator roles, and the time-ordered list
// of spoken events.
//
// FromPayload turns a loosely typed payload (as decoded from the video model
// or from a saved file) into an immutable Commentary. Payload, MarshalJSON,
// Load and Save produce the persisted form that FromPayload accepts back.
// ExtractPayload pulls the JSON object out of free-form model text.
package commentary
