// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations underneath it.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and event
//     indexes for logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     one classification (format, validation, configuration, synthesis,
//     parse, mix, mux) that the CLI can report.
//
// Subpackages hold the HTTP clients for the video-understanding and speech
// synthesis collaborators.
package services
