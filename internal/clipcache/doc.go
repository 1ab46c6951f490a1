// Package clipcache stores synthesized audio in SQLite so repeated runs over
// the same commentary do not call the speech API again.
//
// Entries are keyed by a SHA-256 of everything that shapes the audio: voice,
// model, output format, voice settings and the spoken text. The cache is
// opt-in ([clip_cache] enabled = true) and can be inspected or emptied with
// `crosstalk cache stats` and `crosstalk cache clear`.
package clipcache
