// Package ffprobe wraps the ffprobe binary for the facts the compositor needs:
// how long a file plays, whether it carries audio, and at what sample rate.
//
// Key types:
//   - Result: decoded `-show_format -show_streams` JSON
//   - Info: the reduced view (duration, audio presence, sample rate)
//   - Prober: runs ffprobe through an injectable runner
package ffprobe
