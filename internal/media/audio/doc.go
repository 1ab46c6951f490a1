// Package audio holds the PCM plumbing behind the timeline: decoding any
// input to interleaved 16-bit stereo through ffmpeg, summing gained layers
// with int16 clamping, and writing the result as a WAV file.
//
// All buffers are interleaved little-endian int16 with Channels channels.
package audio
