package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Channels is the channel count of every decoded buffer.
const Channels = 2

// Runner executes a binary and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Decoder converts media files to PCM with ffmpeg.
type Decoder struct {
	binary string
	run    Runner
}

// NewDecoder returns a decoder for the given ffmpeg binary ("ffmpeg" when blank).
func NewDecoder(binary string) *Decoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Decoder{binary: binary, run: execRunner}
}

// WithRunner swaps the command runner, mainly for tests.
func (d *Decoder) WithRunner(r Runner) *Decoder {
	if d != nil && r != nil {
		d.run = r
	}
	return d
}

// Decode resamples path to rate Hz stereo and returns interleaved samples.
func (d *Decoder) Decode(ctx context.Context, path string, rate int) ([]int16, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("decode: empty path")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("decode %s: invalid sample rate %d", path, rate)
	}
	out, err := d.run(ctx, d.binary,
		"-v", "error",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(Channels),
		"pipe:1",
	)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return BytesToSamples(out), nil
}

// BytesToSamples converts little-endian bytes to samples, dropping a partial
// trailing frame.
func BytesToSamples(data []byte) []int16 {
	frameBytes := 2 * Channels
	data = data[:len(data)-len(data)%frameBytes]
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// Frames returns the number of multi-channel frames in samples.
func Frames(samples []int16) int {
	return len(samples) / Channels
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
