package audio

import "math"

// Layer is one gained buffer placed at a frame offset on the output timeline.
type Layer struct {
	Samples     []int16
	OffsetFrame int
	Gain        float64
}

// Mix sums layers over their combined extent and clamps to int16.
func Mix(layers []Layer) []int16 {
	totalFrames := 0
	for _, layer := range layers {
		if end := max(layer.OffsetFrame, 0) + Frames(layer.Samples); end > totalFrames {
			totalFrames = end
		}
	}
	if totalFrames == 0 {
		return nil
	}

	acc := make([]float64, totalFrames*Channels)
	for _, layer := range layers {
		base := max(layer.OffsetFrame, 0) * Channels
		n := Frames(layer.Samples) * Channels
		for i := 0; i < n; i++ {
			acc[base+i] += float64(layer.Samples[i]) * layer.Gain
		}
	}

	out := make([]int16, len(acc))
	for i, v := range acc {
		out[i] = clamp(v)
	}
	return out
}

// Truncate returns at most frames frames of samples.
func Truncate(samples []int16, frames int) []int16 {
	if frames < 0 {
		frames = 0
	}
	if limit := frames * Channels; limit < len(samples) {
		return samples[:limit]
	}
	return samples
}

// SecondsToFrames converts a duration to a frame count at rate, rounding to nearest.
func SecondsToFrames(seconds float64, rate int) int {
	if seconds <= 0 || rate <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(rate)))
}

func clamp(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(v))
}
