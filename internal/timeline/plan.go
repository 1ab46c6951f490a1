package timeline

import (
	"context"
	"fmt"

	"crosstalk/internal/commentary"
	"crosstalk/internal/interrupts"
	"crosstalk/internal/media/ffprobe"
	"crosstalk/internal/services"
)

// Prober reports duration, audio presence and sample rate of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Request lists everything needed to lay out the track.
type Request struct {
	// BackgroundPath is the source video (or any audio file). Blank means no
	// background bed.
	BackgroundPath   string
	Clips            []string
	Events           []commentary.Event
	Cutoffs          []interrupts.Cutoff
	BackgroundVolume float64
	CommentaryVolume float64
}

// Placement is one clip's position on the timeline.
type Placement struct {
	Index          int
	Path           string
	Commentator    string
	StartSeconds   float64
	NaturalSeconds float64
	EndSeconds     float64
	Cutoff         interrupts.Cutoff
	Truncated      bool
	Dropped        bool
	SampleRate     int
}

// AudibleSeconds is how long the placement plays.
func (p Placement) AudibleSeconds() float64 {
	if p.Dropped {
		return 0
	}
	return p.EndSeconds - p.StartSeconds
}

// Plan is the resolved layout before decoding.
type Plan struct {
	Background *ffprobe.Info
	Placements []Placement
	SampleRate int
}

// Audible returns the placements that contribute to the mix.
func (p Plan) Audible() []Placement {
	out := make([]Placement, 0, len(p.Placements))
	for _, placement := range p.Placements {
		if !placement.Dropped {
			out = append(out, placement)
		}
	}
	return out
}

// LayerCount is the number of layers the mix will sum.
func (p Plan) LayerCount() int {
	n := len(p.Audible())
	if p.Background != nil {
		n++
	}
	return n
}

// Place applies a cutoff to a clip starting at start that would naturally
// play for natural seconds. It returns where the clip ends, whether the end
// moved, and whether the remainder is too short to keep.
func Place(start, natural float64, cutoff interrupts.Cutoff, minAudible float64) (end float64, truncated, dropped bool) {
	end = start + natural
	if !cutoff.Set {
		return end, false, false
	}
	allowed := min(end, cutoff.Seconds)
	if allowed <= start+minAudible {
		return allowed, false, true
	}
	return allowed, allowed < end, false
}

// Plan probes the inputs and lays out every clip.
func (c *Compositor) Plan(ctx context.Context, req Request) (Plan, error) {
	if len(req.Clips) != len(req.Events) || len(req.Events) != len(req.Cutoffs) {
		return Plan{}, services.Wrap(services.ErrValidation, "compose", "plan",
			fmt.Sprintf("clip, event and cutoff counts differ (%d clips, %d events, %d cutoffs)",
				len(req.Clips), len(req.Events), len(req.Cutoffs)), nil)
	}

	var plan Plan
	if req.BackgroundPath != "" {
		info, err := c.prober.Probe(ctx, req.BackgroundPath)
		if err != nil {
			return Plan{}, services.Wrap(services.ErrMix, "compose", "probe background", req.BackgroundPath, err)
		}
		if info.HasAudio {
			plan.Background = &info
		} else {
			c.logger.Info("source has no audio stream; mixing commentary only")
		}
	}

	plan.Placements = make([]Placement, len(req.Events))
	for i, event := range req.Events {
		info, err := c.prober.Probe(ctx, req.Clips[i])
		if err != nil {
			return Plan{}, services.Wrap(services.ErrMix, "compose", "probe clip", req.Clips[i], err)
		}
		end, truncated, dropped := Place(event.StartSeconds, info.DurationSeconds, req.Cutoffs[i], c.minAudible)
		plan.Placements[i] = Placement{
			Index:          i,
			Path:           req.Clips[i],
			Commentator:    event.Commentator,
			StartSeconds:   event.StartSeconds,
			NaturalSeconds: info.DurationSeconds,
			EndSeconds:     end,
			Cutoff:         req.Cutoffs[i],
			Truncated:      truncated,
			Dropped:        dropped,
			SampleRate:     info.SampleRate,
		}
	}

	plan.SampleRate = c.negotiateRate(plan)
	return plan, nil
}

// negotiateRate picks the first layer's rate, background first.
func (c *Compositor) negotiateRate(plan Plan) int {
	if plan.Background != nil && plan.Background.SampleRate > 0 {
		return plan.Background.SampleRate
	}
	for _, placement := range plan.Audible() {
		if placement.SampleRate > 0 {
			return placement.SampleRate
		}
	}
	return c.defaultRate
}
