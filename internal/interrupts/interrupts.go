// Package interrupts computes where a commentator's clip must stop because
// another commentator talks over it.
package interrupts

import (
	"strconv"

	"crosstalk/internal/commentary"
	"crosstalk/internal/voices"
)

// Cutoff is the optional time, in seconds from timeline zero, at which an
// event's clip is truncated. The zero value means the clip plays out.
type Cutoff struct {
	Seconds float64
	Set     bool
}

// At returns a cutoff set to seconds.
func At(seconds float64) Cutoff {
	return Cutoff{Seconds: seconds, Set: true}
}

func (c Cutoff) String() string {
	if !c.Set {
		return "-"
	}
	return strconv.FormatFloat(c.Seconds, 'f', -1, 64)
}

// Compute returns one cutoff per event, aligned by index. events must be in
// start order. An event that names an interrupt target cuts the target's most
// recent earlier event at its own start time; repeated interruptions keep the
// earliest cutoff. An event never cuts a clip from its own commentator.
func Compute(events []commentary.Event) []Cutoff {
	cutoffs := make([]Cutoff, len(events))
	lastIndex := make(map[string]int, 2)

	for i, event := range events {
		speaker := Key(event.Commentator)
		if target := Key(event.Interrupts); target != "" && target != speaker {
			if prior, ok := lastIndex[target]; ok && prior < i {
				candidate := event.StartSeconds
				if !cutoffs[prior].Set || candidate < cutoffs[prior].Seconds {
					cutoffs[prior] = At(candidate)
				}
			}
		}
		if speaker != "" {
			lastIndex[speaker] = i
		}
	}
	return cutoffs
}

// Key is the comparison key for a commentator or interrupt target: the
// normalized name, with the exact role aliases folded onto their role.
func Key(name string) string {
	normalized := voices.Normalize(name)
	if normalized == "" {
		return ""
	}
	for role, aliases := range roleAliases {
		for _, alias := range aliases {
			if voices.Normalize(alias) == normalized {
				return voices.Normalize(role)
			}
		}
	}
	return normalized
}

var roleAliases = map[string][]string{
	commentary.RolePrimary:   voices.PrimaryAliases,
	commentary.RoleSecondary: voices.SecondaryAliases,
}
