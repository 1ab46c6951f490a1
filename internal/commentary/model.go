package commentary

import "maps"

// Event is a single scheduled line. StartSeconds is derived from Timestamp
// when the event is built; Interrupts is empty when the event interrupts no one.
type Event struct {
	Timestamp    string
	Commentator  string
	Call         string
	Context      string
	Interrupts   string
	StartSeconds float64
}

// HasInterrupt reports whether the event names a role it talks over.
func (e Event) HasInterrupt() bool {
	return e.Interrupts != ""
}

// Skipped records a payload element that was dropped during construction.
type Skipped struct {
	// Index is the 0-based position in the raw events list.
	Index  int
	Reason string
}

// Commentary is the validated aggregate. It is read-only after construction;
// accessors hand out copies.
type Commentary struct {
	matchSummary string
	commentators map[string]string
	events       []Event
	skipped      []Skipped
}

func (c *Commentary) MatchSummary() string {
	return c.matchSummary
}

// Commentators returns role → display name for both recognized roles.
func (c *Commentary) Commentators() map[string]string {
	return maps.Clone(c.commentators)
}

// Label returns the display name of role, or "" for unknown roles.
func (c *Commentary) Label(role string) string {
	return c.commentators[role]
}

// Events returns the events ordered by start time.
func (c *Commentary) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Commentary) Len() int {
	return len(c.events)
}

// Event returns the i-th event in start order.
func (c *Commentary) Event(i int) Event {
	return c.events[i]
}

// Skipped lists elements dropped from the raw payload, in payload order.
func (c *Commentary) Skipped() []Skipped {
	out := make([]Skipped, len(c.skipped))
	copy(out, c.skipped)
	return out
}
