package typing

// Thresholds in rows; narrow terminals behave like touch screens and get more slack.
const (
	ScrollThreshold       = 10
	NarrowScrollThreshold = 50
	NarrowWidth           = 80
)

// ScrollTracker remembers whether the reader moved away from the bottom of the transcript.
type ScrollTracker struct {
	scrolledUp bool
}

func (s *ScrollTracker) Update(offset, viewport, content, width int) {
	threshold := ScrollThreshold
	if width < NarrowWidth {
		threshold = NarrowScrollThreshold
	}
	atBottom := offset+viewport >= content-threshold
	s.scrolledUp = !atBottom
}

// Reset restores auto-scroll; called when a new animation starts.
func (s *ScrollTracker) Reset() {
	s.scrolledUp = false
}

func (s *ScrollTracker) AutoScroll() bool {
	return !s.scrolledUp
}
