package tricycle

import "time"

// Completion records a single finished question set for a stitch.
// A sequence of completions is enough to rebuild scheduler state via Replay.
type Completion struct {
	ThreadID       string    `json:"threadId"`
	StitchID       string    `json:"stitchId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	At             time.Time `json:"at"`
}

// Perfect reports whether every question in the set was answered correctly.
func (c Completion) Perfect() bool {
	return c.TotalQuestions > 0 && c.Score == c.TotalQuestions
}

// Replay applies a completion log to the scheduler, performing the same
// complete-then-rotate step the live path performs for each event.
// Events for unknown stitches are skipped, matching the live no-op policy.
func (s *Scheduler) Replay(events []Completion) {
	for _, ev := range events {
		if _, err := s.Complete(ev.ThreadID, ev.StitchID, ev.Score, ev.TotalQuestions); err != nil {
			s.logger.Printf("replay: skipping %s/%s: %v", ev.ThreadID, ev.StitchID, err)
			continue
		}
		s.Rotate()
	}
}
