package challenge

import "errors"

var (
	ErrAlreadyJoined    = errors.New("already joined this challenge")
	ErrPrivateChallenge = errors.New("challenge is private")
	ErrProgressDecrease = errors.New("progress cannot decrease")
	ErrNegativeProgress = errors.New("progress must be a non-negative integer")
)

// ProgressResult describes what a progress update does to a participant.
type ProgressResult struct {
	Progress   int
	IsComplete bool
	// JustCompleted is true only on the update that first reaches the
	// target. The active→completed transition and its notifications happen
	// once, here.
	JustCompleted bool
}

// ApplyProgress validates newProgress against the participant's current state
// and the challenge target. Progress is monotonic: a decrease is rejected
// rather than silently accepted.
func ApplyProgress(p *Participant, c *Challenge, newProgress int) (ProgressResult, error) {
	if newProgress < 0 {
		return ProgressResult{}, ErrNegativeProgress
	}
	if newProgress < p.Progress {
		return ProgressResult{}, ErrProgressDecrease
	}

	complete := newProgress >= c.Target

	return ProgressResult{
		Progress:      newProgress,
		IsComplete:    complete,
		JustCompleted: complete && p.Status == StatusActive,
	}, nil
}
