package plan

import "errors"

// KoachPerPage is the rate the app awards per page read.
const KoachPerPage = 5

var ErrInvalidPagesRead = errors.New("pages read must be a positive integer")

// ProgressResult describes what recording one reading session does to a plan.
type ProgressResult struct {
	TotalPagesRead int
	KoachEarned    int
	IsComplete     bool
	// JustCompleted is true only on the session that crosses the finish line.
	// Completion side effects (flag flip, notification) fire exactly once,
	// on this transition.
	JustCompleted bool
}

// ApplyProgress computes the accrual for pagesRead against a plan whose book
// has bookPageCount pages. Total pages read is clamped at the book's page
// count, so overshooting the final session does not inflate the plan. Koach
// is earned on the raw pagesRead regardless of the clamp.
func ApplyProgress(p *ReadingPlan, bookPageCount, pagesRead int) (ProgressResult, error) {
	if pagesRead <= 0 {
		return ProgressResult{}, ErrInvalidPagesRead
	}

	newTotal := p.TotalPagesRead + pagesRead
	if newTotal > bookPageCount {
		newTotal = bookPageCount
	}

	complete := newTotal >= bookPageCount

	return ProgressResult{
		TotalPagesRead: newTotal,
		KoachEarned:    pagesRead * KoachPerPage,
		IsComplete:     complete,
		JustCompleted:  complete && !p.IsCompleted,
	}, nil
}
