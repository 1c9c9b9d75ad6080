package flashcards

import "time"

// Advance applies one graded answer to a progress row and returns the new
// state. Pure: callers persist the result inside the review transaction.
//
// A correct answer climbs one rung (clamped at the top) and extends the
// streak; a miss drops one rung (clamped at the bottom) and resets the
// streak. The next review time always uses the post-transition interval.
// Points accumulate; a negative award counts as zero so the total never
// decreases.
func (l Ladder) Advance(p Progress, outcome string, points int, now time.Time) Progress {
	switch outcome {
	case OutcomeKnew:
		if p.IntervalIndex < l.MaxIndex() {
			p.IntervalIndex++
		}
		p.CorrectStreak++
		p.LastOutcome = LastOutcomeCorrect
	case OutcomeDidnt:
		if p.IntervalIndex > 0 {
			p.IntervalIndex--
		}
		p.CorrectStreak = 0
		p.LastOutcome = LastOutcomeIncorrect
	}

	p.SeenCount++
	p.NextReviewAt = now.Add(l.IntervalFor(p.IntervalIndex))
	p.LastReviewedAt.SetValid(now)

	if points > 0 {
		p.TotalPoints += points
	}
	return p
}
