package selector

import (
	"lifeflow-be/internal/entity"

	"github.com/google/uuid"
)

// Candidates returns the thoughts eligible for a new processing attempt:
// thoughts whose tag set does not contain the "processed" marker and whose
// id is not referenced by any queue item. A queue item in any status blocks
// re-selection; retrying a failed thought requires deleting its item first.
//
// Pure function, no side effects. Source order is preserved, so the daemon's
// "take the head" rule processes the oldest unenqueued thought first.
func Candidates(thoughts []*entity.Thought, queue []*entity.QueueItem) []*entity.Thought {
	enqueued := make(map[uuid.UUID]struct{}, len(queue))
	for _, item := range queue {
		enqueued[item.ThoughtId] = struct{}{}
	}

	var out []*entity.Thought
	for _, thought := range thoughts {
		if thought.HasTag(entity.TagProcessed) {
			continue
		}
		if _, ok := enqueued[thought.Id]; ok {
			continue
		}
		out = append(out, thought)
	}
	return out
}
