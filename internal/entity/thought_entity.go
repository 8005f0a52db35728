package entity

import (
	"time"

	"github.com/google/uuid"
)

// TagProcessed marks a thought that already went through the processing
// pipeline. Thoughts carrying it are never selected again.
const TagProcessed = "processed"

type Thought struct {
	Id           uuid.UUID
	Text         string
	SemanticType *string
	Tags         []string
	Intensity    *int
	UserId       uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// HasTag reports membership; tag order is display order and is preserved
// elsewhere, membership checks ignore it.
func (t *Thought) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// AddTag appends the tag unless it is already present.
func (t *Thought) AddTag(tag string) {
	if !t.HasTag(tag) {
		t.Tags = append(t.Tags, tag)
	}
}

// RemoveTag removes the tag while keeping the remaining order intact.
func (t *Thought) RemoveTag(tag string) {
	filtered := t.Tags[:0]
	for _, existing := range t.Tags {
		if existing != tag {
			filtered = append(filtered, existing)
		}
	}
	t.Tags = filtered
}
