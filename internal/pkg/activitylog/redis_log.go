package activitylog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listKey    = "pipeline:activity"
	maxEntries = 200
)

// Entry is one recorded pipeline event, newest first in the list.
type Entry struct {
	Kind      string    `json:"kind"` // attempt, failure, execution, revert
	ThoughtId string    `json:"thought_id,omitempty"`
	QueueId   string    `json:"queue_id,omitempty"`
	ActionId  string    `json:"action_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// Log keeps a bounded ring of recent pipeline activity in Redis so the
// client can show what the daemon has been doing. Failures to write are
// swallowed; the activity log is auxiliary and must never fail a request.
type Log struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Log {
	return &Log{rdb: rdb}
}

func (l *Log) Record(ctx context.Context, entry Entry) {
	if l == nil || l.rdb == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	pipe := l.rdb.Pipeline()
	pipe.LPush(ctx, listKey, data)
	pipe.LTrim(ctx, listKey, 0, maxEntries-1)
	_, _ = pipe.Exec(ctx)
}

func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l == nil || l.rdb == nil {
		return []Entry{}, nil
	}
	if limit <= 0 || limit > maxEntries {
		limit = maxEntries
	}
	raw, err := l.rdb.LRange(ctx, listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, line := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
