package models

import "time"

type RankedItem struct {
	ItemID string  `json:"itemId"`
	Score  float64 `json:"score"`
}

// RankedResult is one page of a ranked list. Cached copies are replaced,
// never edited.
type RankedResult struct {
	SubjectID    string       `json:"subjectId"`
	Kind         string       `json:"kind"`
	Items        []RankedItem `json:"items"`
	NextCursor   string       `json:"nextCursor,omitempty"`
	HasMore      bool         `json:"hasMore"`
	ComputedAt   time.Time    `json:"computedAt"`
	CacheVersion int64        `json:"cacheVersion"`
	Degraded     bool         `json:"degraded,omitempty"`
}
