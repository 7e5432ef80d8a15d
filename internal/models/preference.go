package models

import (
	"maps"
	"slices"
	"time"
)

// PreferenceVector is a per-user topic weighting. Revision increases on
// every committed write.
type PreferenceVector struct {
	UserID          string             `json:"userId"`
	InterestWeights map[string]float64 `json:"interestWeights"`
	ExplicitTopics  []string           `json:"explicitTopics"`
	LastUpdated     time.Time          `json:"lastUpdated"`
	Revision        int64              `json:"revision"`
}

func NewPreferenceVector(userID string) *PreferenceVector {
	return &PreferenceVector{
		UserID:          userID,
		InterestWeights: map[string]float64{},
		ExplicitTopics:  []string{},
	}
}

// Clone returns a deep copy; committed vectors are never mutated in place.
func (v *PreferenceVector) Clone() *PreferenceVector {
	out := *v
	out.InterestWeights = maps.Clone(v.InterestWeights)
	if out.InterestWeights == nil {
		out.InterestWeights = map[string]float64{}
	}
	out.ExplicitTopics = slices.Clone(v.ExplicitTopics)
	if out.ExplicitTopics == nil {
		out.ExplicitTopics = []string{}
	}
	return &out
}

func (v *PreferenceVector) IsExplicit(topic string) bool {
	_, ok := slices.BinarySearch(v.ExplicitTopics, topic)
	return ok
}

func (v *PreferenceVector) MarkExplicit(topic string) {
	i, ok := slices.BinarySearch(v.ExplicitTopics, topic)
	if !ok {
		v.ExplicitTopics = slices.Insert(v.ExplicitTopics, i, topic)
	}
}

func (v *PreferenceVector) UnmarkExplicit(topic string) {
	if i, ok := slices.BinarySearch(v.ExplicitTopics, topic); ok {
		v.ExplicitTopics = slices.Delete(v.ExplicitTopics, i, i+1)
	}
}
