package selection

import (
	"math"
	"strings"
)

// ModelScore holds the normalized ratings of one allowed model. Higher is
// better on every axis, so a high CostScore means the model is cheap.
type ModelScore struct {
	ID                string  `json:"id" yaml:"id"`
	SpeedScore        float64 `json:"speedScore" yaml:"speed_score"`
	IntelligenceScore float64 `json:"intelligenceScore" yaml:"intelligence_score"`
	CostScore         float64 `json:"costScore" yaml:"cost_score"`
}

// ScoreTable is an immutable, validated mapping from model id to scores.
// Its ids form the allow-list for selection.
type ScoreTable struct {
	order  []string
	scores map[string]ModelScore
}

// NewScoreTable validates entries and builds a table preserving their order.
// An empty slice yields an empty table, which makes every selection fall back
// to the default model.
func NewScoreTable(entries []ModelScore) (*ScoreTable, error) {
	t := &ScoreTable{
		order:  make([]string, 0, len(entries)),
		scores: make(map[string]ModelScore, len(entries)),
	}
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, invalidConfig("models", "entry %d has an empty id", i)
		}
		if _, dup := t.scores[id]; dup {
			return nil, invalidConfig("models", "duplicate model id %q", id)
		}
		for _, f := range []struct {
			name string
			v    float64
		}{
			{"speedScore", e.SpeedScore},
			{"intelligenceScore", e.IntelligenceScore},
			{"costScore", e.CostScore},
		} {
			if err := checkUnit(id, f.name, f.v); err != nil {
				return nil, err
			}
		}
		e.ID = id
		t.order = append(t.order, id)
		t.scores[id] = e
	}
	return t, nil
}

// MustScoreTable is NewScoreTable for compiled-in defaults; it panics on error.
func MustScoreTable(entries []ModelScore) *ScoreTable {
	t, err := NewScoreTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

func checkUnit(id, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalidConfig(id+"."+field, "must be a finite number")
	}
	if v < 0 || v > 1 {
		return invalidConfig(id+"."+field, "must be within [0, 1], got %v", v)
	}
	return nil
}

// Get returns the scores for id.
func (t *ScoreTable) Get(id string) (ModelScore, bool) {
	if t == nil {
		return ModelScore{}, false
	}
	s, ok := t.scores[id]
	return s, ok
}

// Has reports whether id is allowed.
func (t *ScoreTable) Has(id string) bool {
	_, ok := t.Get(id)
	return ok
}

// IDs returns the allowed ids in insertion order.
func (t *ScoreTable) IDs() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of allowed models.
func (t *ScoreTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}
