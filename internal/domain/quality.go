package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Weights and thresholds used when deriving the overall score and the
// high-potential flag from the three component scores.
const (
	WeightNovelty     = 0.30
	WeightSpecificity = 0.30
	WeightImpact      = 0.40

	HighPotentialOverall     = 0.6
	HighPotentialNovelty     = 0.4
	HighPotentialSpecificity = 0.5
	HighPotentialImpact      = 0.5
)

// QualityScores are the assessed values of one scoring run, each in [0,1].
type QualityScores struct {
	Novelty         float64 `json:"novelty"`
	Specificity     float64 `json:"specificity"`
	Impact          float64 `json:"impact"`
	Overall         float64 `json:"overall"`
	IsHighPotential bool    `json:"is_high_potential"`
}

// Valid reports whether every component lies in [0,1].
func (s QualityScores) Valid() bool {
	for _, v := range []float64{s.Novelty, s.Specificity, s.Impact, s.Overall} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// DeriveQualityScores clamps the component scores to [0,1] and computes the
// weighted overall score and the high-potential flag.
func DeriveQualityScores(novelty, specificity, impact float64) QualityScores {
	n, s, i := clamp01(novelty), clamp01(specificity), clamp01(impact)
	overall := round2(n*WeightNovelty + s*WeightSpecificity + i*WeightImpact)
	out := QualityScores{
		Novelty:     round2(n),
		Specificity: round2(s),
		Impact:      round2(i),
		Overall:     overall,
	}
	out.IsHighPotential = out.Overall >= HighPotentialOverall &&
		out.Novelty >= HighPotentialNovelty &&
		out.Specificity >= HighPotentialSpecificity &&
		out.Impact >= HighPotentialImpact
	return out
}

// QualityScoreRecord is one entry of a hypothesis's scoring history.
type QualityScoreRecord struct {
	ID           uuid.UUID `json:"id"`
	HypothesisID uuid.UUID `json:"hypothesis_id"`
	QualityScores
	Rationale string    `json:"rationale"`
	ScoredAt  time.Time `json:"scored_at"`
}

// Snapshot returns the cached form of r stored on the hypothesis.
func (r QualityScoreRecord) Snapshot() QualitySnapshot {
	return QualitySnapshot{QualityScores: r.QualityScores, ScoredAt: r.ScoredAt}
}

// QualitySnapshot is the latest score mirrored onto the hypothesis.
type QualitySnapshot struct {
	QualityScores
	ScoredAt time.Time `json:"scored_at"`
}

// Supersedes reports whether s should replace current as the cached snapshot.
// Snapshots are ordered by (scored_at, overall, novelty, specificity, impact)
// and the greater one wins, so racing writers converge on the same snapshot
// whatever the commit order.
func (s QualitySnapshot) Supersedes(current *QualitySnapshot) bool {
	if current == nil {
		return true
	}
	if !s.ScoredAt.Equal(current.ScoredAt) {
		return s.ScoredAt.After(current.ScoredAt)
	}
	keys := [][2]float64{
		{s.Overall, current.Overall},
		{s.Novelty, current.Novelty},
		{s.Specificity, current.Specificity},
		{s.Impact, current.Impact},
	}
	for _, k := range keys {
		if k[0] != k[1] {
			return k[0] > k[1]
		}
	}
	return false
}

// QualityAssessment is what the external scoring collaborator returns.
type QualityAssessment struct {
	Novelty     float64 `json:"novelty_score"`
	Specificity float64 `json:"specificity_score"`
	Impact      float64 `json:"impact_score"`
	Rationale   string  `json:"rationale"`
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
