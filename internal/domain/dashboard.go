package domain

// DashboardStats summarises one user's hypotheses and pending work.
type DashboardStats struct {
	TotalHypotheses     int                       `json:"total_hypotheses"`
	ByStatus            map[HypothesisStatus]int  `json:"by_status"`
	ByVerificationState map[VerificationState]int `json:"by_verification_state"`
	HighPotentialCount  int                       `json:"high_potential_count"`
	PendingSuggestions  int                       `json:"pending_suggestions"`
	Teams               []TeamSummary             `json:"teams"`
	ScoredHypotheses    int                       `json:"scored_hypotheses"`
	OverallScoreMean    float64                   `json:"overall_score_mean"`
	OverallScoreMedian  float64                   `json:"overall_score_median"`
}

// NewDashboardStats returns stats with every status and state present at zero.
func NewDashboardStats() *DashboardStats {
	return &DashboardStats{
		ByStatus: map[HypothesisStatus]int{
			StatusDraft:    0,
			StatusProposed: 0,
			StatusShared:   0,
		},
		ByVerificationState: map[VerificationState]int{
			StateUnverified: 0,
			StateInProgress: 0,
			StateValidated:  0,
			StateFailed:     0,
		},
		Teams: []TeamSummary{},
	}
}
