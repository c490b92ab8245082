package domain

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
)

type VerificationResult string

const (
	ResultSuccess      VerificationResult = "SUCCESS"
	ResultFailure      VerificationResult = "FAILURE"
	ResultPartial      VerificationResult = "PARTIAL"
	ResultInconclusive VerificationResult = "INCONCLUSIVE"
)

func ValidVerificationResult(r string) bool {
	switch VerificationResult(r) {
	case ResultSuccess, ResultFailure, ResultPartial, ResultInconclusive:
		return true
	}
	return false
}

type Verification struct {
	ID                   uuid.UUID          `json:"id"`
	HypothesisID         uuid.UUID          `json:"hypothesis_id"`
	VerifierUserID       string             `json:"verifier_user_id"`
	VerifierTeamID       *uuid.UUID         `json:"verifier_team_id,omitempty"`
	Result               VerificationResult `json:"result"`
	Conditions           string             `json:"conditions"`
	Notes                string             `json:"notes"`
	Evidence             map[string]any     `json:"evidence,omitempty"`
	IsDifferential       bool               `json:"is_differential"`
	ParentVerificationID *uuid.UUID         `json:"parent_verification_id,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
}

// VerificationChain is a root verification followed by the differential
// amendments that continue it, oldest first.
type VerificationChain struct {
	Root       Verification       `json:"root"`
	Amendments []Verification     `json:"amendments"`
	Effective  VerificationResult `json:"effective_result"`
}

// Chains threads every amendment onto its root and returns the chains ordered
// by root created_at, ties broken by id ascending.
//
// The ledger only accepts linear chains, but the threading tolerates anything
// it is handed: an amendment whose parent is missing starts its own chain, and
// if a record has several children the latest one (created_at, then id)
// continues the chain. Records on a cycle with no way out are dropped.
func Chains(records []Verification) []VerificationChain {
	byID := make(map[uuid.UUID]Verification, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	next := make(map[uuid.UUID]Verification, len(records))
	var roots []Verification
	for _, r := range records {
		if r.ParentVerificationID == nil {
			roots = append(roots, r)
			continue
		}
		if _, ok := byID[*r.ParentVerificationID]; !ok {
			roots = append(roots, r)
			continue
		}
		if cur, ok := next[*r.ParentVerificationID]; !ok || verificationBefore(cur, r) {
			next[*r.ParentVerificationID] = r
		}
	}

	sort.Slice(roots, func(i, j int) bool { return verificationBefore(roots[i], roots[j]) })

	chains := make([]VerificationChain, 0, len(roots))
	for _, root := range roots {
		chain := VerificationChain{Root: root, Amendments: []Verification{}, Effective: root.Result}
		seen := map[uuid.UUID]bool{root.ID: true}
		cur := root
		for {
			child, ok := next[cur.ID]
			if !ok || seen[child.ID] {
				break
			}
			seen[child.ID] = true
			chain.Amendments = append(chain.Amendments, child)
			chain.Effective = child.Result
			cur = child
		}
		chains = append(chains, chain)
	}
	return chains
}

// AggregateVerificationState folds the full record set of one hypothesis into
// its verification state. The result depends only on the set of records, not
// on the order they are passed in.
//
//   - no records: UNVERIFIED
//   - any chain whose effective result is SUCCESS: VALIDATED
//   - every chain effectively FAILURE: FAILED
//   - otherwise: IN_PROGRESS
func AggregateVerificationState(records []Verification) VerificationState {
	if len(records) == 0 {
		return StateUnverified
	}
	chains := Chains(records)
	if len(chains) == 0 {
		return StateInProgress
	}

	allFailed := true
	for _, c := range chains {
		if c.Effective == ResultSuccess {
			return StateValidated
		}
		if c.Effective != ResultFailure {
			allFailed = false
		}
	}
	if allFailed {
		return StateFailed
	}
	return StateInProgress
}

func verificationBefore(a, b Verification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
