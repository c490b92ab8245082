package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestHypothesisStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to HypothesisStatus
		want     bool
	}{
		{StatusDraft, StatusProposed, true},
		{StatusDraft, StatusShared, true},
		{StatusDraft, StatusDraft, false},
		{StatusProposed, StatusDraft, true},
		{StatusProposed, StatusShared, true},
		{StatusProposed, StatusProposed, false},
		{StatusShared, StatusDraft, false},
		{StatusShared, StatusProposed, false},
		{StatusShared, StatusShared, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHypothesis_Redacted(t *testing.T) {
	private := "old wording"
	experience := "happened with Acme"
	h := &Hypothesis{
		ID:                 uuid.New(),
		OriginUserID:       "alice",
		OriginUserIDHash:   "abc123",
		Content:            "public wording",
		PrivateContent:     &private,
		OriginalExperience: &experience,
		Tags:               []string{"sales"},
	}

	origin := h.Redacted(AccessOrigin)
	if origin.PrivateContent == nil || origin.OriginalExperience == nil || origin.OriginUserID != "alice" {
		t.Fatalf("expected origin to see everything, got %+v", origin)
	}

	editor := h.Redacted(AccessTeamEditor)
	if editor.PrivateContent != nil || editor.OriginalExperience != nil {
		t.Fatal("expected private fields hidden from editors")
	}
	if editor.OriginUserID != "alice" {
		t.Fatalf("expected editors to see the author, got %q", editor.OriginUserID)
	}

	viewer := h.Redacted(AccessTeamViewer)
	if viewer.OriginUserID != "" {
		t.Fatalf("expected viewers not to see the author, got %q", viewer.OriginUserID)
	}
	if viewer.OriginUserIDHash != "abc123" {
		t.Fatalf("expected hash to stay visible, got %q", viewer.OriginUserIDHash)
	}

	viewer.Tags[0] = "changed"
	if h.Tags[0] != "sales" {
		t.Fatal("expected redacted copy not to share tags with the original")
	}
}

func TestValidHypothesisStatus(t *testing.T) {
	for _, s := range []string{"DRAFT", "PROPOSED", "SHARED"} {
		if !ValidHypothesisStatus(s) {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	for _, s := range []string{"", "draft", "ARCHIVED"} {
		if ValidHypothesisStatus(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
