package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidResult      = fmt.Errorf("%w: result must be SUCCESS, FAILURE, PARTIAL or INCONCLUSIVE", domain.ErrInvalidInput)
	ErrChainParentMissing = fmt.Errorf("%w: amended verification does not exist", domain.ErrInvalidChain)
	ErrChainForeignParent = fmt.Errorf("%w: amended verification belongs to another hypothesis", domain.ErrInvalidChain)
	ErrChainContinued     = fmt.Errorf("%w: amended verification already has a continuation", domain.ErrInvalidChain)
)

type SubmitVerificationInput struct {
	HypothesisID   uuid.UUID
	VerifierID     string
	VerifierTeamID *uuid.UUID
	Result         domain.VerificationResult
	Conditions     string
	Notes          string
	Evidence       map[string]any
	DifferentialOf *uuid.UUID
}

type VerificationService struct {
	tx            domain.Transactor
	hypotheses    domain.HypothesisStore
	verifications domain.VerificationStore
	auth          authorizer
	logger        *zap.Logger
}

func NewVerificationService(tx domain.Transactor, hs domain.HypothesisStore, vs domain.VerificationStore, ts domain.TeamStore, logger *zap.Logger) *VerificationService {
	return &VerificationService{
		tx:            tx,
		hypotheses:    hs,
		verifications: vs,
		auth:          authorizer{teams: ts},
		logger:        logger,
	}
}

// Submit appends a verification record and recomputes the hypothesis's
// verification state from the full record set. The hypothesis row stays
// locked from the first read until commit, so concurrent submissions against
// one hypothesis are applied one after another and each recomputation sees
// every record committed before it.
func (s *VerificationService) Submit(ctx context.Context, in SubmitVerificationInput) (*domain.Verification, domain.VerificationState, error) {
	if !domain.ValidVerificationResult(string(in.Result)) {
		return nil, "", ErrInvalidResult
	}
	if in.VerifierID == "" {
		return nil, "", ErrUserIDRequired
	}

	v := &domain.Verification{
		HypothesisID:         in.HypothesisID,
		VerifierUserID:       in.VerifierID,
		VerifierTeamID:       in.VerifierTeamID,
		Result:               in.Result,
		Conditions:           in.Conditions,
		Notes:                in.Notes,
		Evidence:             in.Evidence,
		IsDifferential:       in.DifferentialOf != nil,
		ParentVerificationID: in.DifferentialOf,
	}
	var state domain.VerificationState

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := s.hypotheses.GetForUpdate(ctx, in.HypothesisID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrHypothesisNotFound
			}
			return err
		}
		access, err := s.auth.access(ctx, h, in.VerifierID)
		if err != nil {
			return err
		}
		if access == domain.AccessNone {
			return ErrHypothesisNotFound
		}
		if in.VerifierTeamID != nil {
			role, err := s.auth.roleIn(ctx, *in.VerifierTeamID, in.VerifierID)
			if err != nil {
				return err
			}
			if role == "" {
				return ErrNotTeamMember
			}
		}
		if in.DifferentialOf != nil {
			if err := s.checkAmendment(ctx, h.ID, *in.DifferentialOf); err != nil {
				return err
			}
		}

		if err := s.verifications.Create(ctx, v); err != nil {
			if errors.Is(err, store.ErrChainContinued) {
				return ErrChainContinued
			}
			return err
		}

		records, err := s.verifications.ListByHypothesis(ctx, h.ID)
		if err != nil {
			return err
		}
		state = domain.AggregateVerificationState(records)
		if state != h.VerificationState {
			if err := s.hypotheses.UpdateVerificationState(ctx, h.ID, state); err != nil {
				return err
			}
			verificationStates.WithLabelValues(string(state)).Inc()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			conflicts.WithLabelValues("submit_verification").Inc()
		}
		return nil, "", err
	}

	verificationsRecorded.WithLabelValues(string(v.Result)).Inc()
	s.logger.Info("verification recorded",
		zap.String("hypothesis_id", v.HypothesisID.String()),
		zap.String("verification_id", v.ID.String()),
		zap.String("result", string(v.Result)),
		zap.Bool("differential", v.IsDifferential),
		zap.String("verification_state", string(state)))
	return v, state, nil
}

// checkAmendment enforces single-line chains: the amended record must belong
// to the same hypothesis and must not already be continued.
func (s *VerificationService) checkAmendment(ctx context.Context, hypothesisID, parentID uuid.UUID) error {
	parent, err := s.verifications.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrChainParentMissing
		}
		return err
	}
	if parent.HypothesisID != hypothesisID {
		return ErrChainForeignParent
	}
	continued, err := s.verifications.HasContinuation(ctx, parentID)
	if err != nil {
		return err
	}
	if continued {
		return ErrChainContinued
	}
	return nil
}

// List returns the hypothesis's verification chains, ordered by root.
func (s *VerificationService) List(ctx context.Context, hypothesisID uuid.UUID, viewer string) ([]domain.VerificationChain, error) {
	h, err := s.hypotheses.GetByID(ctx, hypothesisID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrHypothesisNotFound
		}
		return nil, err
	}
	access, err := s.auth.access(ctx, h, viewer)
	if err != nil {
		return nil, err
	}
	if access == domain.AccessNone {
		return nil, ErrHypothesisNotFound
	}

	records, err := s.verifications.ListByHypothesis(ctx, hypothesisID)
	if err != nil {
		return nil, err
	}
	return domain.Chains(records), nil
}
