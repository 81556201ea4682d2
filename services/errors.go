package services

import (
	"errors"
	"fmt"

	"tour-marketplace-api/models"
)

var (
	ErrTourNotFound       = errors.New("tour not found")
	ErrVersionNotFound    = errors.New("version not found for tour")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNotAuthorized      = errors.New("requester is not allowed to perform this transition")
)

// IllegalTransitionError marks a (before, after) status pair that is not
// in the transition table. It is logged and dropped, never surfaced to
// the event transport, so redelivery does not retry it.
type IllegalTransitionError struct {
	From models.SubmissionStatus
	To   models.SubmissionStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal submission transition %s -> %s", e.From, e.To)
}

// PromotionError reports a failed version-promotion batch. The
// submission keeps its committed approved status, so the failure leaves
// a divergence that the reconciliation query surfaces; it is never
// retried blindly.
type PromotionError struct {
	TourID    int
	VersionID int
	Err       error
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("failed to promote version %d for tour %d: %v", e.VersionID, e.TourID, e.Err)
}

func (e *PromotionError) Unwrap() error {
	return e.Err
}
