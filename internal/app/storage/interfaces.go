package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/domain/submission"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("storage: not found")

// SubmissionStore journals ledger submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error)
	GetSubmission(ctx context.Context, id string) (submission.Submission, error)
	// ListSubmissions returns the newest submissions first.
	ListSubmissions(ctx context.Context, limit int) ([]submission.Submission, error)
}
