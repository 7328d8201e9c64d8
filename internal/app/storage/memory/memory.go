package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/domain/submission"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage"
)

// DefaultCapacity bounds how many submissions the in-memory journal retains.
const DefaultCapacity = 1000

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and keeps only the most recent submissions.
type Store struct {
	mu          sync.RWMutex
	capacity    int
	submissions []submission.Submission
	byID        map[string]int
}

var _ storage.SubmissionStore = (*Store)(nil)

// New creates an empty store holding up to capacity submissions.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		byID:     make(map[string]int),
	}
}

// SubmissionStore implementation ----------------------------------------------

func (s *Store) CreateSubmission(_ context.Context, sub submission.Submission) (submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	} else if _, exists := s.byID[sub.ID]; exists {
		return submission.Submission{}, fmt.Errorf("submission %s already exists", sub.ID)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	s.submissions = append(s.submissions, sub)
	if len(s.submissions) > s.capacity {
		evicted := s.submissions[0]
		delete(s.byID, evicted.ID)
		s.submissions = append([]submission.Submission(nil), s.submissions[1:]...)
		s.reindexLocked()
	} else {
		s.byID[sub.ID] = len(s.submissions) - 1
	}
	return sub, nil
}

func (s *Store) reindexLocked() {
	for i, sub := range s.submissions {
		s.byID[sub.ID] = i
	}
}

func (s *Store) GetSubmission(_ context.Context, id string) (submission.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return submission.Submission{}, fmt.Errorf("submission %s: %w", id, storage.ErrNotFound)
	}
	return s.submissions[idx], nil
}

func (s *Store) ListSubmissions(_ context.Context, limit int) ([]submission.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.submissions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]submission.Submission, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.submissions[i])
	}
	return out, nil
}
