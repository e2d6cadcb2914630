package quiz

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns resources, quizzes, and progress records. Lookups that miss
// report ok == false; they are not errors.
type Store interface {
	Resources() []Resource
	Resource(id string) (Resource, bool)
	CreateResource(in NewResource) Resource
	UpdateResource(id string, patch ResourcePatch) (Resource, bool)
	DeleteResource(id string) bool

	QuizzesByResource(resourceID string) []Quiz
	Quiz(id string) (Quiz, bool)
	CreateQuiz(in NewQuiz) Quiz
	DeleteQuiz(id string) bool

	ProgressByUser(userID string) []UserProgress
	ProgressByUserAndResource(userID, resourceID string) []UserProgress
	SaveProgress(in NewProgress) UserProgress
}

// MemoryStore is an in-memory implementation of Store. A single lock guards
// all three maps, so a quiz write and its resource counter update happen as
// one step. Every value handed out is a copy.
type MemoryStore struct {
	resources map[string]*Resource
	quizzes   map[string]*Quiz
	progress  map[string]*UserProgress
	now       func() time.Time
	mu        sync.RWMutex
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for createdAt/completedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		resources: make(map[string]*Resource),
		quizzes:   make(map[string]*Quiz),
		progress:  make(map[string]*UserProgress),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Resources() []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b Resource) int {
		return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}

func (s *MemoryStore) Resource(id string) (Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[id]
	if !ok {
		return Resource{}, false
	}
	return *r, true
}

func (s *MemoryStore) CreateResource(in NewResource) Resource {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Resource{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Description:   in.Description,
		CoverImageURL: in.CoverImageURL,
		CreatedAt:     s.now(),
	}
	if in.TotalQuizzes != nil {
		r.TotalQuizzes = *in.TotalQuizzes
	}
	s.resources[r.ID] = r
	return *r
}

func (s *MemoryStore) UpdateResource(id string, patch ResourcePatch) (Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return Resource{}, false
	}
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.CoverImageURL != nil {
		r.CoverImageURL = *patch.CoverImageURL
	}
	return *r, true
}

func (s *MemoryStore) DeleteResource(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[id]; !ok {
		return false
	}
	delete(s.resources, id)
	return true
}

func (s *MemoryStore) QuizzesByResource(resourceID string) []Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Quiz{}
	for _, q := range s.quizzes {
		if q.ResourceID == resourceID {
			out = append(out, q.clone())
		}
	}
	slices.SortFunc(out, func(a, b Quiz) int {
		return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}

func (s *MemoryStore) Quiz(id string) (Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quizzes[id]
	if !ok {
		return Quiz{}, false
	}
	return q.clone(), true
}

// CreateQuiz stores the quiz and bumps the parent resource's counter. A
// missing parent is not checked here; the counter update is simply skipped.
func (s *MemoryStore) CreateQuiz(in NewQuiz) Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := &Quiz{
		ID:          uuid.NewString(),
		ResourceID:  in.ResourceID,
		Title:       in.Title,
		Description: in.Description,
		Questions:   cloneQuestions(in.Questions),
		CreatedAt:   s.now(),
	}
	s.quizzes[q.ID] = q

	if r, ok := s.resources[q.ResourceID]; ok {
		r.TotalQuizzes++
	}
	return q.clone()
}

// DeleteQuiz removes the quiz and decrements the parent's counter, never
// below zero.
func (s *MemoryStore) DeleteQuiz(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quizzes[id]
	if !ok {
		return false
	}
	delete(s.quizzes, id)

	if r, ok := s.resources[q.ResourceID]; ok && r.TotalQuizzes > 0 {
		r.TotalQuizzes--
	}
	return true
}

func (s *MemoryStore) ProgressByUser(userID string) []UserProgress {
	return s.filterProgress(func(p *UserProgress) bool {
		return p.UserID == userID
	})
}

func (s *MemoryStore) ProgressByUserAndResource(userID, resourceID string) []UserProgress {
	return s.filterProgress(func(p *UserProgress) bool {
		return p.UserID == userID && p.ResourceID == resourceID
	})
}

// SaveProgress appends a new attempt. Earlier attempts on the same quiz are
// kept.
func (s *MemoryStore) SaveProgress(in NewProgress) UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &UserProgress{
		ID:             uuid.NewString(),
		UserID:         in.UserID,
		ResourceID:     in.ResourceID,
		QuizID:         in.QuizID,
		Score:          in.Score,
		TotalQuestions: in.TotalQuestions,
		Answers:        in.Answers,
		CompletedAt:    s.now(),
	}
	stored := p.clone()
	s.progress[p.ID] = &stored
	return stored.clone()
}

func (s *MemoryStore) filterProgress(match func(*UserProgress) bool) []UserProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []UserProgress{}
	for _, p := range s.progress {
		if match(p) {
			out = append(out, p.clone())
		}
	}
	slices.SortFunc(out, func(a, b UserProgress) int {
		return byCreation(a.CompletedAt, b.CompletedAt, a.ID, b.ID)
	})
	return out
}

func byCreation(at, bt time.Time, aID, bID string) int {
	if c := at.Compare(bt); c != 0 {
		return c
	}
	return cmp.Compare(aID, bID)
}
