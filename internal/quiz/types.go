// Package quiz holds the resource, quiz, and progress domain types and the
// in-memory store that owns them.
package quiz

import (
	"maps"
	"time"
)

// Resource is a learning material (book, study guide) that quizzes belong to.
type Resource struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	TotalQuizzes  int       `json:"totalQuizzes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Option is one answer choice of a question.
type Option struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Letter string `json:"letter"`
}

// Question is a multiple-choice question embedded in a quiz.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectAnswerID string   `json:"correctAnswerId"`
	Explanation     string   `json:"explanation"`
}

// HasOption reports whether id names one of the question's options.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Quiz is an ordered set of questions tied to a resource.
type Quiz struct {
	ID          string     `json:"id"`
	ResourceID  string     `json:"resourceId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// UserProgress records one completed quiz attempt. Records are append-only.
type UserProgress struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	ResourceID     string            `json:"resourceId"`
	QuizID         string            `json:"quizId"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	Answers        map[string]string `json:"answers"` // question id -> chosen option id
	CompletedAt    time.Time         `json:"completedAt"`
}

// NewResource is the validated input for creating a resource.
type NewResource struct {
	Title         string
	Description   string
	CoverImageURL string
	TotalQuizzes  *int // nil means 0
}

// ResourcePatch carries a partial resource update. Nil fields are left
// unchanged. TotalQuizzes is absent: only quiz writes move the counter.
type ResourcePatch struct {
	Title         *string
	Description   *string
	CoverImageURL *string
}

// NewQuiz is the validated input for creating a quiz.
type NewQuiz struct {
	ResourceID  string
	Title       string
	Description string
	Questions   []Question
}

// NewProgress is the validated input for recording a quiz attempt.
type NewProgress struct {
	UserID         string
	ResourceID     string
	QuizID         string
	Score          int
	TotalQuestions int
	Answers        map[string]string
}

func (q Quiz) clone() Quiz {
	q.Questions = cloneQuestions(q.Questions)
	return q
}

func (p UserProgress) clone() UserProgress {
	p.Answers = maps.Clone(p.Answers)
	if p.Answers == nil {
		p.Answers = map[string]string{}
	}
	return p
}

func cloneQuestions(in []Question) []Question {
	if in == nil {
		return []Question{}
	}
	out := make([]Question, len(in))
	for i, q := range in {
		q.Options = append([]Option(nil), q.Options...)
		out[i] = q
	}
	return out
}
