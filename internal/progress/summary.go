// Package progress aggregates quiz attempts into summaries, exports them,
// and streams new attempts to live subscribers.
package progress

import (
	"math"
	"slices"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// Summary aggregates one user's attempts.
type Summary struct {
	UserID        string            `json:"userId"`
	TotalAttempts int               `json:"totalAttempts"`
	AverageScore  int               `json:"averageScore"` // percent
	Resources     []ResourceSummary `json:"resources"`
	Latest        []QuizResult      `json:"latest"`
}

// ResourceSummary covers the attempts made on one resource's quizzes.
type ResourceSummary struct {
	ResourceID           string  `json:"resourceId"`
	Title                string  `json:"title"`
	Attempts             int     `json:"attempts"`
	CompletedQuizzes     int     `json:"completedQuizzes"`
	AverageScore         int     `json:"averageScore"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// QuizResult is the most recent attempt on one quiz.
type QuizResult struct {
	QuizID         string    `json:"quizId"`
	ResourceID     string    `json:"resourceId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	Grade          string    `json:"grade"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Percentage returns score/total as a rounded percent. A zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Grade maps a percent score to a letter grade.
func Grade(percent int) string {
	switch {
	case percent >= 90:
		return "A"
	case percent >= 80:
		return "B+"
	case percent >= 70:
		return "B"
	case percent >= 60:
		return "C"
	default:
		return "F"
	}
}

// Summarize builds a summary from every attempt a user has made. Every
// resource appears, including ones with no attempts. History is not
// deduplicated: averages count every attempt, while Latest keeps only the
// newest attempt per quiz.
func Summarize(userID string, attempts []quiz.UserProgress, resources []quiz.Resource) Summary {
	s := Summary{
		UserID:        userID,
		TotalAttempts: len(attempts),
		Resources:     make([]ResourceSummary, 0, len(resources)),
		Latest:        []QuizResult{},
	}

	var total float64
	byResource := make(map[string][]quiz.UserProgress)
	latest := make(map[string]quiz.UserProgress)
	for _, a := range attempts {
		total += percent(a)
		byResource[a.ResourceID] = append(byResource[a.ResourceID], a)
		if prev, ok := latest[a.QuizID]; !ok || !a.CompletedAt.Before(prev.CompletedAt) {
			latest[a.QuizID] = a
		}
	}
	if len(attempts) > 0 {
		s.AverageScore = int(math.Round(total / float64(len(attempts))))
	}

	for _, r := range resources {
		rs := ResourceSummary{ResourceID: r.ID, Title: r.Title}
		group := byResource[r.ID]
		rs.Attempts = len(group)

		var sum float64
		quizzes := make(map[string]bool)
		for _, a := range group {
			sum += percent(a)
			quizzes[a.QuizID] = true
		}
		rs.CompletedQuizzes = len(quizzes)
		if len(group) > 0 {
			rs.AverageScore = int(math.Round(sum / float64(len(group))))
		}
		rs.CompletionPercentage = min(float64(rs.CompletedQuizzes)/float64(max(r.TotalQuizzes, 1))*100, 100)
		s.Resources = append(s.Resources, rs)
	}

	for _, a := range latest {
		pct := Percentage(a.Score, a.TotalQuestions)
		s.Latest = append(s.Latest, QuizResult{
			QuizID:         a.QuizID,
			ResourceID:     a.ResourceID,
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			Percentage:     pct,
			Grade:          Grade(pct),
			CompletedAt:    a.CompletedAt,
		})
	}
	slices.SortFunc(s.Latest, func(a, b QuizResult) int {
		return b.CompletedAt.Compare(a.CompletedAt)
	})
	return s
}

func percent(a quiz.UserProgress) float64 {
	if a.TotalQuestions <= 0 {
		return 0
	}
	return float64(a.Score) / float64(a.TotalQuestions) * 100
}
