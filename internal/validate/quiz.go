package validate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

type quizPayload struct {
	ResourceID  string            `json:"resourceId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []questionPayload `json:"questions"`
}

type questionPayload struct {
	ID              string          `json:"id"`
	Text            string          `json:"text"`
	Options         []optionPayload `json:"options"`
	CorrectAnswerID string          `json:"correctAnswerId"`
	Explanation     string          `json:"explanation"`
}

type optionPayload struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Letter string `json:"letter"`
}

// Quiz validates a quiz create payload. Questions without an id get one;
// every correctAnswerId must name one of its question's options.
func Quiz(raw []byte) (quiz.NewQuiz, error) {
	var p quizPayload
	verr, ok := check(quizSchema, raw, &p)
	if !ok {
		return quiz.NewQuiz{}, verr
	}

	out := quiz.NewQuiz{
		ResourceID:  clean(p.ResourceID),
		Title:       clean(p.Title),
		Description: clean(p.Description),
		Questions:   make([]quiz.Question, 0, len(p.Questions)),
	}
	requireText(verr, "resourceId", out.ResourceID)
	requireText(verr, "title", out.Title)

	for i, qp := range p.Questions {
		out.Questions = append(out.Questions, normalizeQuestion(verr, fmt.Sprintf("questions.%d", i), qp))
	}
	if err := verr.orNil(); err != nil {
		return quiz.NewQuiz{}, err
	}
	return out, nil
}

func normalizeQuestion(verr *Error, path string, qp questionPayload) quiz.Question {
	q := quiz.Question{
		ID:              clean(qp.ID),
		Text:            clean(qp.Text),
		CorrectAnswerID: clean(qp.CorrectAnswerID),
		Explanation:     clean(qp.Explanation),
		Options:         make([]quiz.Option, len(qp.Options)),
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	requireText(verr, path+".text", q.Text)

	seen := make(map[string]bool, len(qp.Options))
	for j, op := range qp.Options {
		o := quiz.Option{
			ID:     clean(op.ID),
			Text:   clean(op.Text),
			Letter: strings.ToUpper(clean(op.Letter)),
		}
		if o.Letter == "" {
			o.Letter = string(rune('A' + j))
		}
		optPath := fmt.Sprintf("%s.options.%d", path, j)
		requireText(verr, optPath+".id", o.ID)
		requireText(verr, optPath+".text", o.Text)
		if o.ID != "" && seen[o.ID] {
			verr.add(optPath+".id", "must be unique within the question")
		}
		seen[o.ID] = true
		q.Options[j] = o
	}

	if q.CorrectAnswerID != "" && !q.HasOption(q.CorrectAnswerID) && !verr.has(path+".correctAnswerId") {
		verr.add(path+".correctAnswerId", "must reference one of the question's options")
	}
	return q
}
