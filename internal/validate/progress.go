package validate

import "github.com/p-n-ai/pai-quiz/internal/quiz"

type progressPayload struct {
	UserID         string            `json:"userId"`
	ResourceID     string            `json:"resourceId"`
	QuizID         string            `json:"quizId"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	Answers        map[string]string `json:"answers"`
}

// Progress validates a quiz attempt. The score must lie in [0, totalQuestions].
func Progress(raw []byte) (quiz.NewProgress, error) {
	var p progressPayload
	verr, ok := check(progressSchema, raw, &p)
	if !ok {
		return quiz.NewProgress{}, verr
	}

	out := quiz.NewProgress{
		UserID:         clean(p.UserID),
		ResourceID:     clean(p.ResourceID),
		QuizID:         clean(p.QuizID),
		Score:          p.Score,
		TotalQuestions: p.TotalQuestions,
		Answers:        make(map[string]string, len(p.Answers)),
	}
	requireText(verr, "userId", out.UserID)
	requireText(verr, "resourceId", out.ResourceID)
	requireText(verr, "quizId", out.QuizID)
	if !verr.has("score") && !verr.has("totalQuestions") {
		switch {
		case out.Score < 0:
			verr.add("score", "must not be negative")
		case out.Score > out.TotalQuestions:
			verr.add("score", "must not exceed totalQuestions")
		}
	}
	for questionID, optionID := range p.Answers {
		out.Answers[clean(questionID)] = clean(optionID)
	}
	if err := verr.orNil(); err != nil {
		return quiz.NewProgress{}, err
	}
	return out, nil
}
