package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrUnknownAnswerLetter is returned when a correct-answer letter matches none
// of the question's options.
var ErrUnknownAnswerLetter = errors.New("correct answer letter matches no option")

// BuildQuestion assigns fresh ids to a question and its options, then resolves
// correctLetter to the id of the option carrying that letter.
func BuildQuestion(text, explanation, correctLetter string, options []Option) (Question, error) {
	if len(options) == 0 {
		return Question{}, fmt.Errorf("question %q has no options", text)
	}

	q := Question{
		ID:          uuid.NewString(),
		Text:        text,
		Explanation: explanation,
		Options:     make([]Option, len(options)),
	}
	want := strings.ToUpper(strings.TrimSpace(correctLetter))
	for i, o := range options {
		o.ID = uuid.NewString()
		o.Letter = strings.ToUpper(strings.TrimSpace(o.Letter))
		if o.Letter == "" {
			o.Letter = string(rune('A' + i))
		}
		q.Options[i] = o
		if o.Letter == want && q.CorrectAnswerID == "" {
			q.CorrectAnswerID = o.ID
		}
	}
	if q.CorrectAnswerID == "" {
		return q, fmt.Errorf("%w: %q", ErrUnknownAnswerLetter, correctLetter)
	}
	return q, nil
}
