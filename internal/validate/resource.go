package validate

import (
	"encoding/json"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

type resourcePayload struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	CoverImageURL *string `json:"coverImageUrl"`
	TotalQuizzes  *int    `json:"totalQuizzes"`
}

type resourcePatchPayload struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	CoverImageURL *string         `json:"coverImageUrl"`
	TotalQuizzes  json.RawMessage `json:"totalQuizzes"`
}

// Resource validates a resource create payload.
func Resource(raw []byte) (quiz.NewResource, error) {
	var p resourcePayload
	verr, ok := check(resourceSchema, raw, &p)
	if !ok {
		return quiz.NewResource{}, verr
	}

	out := quiz.NewResource{
		Title:         clean(deref(p.Title)),
		Description:   clean(deref(p.Description)),
		CoverImageURL: clean(deref(p.CoverImageURL)),
		TotalQuizzes:  p.TotalQuizzes,
	}
	requireText(verr, "title", out.Title)
	if out.TotalQuizzes == nil {
		zero := 0
		out.TotalQuizzes = &zero
	}
	if err := verr.orNil(); err != nil {
		return quiz.NewResource{}, err
	}
	return out, nil
}

// ResourcePatch validates a partial resource update. Absent fields stay nil.
// totalQuizzes is rejected: it follows the resource's quizzes.
func ResourcePatch(raw []byte) (quiz.ResourcePatch, error) {
	var p resourcePatchPayload
	verr, ok := check(resourcePatchSchema, raw, &p)
	if !ok {
		return quiz.ResourcePatch{}, verr
	}

	out := quiz.ResourcePatch{
		Title:         cleanPtr(p.Title),
		Description:   cleanPtr(p.Description),
		CoverImageURL: cleanPtr(p.CoverImageURL),
	}
	if out.Title != nil {
		requireText(verr, "title", *out.Title)
	}
	if p.TotalQuizzes != nil {
		verr.add("totalQuizzes", "is maintained by quiz writes and cannot be set")
	}
	if err := verr.orNil(); err != nil {
		return quiz.ResourcePatch{}, err
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
