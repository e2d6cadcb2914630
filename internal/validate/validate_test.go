package validate_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/validate"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *validate.Error", err)
	}
	out := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		out[i] = f.Field
	}
	return out
}

func TestResource_MissingTitle(t *testing.T) {
	_, err := validate.Resource([]byte(`{}`))
	if err == nil {
		t.Fatal("Resource() should fail without title")
	}
	fields := fieldsOf(t, err)
	if !slices.Contains(fields, "title") {
		t.Errorf("fields = %v, want one naming title", fields)
	}
}

func TestResource_Valid(t *testing.T) {
	got, err := validate.Resource([]byte(`{"title":"  Book A  ","description":"Guide"}`))
	if err != nil {
		t.Fatalf("Resource() error = %v", err)
	}
	if got.Title != "Book A" {
		t.Errorf("Title = %q, want trimmed Book A", got.Title)
	}
	if got.TotalQuizzes == nil || *got.TotalQuizzes != 0 {
		t.Errorf("TotalQuizzes = %v, want default 0", got.TotalQuizzes)
	}
}

func TestResource_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"blank title", `{"title":"   "}`, "title"},
		{"title wrong type", `{"title":42}`, "title"},
		{"negative count", `{"title":"x","totalQuizzes":-1}`, "totalQuizzes"},
		{"count wrong type", `{"title":"x","totalQuizzes":"many"}`, "totalQuizzes"},
		{"not json", `{title`, "body"},
		{"not an object", `[]`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.Resource([]byte(tt.body))
			if err == nil {
				t.Fatal("Resource() should fail")
			}
			if fields := fieldsOf(t, err); !slices.Contains(fields, tt.wantField) {
				t.Errorf("fields = %v, want %q", fields, tt.wantField)
			}
		})
	}
}

func TestResource_EnumeratesEveryField(t *testing.T) {
	_, err := validate.Resource([]byte(`{"description":7,"totalQuizzes":"x"}`))
	fields := fieldsOf(t, err)
	for _, want := range []string{"title", "description", "totalQuizzes"} {
		if !slices.Contains(fields, want) {
			t.Errorf("fields = %v, missing %q", fields, want)
		}
	}
}

func TestResource_ReportsSchemaAndBlankErrorsTogether(t *testing.T) {
	_, err := validate.Resource([]byte(`{"title":"   ","totalQuizzes":-1}`))
	fields := fieldsOf(t, err)
	for _, want := range []string{"title", "totalQuizzes"} {
		if !slices.Contains(fields, want) {
			t.Errorf("fields = %v, missing %q", fields, want)
		}
	}
}

func TestResource_NormalizesUnicode(t *testing.T) {
	// e followed by a combining acute accent.
	got, err := validate.Resource([]byte(`{"title":"Cafe\u0301"}`))
	if err != nil {
		t.Fatalf("Resource() error = %v", err)
	}
	if got.Title != "Caf\u00e9" {
		t.Errorf("Title = %q, want NFC form", got.Title)
	}
}

func TestResourcePatch(t *testing.T) {
	got, err := validate.ResourcePatch([]byte(`{"description":"new"}`))
	if err != nil {
		t.Fatalf("ResourcePatch() error = %v", err)
	}
	if got.Title != nil {
		t.Errorf("Title = %v, want nil for omitted field", *got.Title)
	}
	if got.Description == nil || *got.Description != "new" {
		t.Errorf("Description = %v, want new", got.Description)
	}

	if _, err := validate.ResourcePatch([]byte(`{"title":" "}`)); err == nil {
		t.Error("ResourcePatch() should reject blank title")
	}
}

func TestResourcePatch_RejectsQuizCounter(t *testing.T) {
	for _, body := range []string{`{"totalQuizzes":7}`, `{"title":"x","totalQuizzes":0}`} {
		_, err := validate.ResourcePatch([]byte(body))
		if err == nil {
			t.Fatalf("ResourcePatch(%s) should fail", body)
		}
		if fields := fieldsOf(t, err); !slices.Contains(fields, "totalQuizzes") {
			t.Errorf("ResourcePatch(%s) fields = %v, want totalQuizzes", body, fields)
		}
	}
}

const validQuiz = `{
	"resourceId": "r1",
	"title": "Framing",
	"questions": [{
		"text": "Pick one",
		"options": [{"id":"o1","text":"yes","letter":"a"},{"id":"o2","text":"no"}],
		"correctAnswerId": "o2",
		"explanation": "because"
	}]
}`

func TestQuiz_Valid(t *testing.T) {
	got, err := validate.Quiz([]byte(validQuiz))
	if err != nil {
		t.Fatalf("Quiz() error = %v", err)
	}
	if len(got.Questions) != 1 {
		t.Fatalf("Questions count = %d, want 1", len(got.Questions))
	}
	q := got.Questions[0]
	if q.ID == "" {
		t.Error("question without id should get one")
	}
	if q.Options[0].Letter != "A" || q.Options[1].Letter != "B" {
		t.Errorf("letters = %q, %q, want A, B", q.Options[0].Letter, q.Options[1].Letter)
	}
	if q.CorrectAnswerID != "o2" {
		t.Errorf("CorrectAnswerID = %q, want o2", q.CorrectAnswerID)
	}
}

func TestQuiz_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{
			name:       "empty",
			body:       `{}`,
			wantFields: []string{"resourceId", "title", "questions"},
		},
		{
			name:       "questions wrong type",
			body:       `{"resourceId":"r","title":"t","questions":"lots"}`,
			wantFields: []string{"questions"},
		},
		{
			name:       "question missing fields",
			body:       `{"resourceId":"r","title":"t","questions":[{"text":"q"}]}`,
			wantFields: []string{"questions.0.options", "questions.0.correctAnswerId"},
		},
		{
			name: "correct answer not an option",
			body: `{"resourceId":"r","title":"t","questions":[
				{"text":"q","options":[{"id":"o1","text":"a"}],"correctAnswerId":"o9"}]}`,
			wantFields: []string{"questions.0.correctAnswerId"},
		},
		{
			name: "duplicate option id",
			body: `{"resourceId":"r","title":"t","questions":[
				{"text":"q","options":[{"id":"o1","text":"a"},{"id":"o1","text":"b"}],"correctAnswerId":"o1"}]}`,
			wantFields: []string{"questions.0.options.1.id"},
		},
		{
			name:       "blank strings",
			body:       `{"resourceId":" ","title":"\t","questions":[]}`,
			wantFields: []string{"resourceId", "title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.Quiz([]byte(tt.body))
			if err == nil {
				t.Fatal("Quiz() should fail")
			}
			fields := fieldsOf(t, err)
			for _, want := range tt.wantFields {
				if !slices.Contains(fields, want) {
					t.Errorf("fields = %v, missing %q", fields, want)
				}
			}
		})
	}
}

func TestProgress_Valid(t *testing.T) {
	got, err := validate.Progress([]byte(`{
		"userId":"user-1","resourceId":"r1","quizId":"q1",
		"score":4,"totalQuestions":5,"answers":{"qa":"oa"}
	}`))
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if got.Score != 4 || got.TotalQuestions != 5 {
		t.Errorf("score = %d/%d, want 4/5", got.Score, got.TotalQuestions)
	}
	if got.Answers["qa"] != "oa" {
		t.Errorf("Answers = %v, want qa -> oa", got.Answers)
	}
}

func TestProgress_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{
			name:       "empty",
			body:       `{}`,
			wantFields: []string{"userId", "resourceId", "quizId", "score", "totalQuestions", "answers"},
		},
		{
			name:       "score too high",
			body:       `{"userId":"u","resourceId":"r","quizId":"q","score":6,"totalQuestions":5,"answers":{}}`,
			wantFields: []string{"score"},
		},
		{
			name:       "negative score",
			body:       `{"userId":"u","resourceId":"r","quizId":"q","score":-1,"totalQuestions":5,"answers":{}}`,
			wantFields: []string{"score"},
		},
		{
			name:       "fractional score",
			body:       `{"userId":"u","resourceId":"r","quizId":"q","score":1.5,"totalQuestions":5,"answers":{}}`,
			wantFields: []string{"score"},
		},
		{
			name:       "score overflows int",
			body:       `{"userId":"u","resourceId":"r","quizId":"q","score":1e19,"totalQuestions":5,"answers":{}}`,
			wantFields: []string{"score"},
		},
		{
			name:       "total overflows int",
			body:       `{"userId":"u","resourceId":"r","quizId":"q","score":1,"totalQuestions":1e19,"answers":{}}`,
			wantFields: []string{"totalQuestions"},
		},
		{
			name:       "score written as decimal",
			body:       `{"userId":"u","resourceId":"r","quizId":"q","score":4.0,"totalQuestions":5,"answers":{}}`,
			wantFields: []string{"score"},
		},
		{
			name:       "blank id alongside schema error",
			body:       `{"userId":"  ","resourceId":"r","quizId":"q","score":-1,"totalQuestions":5,"answers":{}}`,
			wantFields: []string{"userId", "score"},
		},
		{
			name:       "answer not a string",
			body:       `{"userId":"u","resourceId":"r","quizId":"q","score":1,"totalQuestions":5,"answers":{"q1":3}}`,
			wantFields: []string{"answers.q1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.Progress([]byte(tt.body))
			if err == nil {
				t.Fatal("Progress() should fail")
			}
			fields := fieldsOf(t, err)
			for _, want := range tt.wantFields {
				if !slices.Contains(fields, want) {
					t.Errorf("fields = %v, missing %q", fields, want)
				}
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &validate.Error{Fields: []validate.FieldError{{Field: "title", Message: "title is required"}}}
	if got := err.Error(); got != "invalid data: title: title is required" {
		t.Errorf("Error() = %q", got)
	}
}
