package quiz_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

func sampleQuestions(t *testing.T) []quiz.Question {
	t.Helper()
	q, err := quiz.BuildQuestion("What is framing?", "Context first.", "B", []quiz.Option{
		{Text: "A greeting", Letter: "A"},
		{Text: "Context, intent, key message", Letter: "B"},
	})
	if err != nil {
		t.Fatalf("BuildQuestion() error = %v", err)
	}
	return []quiz.Question{q}
}

func TestMemoryStore_CreateResource_Defaults(t *testing.T) {
	store := quiz.NewMemoryStore()

	r := store.CreateResource(quiz.NewResource{Title: "Book A"})
	if r.ID == "" {
		t.Error("CreateResource() returned empty ID")
	}
	if r.TotalQuizzes != 0 {
		t.Errorf("TotalQuizzes = %d, want 0", r.TotalQuizzes)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	n := 3
	r2 := store.CreateResource(quiz.NewResource{Title: "Book B", TotalQuizzes: &n})
	if r2.TotalQuizzes != 3 {
		t.Errorf("TotalQuizzes = %d, want caller-supplied 3", r2.TotalQuizzes)
	}
	if r.ID == r2.ID {
		t.Error("resources should get distinct IDs")
	}
}

func TestMemoryStore_Resource_NotFound(t *testing.T) {
	store := quiz.NewMemoryStore()

	if _, ok := store.Resource("nonexistent"); ok {
		t.Error("Resource() should not find unknown ID")
	}
}

func TestMemoryStore_Resources_CreationOrder(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store := quiz.NewMemoryStore(quiz.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	store.CreateResource(quiz.NewResource{Title: "first"})
	store.CreateResource(quiz.NewResource{Title: "second"})
	store.CreateResource(quiz.NewResource{Title: "third"})

	got := store.Resources()
	if len(got) != 3 {
		t.Fatalf("Resources() count = %d, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Title != want {
			t.Errorf("Resources()[%d].Title = %q, want %q", i, got[i].Title, want)
		}
	}
}

func TestMemoryStore_UpdateResource_Partial(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := store.CreateResource(quiz.NewResource{Title: "Old", Description: "keep me"})

	title := "New"
	got, ok := store.UpdateResource(r.ID, quiz.ResourcePatch{Title: &title})
	if !ok {
		t.Fatal("UpdateResource() should find resource")
	}
	if got.Title != "New" {
		t.Errorf("Title = %q, want New", got.Title)
	}
	if got.Description != "keep me" {
		t.Errorf("Description = %q, omitted field should be preserved", got.Description)
	}

	if _, ok := store.UpdateResource("nonexistent", quiz.ResourcePatch{Title: &title}); ok {
		t.Error("UpdateResource() should report missing resource")
	}
}

func TestMemoryStore_DeleteResource(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := store.CreateResource(quiz.NewResource{Title: "Gone"})

	if !store.DeleteResource(r.ID) {
		t.Error("DeleteResource() = false, want true for existing resource")
	}
	if store.DeleteResource(r.ID) {
		t.Error("DeleteResource() = true, want false on second delete")
	}
	if _, ok := store.Resource(r.ID); ok {
		t.Error("resource should be gone after delete")
	}
}

func TestMemoryStore_CreateQuiz_IncrementsCounter(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := store.CreateResource(quiz.NewResource{Title: "Book A"})

	q := store.CreateQuiz(quiz.NewQuiz{ResourceID: r.ID, Title: "Quiz 1", Questions: sampleQuestions(t)})
	if q.ID == "" {
		t.Error("CreateQuiz() returned empty ID")
	}

	got, _ := store.Resource(r.ID)
	if got.TotalQuizzes != 1 {
		t.Errorf("TotalQuizzes = %d, want 1", got.TotalQuizzes)
	}
}

func TestMemoryStore_CreateQuiz_MissingParent(t *testing.T) {
	store := quiz.NewMemoryStore()

	q := store.CreateQuiz(quiz.NewQuiz{ResourceID: "ghost", Title: "Orphan", Questions: sampleQuestions(t)})
	if _, ok := store.Quiz(q.ID); !ok {
		t.Error("quiz with unknown parent should still be stored")
	}
}

func TestMemoryStore_DeleteQuiz_FloorsAtZero(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := store.CreateResource(quiz.NewResource{Title: "Book A"})
	q := store.CreateQuiz(quiz.NewQuiz{ResourceID: r.ID, Title: "Only", Questions: sampleQuestions(t)})

	if !store.DeleteQuiz(q.ID) {
		t.Fatal("DeleteQuiz() = false, want true")
	}
	if store.DeleteQuiz(q.ID) {
		t.Error("DeleteQuiz() = true on second call, want false")
	}

	got, _ := store.Resource(r.ID)
	if got.TotalQuizzes != 0 {
		t.Errorf("TotalQuizzes = %d, want 0", got.TotalQuizzes)
	}
}

func TestMemoryStore_DeleteQuiz_NeverNegative(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := store.CreateResource(quiz.NewResource{Title: "Book A"})
	q := store.CreateQuiz(quiz.NewQuiz{ResourceID: r.ID, Title: "Q", Questions: sampleQuestions(t)})

	if !store.DeleteQuiz(q.ID) {
		t.Fatal("DeleteQuiz() = false on first delete")
	}
	if store.DeleteQuiz(q.ID) {
		t.Error("DeleteQuiz() = true on second delete")
	}

	got, _ := store.Resource(r.ID)
	if got.TotalQuizzes != 0 {
		t.Errorf("TotalQuizzes = %d, want 0", got.TotalQuizzes)
	}
}

func TestMemoryStore_CounterMatchesQuizCount(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := store.CreateResource(quiz.NewResource{Title: "Book A"})
	other := store.CreateResource(quiz.NewResource{Title: "Book B"})

	var ids []string
	for i := 0; i < 5; i++ {
		q := store.CreateQuiz(quiz.NewQuiz{ResourceID: r.ID, Title: "Q", Questions: sampleQuestions(t)})
		ids = append(ids, q.ID)
	}
	store.CreateQuiz(quiz.NewQuiz{ResourceID: other.ID, Title: "Elsewhere", Questions: sampleQuestions(t)})
	store.DeleteQuiz(ids[0])
	store.DeleteQuiz(ids[3])
	store.DeleteQuiz(ids[3])

	got, _ := store.Resource(r.ID)
	quizzes := store.QuizzesByResource(r.ID)
	if got.TotalQuizzes != len(quizzes) {
		t.Errorf("TotalQuizzes = %d, but %d quizzes exist", got.TotalQuizzes, len(quizzes))
	}
	if len(quizzes) != 3 {
		t.Errorf("QuizzesByResource() count = %d, want 3", len(quizzes))
	}
}

func TestMemoryStore_QuizzesByResource_Empty(t *testing.T) {
	store := quiz.NewMemoryStore()

	got := store.QuizzesByResource("nonexistent")
	if got == nil || len(got) != 0 {
		t.Errorf("QuizzesByResource() = %v, want empty non-nil slice", got)
	}
}

func TestMemoryStore_Quiz_CopyOnRead(t *testing.T) {
	store := quiz.NewMemoryStore()
	q := store.CreateQuiz(quiz.NewQuiz{ResourceID: "r", Title: "Q", Questions: sampleQuestions(t)})

	first, _ := store.Quiz(q.ID)
	first.Questions[0].Text = "mutated"
	first.Questions[0].Options[0].Text = "mutated"

	second, _ := store.Quiz(q.ID)
	if second.Questions[0].Text == "mutated" || second.Questions[0].Options[0].Text == "mutated" {
		t.Error("mutating a returned quiz should not change the stored quiz")
	}
}

func TestMemoryStore_Quiz_IdempotentRead(t *testing.T) {
	store := quiz.NewMemoryStore()
	q := store.CreateQuiz(quiz.NewQuiz{ResourceID: "r", Title: "Q", Questions: sampleQuestions(t)})

	a, _ := store.Quiz(q.ID)
	b, _ := store.Quiz(q.ID)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Quiz() returned different values on repeated reads: %+v vs %+v", a, b)
	}
}

func TestMemoryStore_SaveProgress_KeepsHistory(t *testing.T) {
	store := quiz.NewMemoryStore()

	in := quiz.NewProgress{
		UserID: "u1", ResourceID: "r1", QuizID: "q1",
		Score: 3, TotalQuestions: 5,
		Answers: map[string]string{"q-1": "o-2"},
	}
	first := store.SaveProgress(in)
	in.Score = 5
	second := store.SaveProgress(in)

	if first.ID == second.ID {
		t.Error("each attempt should get its own ID")
	}
	if first.CompletedAt.IsZero() {
		t.Error("CompletedAt should be set")
	}

	got := store.ProgressByUser("u1")
	if len(got) != 2 {
		t.Fatalf("ProgressByUser() count = %d, want 2", len(got))
	}
}

func TestMemoryStore_SaveProgress_AnswersCopied(t *testing.T) {
	store := quiz.NewMemoryStore()
	answers := map[string]string{"q-1": "o-1"}

	p := store.SaveProgress(quiz.NewProgress{UserID: "u1", QuizID: "q", Answers: answers})
	answers["q-1"] = "changed"
	p.Answers["q-1"] = "changed too"

	got := store.ProgressByUser("u1")
	if got[0].Answers["q-1"] != "o-1" {
		t.Errorf("stored answer = %q, want o-1", got[0].Answers["q-1"])
	}
}

func TestMemoryStore_ProgressByUserAndResource(t *testing.T) {
	store := quiz.NewMemoryStore()
	store.SaveProgress(quiz.NewProgress{UserID: "u1", ResourceID: "r1", QuizID: "q1", TotalQuestions: 1})
	store.SaveProgress(quiz.NewProgress{UserID: "u1", ResourceID: "r2", QuizID: "q2", TotalQuestions: 1})
	store.SaveProgress(quiz.NewProgress{UserID: "u2", ResourceID: "r1", QuizID: "q1", TotalQuestions: 1})

	tests := []struct {
		name       string
		userID     string
		resourceID string
		want       int
	}{
		{"match both", "u1", "r1", 1},
		{"other resource", "u1", "r2", 1},
		{"other user", "u2", "r1", 1},
		{"no match", "u2", "r2", 0},
		{"unknown user", "nobody", "r1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.ProgressByUserAndResource(tt.userID, tt.resourceID)
			if len(got) != tt.want {
				t.Errorf("ProgressByUserAndResource(%q, %q) count = %d, want %d", tt.userID, tt.resourceID, len(got), tt.want)
			}
		})
	}
}

func TestMemoryStore_ConcurrentQuizWrites(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := store.CreateResource(quiz.NewResource{Title: "Busy"})
	questions := sampleQuestions(t)

	done := make(chan string)
	for i := 0; i < 50; i++ {
		go func() {
			q := store.CreateQuiz(quiz.NewQuiz{ResourceID: r.ID, Title: "Q", Questions: questions})
			done <- q.ID
		}()
	}
	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		ids = append(ids, <-done)
	}
	for _, id := range ids[:20] {
		id := id
		go func() {
			store.DeleteQuiz(id)
			done <- id
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	got, _ := store.Resource(r.ID)
	if got.TotalQuizzes != 30 {
		t.Errorf("TotalQuizzes = %d, want 30", got.TotalQuizzes)
	}
	if n := len(store.QuizzesByResource(r.ID)); n != 30 {
		t.Errorf("QuizzesByResource() count = %d, want 30", n)
	}
}
