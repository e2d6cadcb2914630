package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/p-n-ai/pai-quiz/internal/bonus"
	"github.com/p-n-ai/pai-quiz/internal/document"
	"github.com/p-n-ai/pai-quiz/internal/validate"
)

const (
	msgQuizNotFound = "Quiz not found"
	// Form fields other than the document itself.
	maxFormMemory = 1 << 20
)

func (s *Server) listQuizzes(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := pathParam(w, r, "resourceId")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.QuizzesByResource(resourceID))
}

func (s *Server) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "quizId")
	if !ok {
		return
	}
	q, found := s.store.Quiz(id)
	if !found {
		writeMessage(w, http.StatusNotFound, msgQuizNotFound)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "quizId")
	if !ok {
		return
	}
	if !s.store.DeleteQuiz(id) {
		writeMessage(w, http.StatusNotFound, msgQuizNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createQuiz accepts either a multipart upload (title, description and a
// document file) or a JSON quiz body. The path's resource id always wins.
func (s *Server) createQuiz(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := pathParam(w, r, "resourceId")
	if !ok {
		return
	}

	var raw []byte
	if isJSON(r) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		raw = withResourceID(body, resourceID)
	} else {
		payload, ok := s.quizFromUpload(w, r, resourceID)
		if !ok {
			return
		}
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			fail(w, r, fmt.Errorf("encoding quiz payload: %w", err))
			return
		}
	}

	in, err := validate.Quiz(raw)
	if err != nil {
		fail(w, r, err)
		return
	}
	q := s.store.CreateQuiz(in)
	slog.Info("quiz created",
		"request_id", middleware.GetReqID(r.Context()),
		"quiz_id", q.ID,
		"resource_id", q.ResourceID,
		"questions", len(q.Questions),
	)
	writeJSON(w, http.StatusCreated, q)
}

// quizFromUpload reads the multipart form, parses the document and returns
// the quiz payload to validate. On failure it writes the response itself.
func (s *Server) quizFromUpload(w http.ResponseWriter, r *http.Request, resourceID string) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.uploadError(w, document.ErrTooLarge)
			return nil, false
		}
		s.uploadError(w, document.ErrNoFile)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	fh := firstFile(r, "document")
	doc, err := document.Read(fh, s.maxUpload)
	if err != nil {
		if errors.Is(err, document.ErrNoFile) || errors.Is(err, document.ErrTooLarge) || errors.Is(err, document.ErrUnsupportedType) {
			s.uploadError(w, err)
			return nil, false
		}
		fail(w, r, err)
		return nil, false
	}

	questions, err := s.parser.Parse(r.Context(), doc)
	if err != nil {
		fail(w, r, fmt.Errorf("parsing %s: %w", doc.Name, err))
		return nil, false
	}

	payload := map[string]any{
		"resourceId": resourceID,
		"questions":  questions,
	}
	if v, ok := r.MultipartForm.Value["title"]; ok && len(v) > 0 {
		payload["title"] = v[0]
	}
	if v, ok := r.MultipartForm.Value["description"]; ok && len(v) > 0 {
		payload["description"] = v[0]
	}
	return payload, true
}

func (s *Server) uploadError(w http.ResponseWriter, err error) {
	msg := "No file uploaded"
	switch {
	case errors.Is(err, document.ErrTooLarge):
		msg = "File is too large. The maximum size is " + humanSize(s.maxUpload) + "."
	case errors.Is(err, document.ErrUnsupportedType):
		msg = "Invalid file type. Only PDF, DOCX, and TXT files are allowed."
	}
	writeMessage(w, http.StatusBadRequest, msg)
}

func (s *Server) bonusQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "quizId")
	if !ok {
		return
	}
	q, found := s.store.Quiz(id)
	if !found {
		writeMessage(w, http.StatusNotFound, msgQuizNotFound)
		return
	}

	existing := make([]string, len(q.Questions))
	for i, question := range q.Questions {
		existing[i] = question.Text
	}
	questions, err := s.generator.Generate(r.Context(), bonus.Request{
		Title:       q.Title,
		Description: q.Description,
		Existing:    existing,
		RequesterID: strings.TrimSpace(r.URL.Query().Get("userId")),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// withResourceID sets resourceId on a JSON object body. Bodies that are not
// objects are returned as-is for the validator to reject.
func withResourceID(body []byte, resourceID string) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return body
	}
	obj["resourceId"], _ = json.Marshal(resourceID)
	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return out
}

func firstFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func humanSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
