package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/validate"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) listProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userId")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.ProgressByUser(userID))
}

func (s *Server) listResourceProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userId")
	if !ok {
		return
	}
	resourceID, ok := pathParam(w, r, "resourceId")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.ProgressByUserAndResource(userID, resourceID))
}

func (s *Server) saveProgress(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := validate.Progress(raw)
	if err != nil {
		fail(w, r, err)
		return
	}
	saved := s.store.SaveProgress(in)
	s.feed.Publish(saved)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) progressSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userId")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, progress.Summarize(userID, s.store.ProgressByUser(userID), s.store.Resources()))
}

func (s *Server) exportProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userId")
	if !ok {
		return
	}

	attempts := s.store.ProgressByUser(userID)
	titles := progress.Titles{Resources: map[string]string{}, Quizzes: map[string]string{}}
	for _, res := range s.store.Resources() {
		titles.Resources[res.ID] = res.Title
	}
	for _, a := range attempts {
		if _, seen := titles.Quizzes[a.QuizID]; seen {
			continue
		}
		if q, found := s.store.Quiz(a.QuizID); found {
			titles.Quizzes[q.ID] = q.Title
		}
	}

	var buf bytes.Buffer
	if err := progress.WriteXLSX(&buf, attempts, titles); err != nil {
		fail(w, r, fmt.Errorf("exporting progress for %s: %w", userID, err))
		return
	}
	filename := "progress-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing export", "user_id", userID, "error", err)
	}
}

// liveProgress streams newly saved attempts for one user over a WebSocket
// until either side closes it.
func (s *Server) liveProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userId")
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns()})
	if err != nil {
		// Accept has already written the HTTP error.
		slog.Warn("websocket accept failed", "user_id", userID, "error", err)
		return
	}
	defer conn.CloseNow()

	events, cancel := s.feed.Subscribe(userID)
	defer cancel()

	ctx := conn.CloseRead(r.Context())
	logger := slog.With("request_id", middleware.GetReqID(r.Context()), "user_id", userID)
	logger.Debug("live progress subscribed")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("live progress closed", "reason", ctx.Err())
			return
		case ev, open := <-events:
			if !open {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			writeCtx, done := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			done()
			if err != nil {
				logger.Debug("live progress write failed", "error", err)
				return
			}
		}
	}
}

// originPatterns converts the CORS allow-list into host patterns for the
// WebSocket origin check.
func (s *Server) originPatterns() []string {
	patterns := make([]string, 0, len(s.allowedOrigins))
	for _, o := range s.allowedOrigins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}
