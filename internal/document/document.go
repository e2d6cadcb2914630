// Package document accepts uploaded quiz documents and turns them into
// questions.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// DefaultMaxBytes is the upload size limit used when none is configured.
const DefaultMaxBytes = 10 << 20

var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("invalid file type, only PDF, DOCX, and TXT files are allowed")
)

// Accepted content types. Detection uses the file's bytes; the client's
// declared Content-Type is ignored.
var accepted = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
}

// Upload is a size- and type-checked document.
type Upload struct {
	Name string
	MIME string
	Data []byte
}

// Read loads fh into memory, enforcing maxBytes and the accepted types.
func Read(fh *multipart.FileHeader, maxBytes int64) (Upload, error) {
	if fh == nil {
		return Upload{}, ErrNoFile
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if fh.Size > maxBytes {
		return Upload{}, ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return Upload{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), accepted...) {
		return Upload{}, fmt.Errorf("%w (detected %s)", ErrUnsupportedType, mt.String())
	}
	return Upload{Name: fh.Filename, MIME: mt.String(), Data: data}, nil
}

// Parser extracts questions from an uploaded document.
type Parser interface {
	Parse(ctx context.Context, doc Upload) ([]quiz.Question, error)
}

// SampleParser ignores the document and returns one placeholder question
// with four options, A being correct.
type SampleParser struct{}

func (SampleParser) Parse(_ context.Context, _ Upload) ([]quiz.Question, error) {
	q, err := quiz.BuildQuestion(
		"Sample question parsed from uploaded document?",
		"This is a sample explanation parsed from the document.",
		"A",
		[]quiz.Option{
			{Text: "Option A", Letter: "A"},
			{Text: "Option B", Letter: "B"},
			{Text: "Option C", Letter: "C"},
			{Text: "Option D", Letter: "D"},
		},
	)
	if err != nil {
		return nil, err
	}
	return []quiz.Question{q}, nil
}
