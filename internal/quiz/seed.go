package quiz

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed/first_minute.yaml
var defaultSeed []byte

// SeedData is demonstration content inserted into a fresh store.
type SeedData struct {
	Resources []SeedResource `yaml:"resources"`
}

// SeedResource is a resource and the quizzes published under it.
type SeedResource struct {
	Title         string     `yaml:"title"`
	Description   string     `yaml:"description"`
	CoverImageURL string     `yaml:"cover_image_url"`
	Quizzes       []SeedQuiz `yaml:"quizzes"`
}

// SeedQuiz is a quiz whose answers are keyed by option letter.
type SeedQuiz struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Questions   []SeedQuestion `yaml:"questions"`
}

// SeedQuestion is a question with its correct option given as a letter.
type SeedQuestion struct {
	Text        string       `yaml:"text"`
	Options     []SeedOption `yaml:"options"`
	Correct     string       `yaml:"correct"`
	Explanation string       `yaml:"explanation"`
}

// SeedOption is one answer choice.
type SeedOption struct {
	Letter string `yaml:"letter"`
	Text   string `yaml:"text"`
}

// DefaultSeed returns the built-in "The First Minute" content.
func DefaultSeed() (SeedData, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeedFile reads seed content from a YAML file.
func LoadSeedFile(path string) (SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML.
func ParseSeed(data []byte) (SeedData, error) {
	var sd SeedData
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return SeedData{}, fmt.Errorf("parsing seed YAML: %w", err)
	}
	return sd, nil
}

// Seed inserts every resource and quiz in sd. All questions are resolved
// before anything is written, so a bad answer key leaves the store untouched.
func Seed(store Store, sd SeedData) error {
	type pending struct {
		resource NewResource
		quizzes  []NewQuiz
	}

	plan := make([]pending, 0, len(sd.Resources))
	for _, sr := range sd.Resources {
		if sr.Title == "" {
			return fmt.Errorf("seed resource without title")
		}
		p := pending{resource: NewResource{
			Title:         sr.Title,
			Description:   sr.Description,
			CoverImageURL: sr.CoverImageURL,
		}}
		for _, sq := range sr.Quizzes {
			questions, err := buildSeedQuestions(sq.Questions)
			if err != nil {
				return fmt.Errorf("seed quiz %q: %w", sq.Title, err)
			}
			p.quizzes = append(p.quizzes, NewQuiz{
				Title:       sq.Title,
				Description: sq.Description,
				Questions:   questions,
			})
		}
		plan = append(plan, p)
	}

	for _, p := range plan {
		r := store.CreateResource(p.resource)
		for _, q := range p.quizzes {
			q.ResourceID = r.ID
			store.CreateQuiz(q)
		}
		slog.Info("seeded resource", "resource_id", r.ID, "title", r.Title, "quizzes", len(p.quizzes))
	}
	return nil
}

func buildSeedQuestions(in []SeedQuestion) ([]Question, error) {
	out := make([]Question, 0, len(in))
	for i, sq := range in {
		opts := make([]Option, len(sq.Options))
		for j, so := range sq.Options {
			opts[j] = Option{Text: so.Text, Letter: so.Letter}
		}
		q, err := BuildQuestion(sq.Text, sq.Explanation, sq.Correct, opts)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}
