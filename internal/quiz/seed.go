package quiz

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Quizzes []seedQuiz `yaml:"quizzes"`
}

type seedQuiz struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	JobPostID   string         `yaml:"jobPostId"`
	Duration    int            `yaml:"duration"`
	Questions   []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	ID            string   `yaml:"id"`
	Text          string   `yaml:"text"`
	Type          string   `yaml:"type"`
	Options       []string `yaml:"options"`
	CorrectAnswer any      `yaml:"correctAnswer"` // string or bool
	Points        int      `yaml:"points"`
}

// LoadSeed reads a YAML document with a top-level "quizzes" list. Every
// quiz is normalized and validated.
func LoadSeed(r io.Reader) ([]Quiz, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	out := make([]Quiz, 0, len(f.Quizzes))
	for i, sq := range f.Quizzes {
		q := Quiz{
			Title:       sq.Title,
			Description: sq.Description,
			JobPostID:   sq.JobPostID,
			Duration:    sq.Duration,
		}
		for _, qq := range sq.Questions {
			ans := ""
			if qq.CorrectAnswer != nil {
				ans = fmt.Sprint(qq.CorrectAnswer)
			}
			q.Questions = append(q.Questions, Question{
				ID:            qq.ID,
				Text:          qq.Text,
				Type:          QuestionType(qq.Type),
				Options:       qq.Options,
				CorrectAnswer: ans,
				Points:        qq.Points,
			})
		}
		q.Normalize()
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("seed quiz %d (%s): %w", i, sq.Title, err)
		}
		out = append(out, q)
	}
	return out, nil
}
