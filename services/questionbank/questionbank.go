// Package questionbank serves interview challenges from an embedded YAML file.
package questionbank

import (
	_ "embed"
	"math/rand/v2"
	"strings"

	"gopkg.in/yaml.v3"

	"careerhub-backend/errors"
)

//go:embed questions.yaml
var questionsYAML []byte

type Question struct {
	Topic      string   `yaml:"topic"`
	Difficulty string   `yaml:"difficulty"`
	Prompt     string   `yaml:"prompt"`
	Hints      []string `yaml:"hints"`
	Rubric     string   `yaml:"rubric"`
}

type Bank struct {
	Questions []Question `yaml:"questions"`
}

// Parse reads a bank from YAML.
func Parse(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(err, "parse question bank")
	}
	if len(b.Questions) == 0 {
		return nil, errors.New("question bank is empty")
	}
	return &b, nil
}

// Default returns the embedded bank.
func Default() *Bank {
	b, err := Parse(questionsYAML)
	if err != nil {
		panic(err)
	}
	return b
}

func matches(field, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	return want == "" || strings.Contains(strings.ToLower(field), want)
}

// Pick returns a question matching difficulty and topic. When nothing
// matches both it relaxes topic, then difficulty. intn chooses among the
// candidates; nil means math/rand.
func (b *Bank) Pick(difficulty, topic string, intn func(int) int) Question {
	if intn == nil {
		intn = rand.IntN
	}
	filters := []func(Question) bool{
		func(q Question) bool { return matches(q.Difficulty, difficulty) && matches(q.Topic, topic) },
		func(q Question) bool { return matches(q.Topic, topic) },
		func(q Question) bool { return matches(q.Difficulty, difficulty) },
	}
	for _, keep := range filters {
		var candidates []Question
		for _, q := range b.Questions {
			if keep(q) {
				candidates = append(candidates, q)
			}
		}
		if len(candidates) > 0 {
			return candidates[intn(len(candidates))]
		}
	}
	return b.Questions[intn(len(b.Questions))]
}
