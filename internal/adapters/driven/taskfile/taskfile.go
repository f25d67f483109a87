// Package taskfile reads and writes optimisation tasks as YAML files.
//
// The format is:
//
//	prompt: <seed instruction>
//	requirements: <what a good answer must satisfy>
//	count: <ignored>
//	max_rounds: <optional round budget>
//	qa:
//	  - question: <input>
//	    answer: <golden answer>
//
// A question may also be a YAML mapping or sequence, such as a style
// description; it is re-encoded as YAML text and used verbatim.
package taskfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/spo/internal/core/domain"
)

// File is the on-disk shape of a task.
type File struct {
	Prompt       string   `yaml:"prompt"`
	Requirements string   `yaml:"requirements"`
	Count        *int     `yaml:"count"`
	MaxRounds    *int     `yaml:"max_rounds,omitempty"`
	QA           []QAPair `yaml:"qa"`
}

// QAPair is one exemplar. Question keeps the raw node so structured
// questions survive decoding.
type QAPair struct {
	Question yaml.Node `yaml:"question"`
	Answer   string    `yaml:"answer"`
}

// Load reads and parses a task file. defaultRounds applies when the file
// does not set max_rounds.
func Load(path string, defaultRounds int) (domain.TaskContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.TaskContext{}, fmt.Errorf("read task file: %w", err)
	}
	task, err := Parse(data, defaultRounds)
	if err != nil {
		return domain.TaskContext{}, fmt.Errorf("%s: %w", path, err)
	}
	return task, nil
}

// Parse decodes and validates a task.
func Parse(data []byte, defaultRounds int) (domain.TaskContext, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.TaskContext{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	task := domain.TaskContext{
		SeedInstruction: strings.TrimSpace(f.Prompt),
		Requirement:     strings.TrimSpace(f.Requirements),
		MaxRounds:       defaultRounds,
		Exemplars:       make([]domain.Exemplar, 0, len(f.QA)),
	}
	if f.MaxRounds != nil {
		task.MaxRounds = *f.MaxRounds
	}

	for i, qa := range f.QA {
		question, err := questionText(&qa.Question)
		if err != nil {
			return domain.TaskContext{}, fmt.Errorf("%w: qa[%d].question: %w", domain.ErrInvalidInput, i, err)
		}
		task.Exemplars = append(task.Exemplars, domain.Exemplar{
			Question: question,
			Answer:   strings.TrimSpace(qa.Answer),
		})
	}

	if err := task.Validate(); err != nil {
		return domain.TaskContext{}, err
	}
	return task, nil
}

func questionText(node *yaml.Node) (string, error) {
	switch node.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "", nil
		}
		return strings.TrimSpace(node.Value), nil
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return strings.TrimSpace(buf.String()), nil
	}
}

// Marshal encodes a task in the file format. max_rounds is always written
// so a zero budget survives a reload.
func Marshal(task domain.TaskContext) ([]byte, error) {
	f := File{
		Prompt:       task.SeedInstruction,
		Requirements: task.Requirement,
		MaxRounds:    &task.MaxRounds,
		QA:           make([]QAPair, 0, len(task.Exemplars)),
	}
	for _, ex := range task.Exemplars {
		var q yaml.Node
		q.SetString(ex.Question)
		f.QA = append(f.QA, QAPair{Question: q, Answer: ex.Answer})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return nil, fmt.Errorf("encode task: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode task: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes a task file, replacing any existing file.
func Save(path string, task domain.TaskContext) error {
	data, err := Marshal(task)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Template returns a starter task for `spo task init`.
func Template() domain.TaskContext {
	return domain.TaskContext{
		SeedInstruction: "Extract every named entity from the text and list them separated by commas.",
		Requirement:     "List all people, organisations and places exactly as written. Output only the list.",
		MaxRounds:       3,
		Exemplars: []domain.Exemplar{
			{
				Question: "Ada Lovelace worked with Charles Babbage in London.",
				Answer:   "Ada Lovelace, Charles Babbage, London",
			},
			{
				Question: "The United Nations met in Geneva with delegates from Kenya.",
				Answer:   "United Nations, Geneva, Kenya",
			},
		},
	}
}
