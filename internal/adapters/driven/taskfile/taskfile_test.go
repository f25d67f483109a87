package taskfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spo/internal/core/domain"
)

const entitiesYAML = `
prompt: |
  Extract entities.
requirements: List every named entity.
count: null
qa:
  - question: Alice met Bob in Paris.
    answer: Alice, Bob, Paris
  - question: IBM hired Carol.
    answer: IBM, Carol
`

func TestParse(t *testing.T) {
	task, err := Parse([]byte(entitiesYAML), 3)
	require.NoError(t, err)

	want := domain.TaskContext{
		SeedInstruction: "Extract entities.",
		Requirement:     "List every named entity.",
		MaxRounds:       3,
		Exemplars: []domain.Exemplar{
			{Question: "Alice met Bob in Paris.", Answer: "Alice, Bob, Paris"},
			{Question: "IBM hired Carol.", Answer: "IBM, Carol"},
		},
	}
	if diff := cmp.Diff(want, task); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MaxRoundsOverride(t *testing.T) {
	task, err := Parse([]byte(entitiesYAML+"max_rounds: 0\n"), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, task.MaxRounds)
}

func TestParse_StructuredQuestion(t *testing.T) {
	data := `
prompt: Write in this style.
requirements: Match the tone.
qa:
  - question:
      tone: formal
      length: short
    answer: ""
`
	task, err := Parse([]byte(data), 1)
	require.NoError(t, err)
	require.Len(t, task.Exemplars, 1)
	assert.Equal(t, "tone: formal\nlength: short", task.Exemplars[0].Question)
	assert.Empty(t, task.Exemplars[0].Answer)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "prompt: [unterminated"},
		{"missing prompt", "requirements: r\nqa:\n  - question: q\n    answer: a\n"},
		{"missing requirements", "prompt: p\nqa:\n  - question: q\n    answer: a\n"},
		{"no exemplars", "prompt: p\nrequirements: r\n"},
		{"blank question", "prompt: p\nrequirements: r\nqa:\n  - question: \"  \"\n    answer: a\n"},
		{"negative rounds", "prompt: p\nrequirements: r\nmax_rounds: -1\nqa:\n  - question: q\n    answer: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), 3)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	want := Template()
	want.Exemplars[1].Question = "Line one.\nLine two."

	require.NoError(t, Save(path, want))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "requirements:")
	assert.Contains(t, string(raw), "count: null")

	got, err := Load(path, 9)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoad_ZeroBudgetSurvives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	want := Template()
	want.MaxRounds = 0

	require.NoError(t, Save(path, want))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "max_rounds: 0")

	got, err := Load(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MaxRounds)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), 3)
	assert.Error(t, err)
}

func TestTemplate_IsValid(t *testing.T) {
	assert.NoError(t, Template().Validate())
}
