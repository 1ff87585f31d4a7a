package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntaxforge/internal/strategy"
)

func buildExamples(t *testing.T, sentences ...string) []Example {
	t.Helper()
	var examples []Example
	for _, s := range sentences {
		ex, err := NewExample(s, strategy.TransformedExample{
			Chunks:           "[verbs runs]",
			POSTags:          "VERB",
			GrammaticalRoles: "verbs:단순 현재",
		})
		require.NoError(t, err)
		examples = append(examples, ex)
	}
	return examples
}

func TestWriteReadJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "train.jsonl")
	examples := buildExamples(t,
		"The dog runs in the park.",
		"Another sentence that runs fine.",
	)

	n, err := WriteJSONL(path, examples)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	loaded, err := ReadJSONL(path)
	require.NoError(t, err)
	if diff := cmp.Diff(examples, loaded); diff != "" {
		t.Fatalf("round trip changed examples (-written +read):\n%s", diff)
	}
}

func TestCheckFileCleanDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.jsonl")
	_, err := WriteJSONL(path, buildExamples(t,
		"The dog runs in the park.",
		"Another sentence that runs fine.",
		"A third example sentence for the audit.",
	))
	require.NoError(t, err)

	report, err := CheckFile(path, 0, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalLines)
	assert.Equal(t, 3, report.Sampled)
	assert.Equal(t, 3, report.Valid)
	assert.InDelta(t, 100.0, report.Score, 1e-9)
	assert.Greater(t, report.Lengths.Min, 0)
}

func TestCheckFileCountsIssues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirty.jsonl")

	good := buildExamples(t, "The dog runs in the park.")
	lines := []string{
		`not json at all`,
		`{"other": 1}`,
		`{"messages": [{"role": "user", "content": "only one"}]}`,
		`{"messages": [{"role": "assistant", "content": "a"}, {"role": "user", "content": "b"}]}`,
		`{"messages": [{"role": "user", "content": "q"}, {"role": "assistant", "content": "not json"}]}`,
		`{"messages": [{"role": "user", "content": "q"}, {"role": "assistant", "content": "{\"chunks\": \"c\"}"}]}`,
	}
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	data, err := os.ReadFile(writeJSONLHelper(t, dir, good))
	require.NoError(t, err)
	content += string(data)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	report, err := CheckFile(path, 0, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Sampled)
	assert.Equal(t, 1, report.Valid)
	assert.Equal(t, 1, report.Issues.ParseErrors)
	assert.Equal(t, 1, report.Issues.MissingMessages)
	assert.Equal(t, 1, report.Issues.WrongMessageCount)
	assert.Equal(t, 1, report.Issues.WrongRoles)
	assert.Equal(t, 1, report.Issues.BadAssistantJSON)
	assert.Equal(t, 1, report.Issues.MissingFields)
}

func writeJSONLHelper(t *testing.T, dir string, examples []Example) string {
	t.Helper()
	path := filepath.Join(dir, "good.jsonl")
	_, err := WriteJSONL(path, examples)
	require.NoError(t, err)
	return path
}

func TestCheckFileFlagsShortSentences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.jsonl")
	_, err := WriteJSONL(path, buildExamples(t, "Tiny."))
	require.NoError(t, err)

	report, err := CheckFile(path, 0, DefaultSeed)
	require.NoError(t, err)
	// Length outliers are reported but do not invalidate the example.
	assert.Equal(t, 1, report.Valid)
	assert.Equal(t, 1, report.Issues.TooShort)
}

func TestCheckFileSampling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.jsonl")
	var sentences []string
	for i := 0; i < 50; i++ {
		sentences = append(sentences, "A perfectly reasonable sentence for sampling.")
	}
	_, err := WriteJSONL(path, buildExamples(t, sentences...))
	require.NoError(t, err)

	report, err := CheckFile(path, 10, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 50, report.TotalLines)
	assert.Equal(t, 10, report.Sampled)

	again, err := CheckFile(path, 10, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, report.Valid, again.Valid)
}

func TestCheckFileMissingOrEmpty(t *testing.T) {
	_, err := CheckFile(filepath.Join(t.TempDir(), "none.jsonl"), 0, DefaultSeed)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = CheckFile(empty, 0, DefaultSeed)
	assert.Error(t, err)
}
