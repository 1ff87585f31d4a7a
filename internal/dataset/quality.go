package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"syntaxforge/internal/logging"
)

// Quality audit thresholds.
const (
	qualityMaxSentenceRunes = 500
	qualityMinSentenceRunes = 10
	qualityMaxTokens        = 1000
)

// QualityIssues counts the distinct ways a sampled line can be defective.
// A line is charged to the first check it fails.
type QualityIssues struct {
	ParseErrors       int `json:"json_parse_errors"`
	MissingMessages   int `json:"missing_messages"`
	WrongMessageCount int `json:"wrong_message_count"`
	WrongRoles        int `json:"wrong_roles"`
	EmptyContent      int `json:"empty_content"`
	BadAssistantJSON  int `json:"assistant_json_errors"`
	MissingFields     int `json:"missing_fields"`
	EmptyFields       int `json:"empty_fields"`
	TooLong           int `json:"extremely_long"`
	TooShort          int `json:"extremely_short"`
	HighTokenCount    int `json:"high_token_count"`
}

// LengthStats summarizes sampled sentence lengths in runes.
type LengthStats struct {
	Avg    float64 `json:"avg"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Median int     `json:"median"`
}

// QualityReport is the outcome of a sampled audit of a JSONL dataset file.
type QualityReport struct {
	Path       string        `json:"path"`
	TotalLines int           `json:"total_lines"`
	Sampled    int           `json:"sampled"`
	Valid      int           `json:"valid"`
	Issues     QualityIssues `json:"issues"`
	Lengths    LengthStats   `json:"sentence_lengths"`
	Score      float64       `json:"score"`
}

// CheckFile audits up to sampleSize randomly chosen lines of a JSONL dataset
// file and scores it 0-100 by the share of clean examples. The seed fixes
// the sample so repeated audits of the same file agree.
func CheckFile(path string, sampleSize int, seed int64) (*QualityReport, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: empty dataset", path)
	}

	sample := lines
	if sampleSize > 0 && sampleSize < len(lines) {
		rng := rand.New(rand.NewSource(seed))
		idx := rng.Perm(len(lines))[:sampleSize]
		sort.Ints(idx)
		sample = make([]string, 0, sampleSize)
		for _, i := range idx {
			sample = append(sample, lines[i])
		}
	}

	report := &QualityReport{Path: path, TotalLines: len(lines), Sampled: len(sample)}
	var lengths []int
	for _, line := range sample {
		if n, ok := auditLine(line, &report.Issues); ok {
			report.Valid++
			lengths = append(lengths, n)
		}
	}

	if len(lengths) > 0 {
		sort.Ints(lengths)
		total := 0
		for _, n := range lengths {
			total += n
		}
		report.Lengths = LengthStats{
			Avg:    float64(total) / float64(len(lengths)),
			Min:    lengths[0],
			Max:    lengths[len(lengths)-1],
			Median: lengths[len(lengths)/2],
		}
	}
	report.Score = float64(report.Valid) / float64(report.Sampled) * 100

	logging.Get(logging.CategoryDataset).Info("quality check %s: %d/%d valid (%.1f%%)",
		path, report.Valid, report.Sampled, report.Score)
	return report, nil
}

// auditLine applies the full check chain to one line. It returns the
// sentence length in runes and whether the line passed every check. Length
// and token outliers are counted but do not invalidate the line.
func auditLine(line string, issues *QualityIssues) (int, bool) {
	var ex Example
	if err := json.Unmarshal([]byte(line), &ex); err != nil {
		issues.ParseErrors++
		return 0, false
	}
	if ex.Messages == nil {
		issues.MissingMessages++
		return 0, false
	}
	if len(ex.Messages) != 2 {
		issues.WrongMessageCount++
		return 0, false
	}
	user, assistant := ex.Messages[0], ex.Messages[1]
	if user.Role != "user" || assistant.Role != "assistant" {
		issues.WrongRoles++
		return 0, false
	}
	userContent := strings.TrimSpace(user.Content)
	assistantContent := strings.TrimSpace(assistant.Content)
	if userContent == "" || assistantContent == "" {
		issues.EmptyContent++
		return 0, false
	}

	var analysis map[string]string
	if err := json.Unmarshal([]byte(assistantContent), &analysis); err != nil {
		issues.BadAssistantJSON++
		return 0, false
	}
	for _, field := range requiredAnalysisFields {
		v, ok := analysis[field]
		if !ok {
			issues.MissingFields++
			return 0, false
		}
		if strings.TrimSpace(v) == "" {
			issues.EmptyFields++
			return 0, false
		}
	}

	sentence := strings.TrimPrefix(userContent, PromptPrefix)
	n := utf8.RuneCountInString(sentence)
	switch {
	case n > qualityMaxSentenceRunes:
		issues.TooLong++
	case n < qualityMinSentenceRunes:
		issues.TooShort++
	}
	if EstimateTokens(userContent)+EstimateTokens(assistantContent) > qualityMaxTokens {
		issues.HighTokenCount++
	}
	return n, true
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
