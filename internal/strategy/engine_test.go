package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntaxforge/internal/record"
	"syntaxforge/internal/tagset"
)

func mergedDef(t *testing.T) *Definition {
	t.Helper()
	return &Definition{
		Name:         "verbs_merged",
		StrategyType: TypeMerged,
		TagMapping: TagMapping{SyntaxGroups: GroupList{
			{Name: "verbs", Rule: GroupRule{Categories: []string{tagset.VerbTense, tagset.VerbVoice, tagset.AuxiliaryVerb}}},
			{Name: "prepositions", Rule: GroupRule{Categories: []string{tagset.Preposition}}},
		}},
	}
}

func TestEngineAppliesMergedMapping(t *testing.T) {
	eng, err := NewEngine(mergedDef(t))
	require.NoError(t, err)

	records := []record.TagRecord{
		{
			Tag:      "단순 현재",
			Category: tagset.VerbTense,
			Words:    []record.WordRef{{Word: "runs", WordIndex: 1, PartOfSpeech: "VERB"}},
		},
	}
	got := eng.Apply(records)
	assert.Equal(t, "[verbs runs]", got.Chunks)
	assert.Equal(t, "VERB", got.POSTags)
	assert.Equal(t, "verbs:단순 현재", got.GrammaticalRoles)
}

func TestEngineJoinsMultipleRecords(t *testing.T) {
	eng, err := NewEngine(mergedDef(t))
	require.NoError(t, err)

	records := []record.TagRecord{
		{
			Tag:      "장소 전치사",
			Category: tagset.Preposition,
			Words: []record.WordRef{
				{Word: "in", WordIndex: 3, PartOfSpeech: "ADP"},
				{Word: "park", WordIndex: 5, PartOfSpeech: "NOUN"},
			},
		},
		{
			Tag:      "수동태",
			Category: tagset.VerbVoice,
			Words:    []record.WordRef{{Word: "built", WordIndex: 7, PartOfSpeech: "VERB"}},
		},
	}
	got := eng.Apply(records)
	assert.Equal(t, "[prepositions in park] [verbs built]", got.Chunks)
	assert.Equal(t, "ADP NOUN VERB", got.POSTags)
	assert.Equal(t, "prepositions:장소 전치사 | verbs:수동태", got.GrammaticalRoles)
}

func TestEngineWordlessRecordEmitsRoleOnly(t *testing.T) {
	eng, err := NewEngine(mergedDef(t))
	require.NoError(t, err)

	got := eng.Apply([]record.TagRecord{{Tag: "현재완료", Category: tagset.VerbTense}})
	assert.Empty(t, got.Chunks)
	assert.Empty(t, got.POSTags)
	assert.Equal(t, "verbs:현재완료", got.GrammaticalRoles)
}

func TestEngineUnknownPOSPlaceholder(t *testing.T) {
	eng, err := NewEngine(mergedDef(t))
	require.NoError(t, err)

	got := eng.Apply([]record.TagRecord{{
		Tag:      "미래",
		Category: tagset.VerbTense,
		Words:    []record.WordRef{{Word: "will", WordIndex: 2}, {Word: "go", WordIndex: 3, PartOfSpeech: "VERB"}},
	}})
	assert.Equal(t, "UNK VERB", got.POSTags)
}

func TestEngineMissingCategoryUsesPlaceholder(t *testing.T) {
	eng, err := NewEngine(mergedDef(t))
	require.NoError(t, err)

	got := eng.Apply([]record.TagRecord{{
		Tag:   "단순 현재",
		Words: []record.WordRef{{Word: "runs", WordIndex: 1, PartOfSpeech: "VERB"}},
	}})
	assert.Equal(t, "[UNK runs]", got.Chunks)
	assert.Equal(t, "UNK:단순 현재", got.GrammaticalRoles)

	expanded := &Definition{
		Name:         "expanded_missing",
		StrategyType: TypeExpanded,
		TagMapping: TagMapping{SyntaxGroups: GroupList{
			{Name: "perfect_tense", Rule: GroupRule{OriginalCategory: tagset.VerbTense, Patterns: []string{"완료"}}},
		}},
	}
	expEng, err := NewEngine(expanded)
	require.NoError(t, err)
	got = expEng.Apply([]record.TagRecord{{Tag: "현재완료"}})
	assert.Equal(t, "UNK:현재완료", got.GrammaticalRoles)
}

func TestEngineUnmappedCategoryKeepsName(t *testing.T) {
	eng, err := NewEngine(mergedDef(t))
	require.NoError(t, err)

	got := eng.Apply([]record.TagRecord{{Tag: "기본 부정", Category: tagset.Negation}})
	assert.Equal(t, tagset.Negation+":기본 부정", got.GrammaticalRoles)
}

func TestEngineIdentityPassthrough(t *testing.T) {
	def, err := NewGenerator().Generate(17, "baseline")
	require.NoError(t, err)
	eng, err := NewEngine(def)
	require.NoError(t, err)

	for _, cat := range tagset.Universe() {
		got := eng.Apply([]record.TagRecord{{Tag: "x", Category: cat}})
		assert.Equal(t, cat+":x", got.GrammaticalRoles)
	}
}

func TestEngineExpandedFirstMatchWins(t *testing.T) {
	def := &Definition{
		Name:         "tense_split",
		StrategyType: TypeExpanded,
		TagMapping: TagMapping{SyntaxGroups: GroupList{
			{Name: "perfect_tense", Rule: GroupRule{OriginalCategory: tagset.VerbTense, Patterns: []string{"완료"}}},
			{Name: "past_tense", Rule: GroupRule{OriginalCategory: tagset.VerbTense, Patterns: []string{"과거"}}},
			{Name: "other_tense", Rule: GroupRule{Categories: []string{tagset.VerbTense}}},
		}},
	}
	eng, err := NewEngine(def)
	require.NoError(t, err)

	tests := []struct {
		tag  string
		want string
	}{
		{"현재완료", "perfect_tense"},
		{"과거완료", "perfect_tense"}, // first rule matches before the past rule
		{"단순 과거", "past_tense"},
		{"단순 현재", "other_tense"},
	}
	for _, tt := range tests {
		got := eng.Apply([]record.TagRecord{{Tag: tt.tag, Category: tagset.VerbTense}})
		assert.Equal(t, tt.want+":"+tt.tag, got.GrammaticalRoles, "tag %q", tt.tag)
	}
}

func TestEnginePatternMatchIsCaseInsensitive(t *testing.T) {
	def := &Definition{
		Name:         "pattern_case",
		StrategyType: TypeFrequencyWeighted,
		TagMapping: TagMapping{SyntaxGroups: GroupList{
			{Name: "wh_questions", Rule: GroupRule{OriginalCategory: tagset.Interrogative, Patterns: []string{"WH"}}},
			{Name: "rest", Rule: GroupRule{Categories: []string{tagset.Interrogative}}},
		}},
	}
	eng, err := NewEngine(def)
	require.NoError(t, err)

	got := eng.Apply([]record.TagRecord{{Tag: "wh-의문문", Category: tagset.Interrogative}})
	assert.Equal(t, "wh_questions:wh-의문문", got.GrammaticalRoles)
}

func TestEngineCustomSeparator(t *testing.T) {
	def := mergedDef(t)
	def.OutputFormat = &OutputFormat{Separator: " ; "}
	eng, err := NewEngine(def)
	require.NoError(t, err)

	got := eng.Apply([]record.TagRecord{
		{Tag: "a", Category: tagset.VerbTense},
		{Tag: "b", Category: tagset.Preposition},
	})
	assert.Equal(t, "verbs:a ; prepositions:b", got.GrammaticalRoles)
}

func TestEngineRejectsInvalidDefinition(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)

	_, err = NewEngine(&Definition{Name: "bad", StrategyType: "nope"})
	assert.ErrorIs(t, err, ErrUnknownStrategyType)
}

func TestEngineWordPOSAlignment(t *testing.T) {
	// Every annotated word contributes exactly one POS token and appears in
	// exactly one chunk, regardless of strategy or record shape.
	def, err := NewGenerator().Generate(5, "align")
	require.NoError(t, err)
	eng, err := NewEngine(def)
	require.NoError(t, err)

	records := []record.TagRecord{
		{Tag: "장소 전치사", Category: tagset.Preposition, Words: []record.WordRef{
			{Word: "in", WordIndex: 3, PartOfSpeech: "ADP"},
			{Word: "the", WordIndex: 4, PartOfSpeech: "DET"},
			{Word: "park", WordIndex: 5, PartOfSpeech: "NOUN"},
		}},
		{Tag: "현재완료", Category: tagset.VerbTense, Words: []record.WordRef{
			{Word: "has", WordIndex: 1},
			{Word: "run", WordIndex: 2, PartOfSpeech: "VERB"},
		}},
		{Tag: "도치 구문", Category: tagset.Inversion}, // wordless
		{Tag: "미상", Words: []record.WordRef{{Word: "odd", WordIndex: 9}}}, // no category
	}

	wantWords := 0
	for _, r := range records {
		wantWords += len(r.Words)
	}

	got := eng.Apply(records)
	assert.Equal(t, wantWords, len(strings.Fields(got.POSTags)))

	chunkWords := 0
	rest := got.Chunks
	for {
		open := strings.Index(rest, "[")
		if open < 0 {
			break
		}
		end := strings.Index(rest[open:], "]")
		require.Greaterf(t, end, 0, "unterminated chunk in %q", got.Chunks)
		inner := rest[open+1 : open+end]
		// First field is the group label; the generated labels contain no
		// spaces at this size.
		chunkWords += len(strings.Fields(inner)) - 1
		rest = rest[open+end+1:]
	}
	assert.Equal(t, wantWords, chunkWords)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	def, err := NewGenerator().Generate(5, "five")
	require.NoError(t, err)
	require.NoError(t, reg.Add(def))

	err = reg.Add(def)
	assert.ErrorIs(t, err, ErrDuplicateStrategy)

	eng, err := reg.Engine("five")
	require.NoError(t, err)
	assert.Equal(t, "five", eng.Name())

	_, err = reg.Engine("missing")
	assert.ErrorIs(t, err, ErrStrategyNotFound)

	other, err := NewGenerator().Generate(3, "abc")
	require.NoError(t, err)
	require.NoError(t, reg.Add(other))

	infos := reg.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "abc", infos[0].Name)
	assert.Equal(t, "five", infos[1].Name)
	assert.Equal(t, TypeDynamicMerged, infos[0].Type)
	assert.Equal(t, 3, infos[0].Groups)
}
