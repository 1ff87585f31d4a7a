package strategy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"syntaxforge/internal/tagset"
)

const expandedDoc = `
name: tense_detailed
version: "2.0"
strategy_type: expanded
tag_mapping:
  syntax_groups:
    perfect_tense:
      original_category: 동사_시제
      patterns: ["완료"]
    past_tense:
      original_category: 동사_시제
      patterns: ["과거"]
    present_tense:
      original_category: 동사_시제
      patterns: ["현재"]
    nouns:
      - 명사
`

func TestGroupListPreservesDocumentOrder(t *testing.T) {
	var def Definition
	require.NoError(t, yaml.Unmarshal([]byte(expandedDoc), &def))
	require.NoError(t, def.Validate())

	want := []string{"perfect_tense", "past_tense", "present_tense", "nouns"}
	var got []string
	for _, g := range def.TagMapping.SyntaxGroups {
		got = append(got, g.Name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("group order mismatch (-want +got):\n%s", diff)
	}

	// Marshal back and re-read: order must survive the round trip, since
	// rule precedence is positional.
	data, err := yaml.Marshal(&def)
	require.NoError(t, err)
	var again Definition
	require.NoError(t, yaml.Unmarshal(data, &again))
	var names []string
	for _, g := range again.TagMapping.SyntaxGroups {
		names = append(names, g.Name)
	}
	assert.Equal(t, want, names)
}

func TestGroupRuleForms(t *testing.T) {
	var def Definition
	require.NoError(t, yaml.Unmarshal([]byte(expandedDoc), &def))

	pattern, ok := def.TagMapping.SyntaxGroups.Get("perfect_tense")
	require.True(t, ok)
	assert.False(t, pattern.IsList())
	assert.Equal(t, tagset.VerbTense, pattern.OriginalCategory)
	assert.Equal(t, []string{"완료"}, pattern.Patterns)

	list, ok := def.TagMapping.SyntaxGroups.Get("nouns")
	require.True(t, ok)
	assert.True(t, list.IsList())
	assert.Equal(t, []string{tagset.Noun}, list.Categories)

	_, ok = def.TagMapping.SyntaxGroups.Get("missing")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr error
	}{
		{
			name: "valid merged",
			def: Definition{
				Name:         "ok",
				StrategyType: TypeMerged,
				TagMapping: TagMapping{SyntaxGroups: GroupList{
					{Name: "a", Rule: GroupRule{Categories: []string{tagset.Noun}}},
				}},
			},
		},
		{
			name: "missing name",
			def: Definition{
				StrategyType: TypeMerged,
			},
			wantErr: errAny,
		},
		{
			name: "unknown type",
			def: Definition{
				Name:         "x",
				StrategyType: "mystery",
			},
			wantErr: ErrUnknownStrategyType,
		},
		{
			name: "category claimed twice",
			def: Definition{
				Name:         "dup",
				StrategyType: TypeMerged,
				TagMapping: TagMapping{SyntaxGroups: GroupList{
					{Name: "a", Rule: GroupRule{Categories: []string{tagset.Noun}}},
					{Name: "b", Rule: GroupRule{Categories: []string{tagset.Noun}}},
				}},
			},
			wantErr: errAny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			switch tt.wantErr {
			case nil:
				assert.NoError(t, err)
			case errAny:
				assert.Error(t, err)
			default:
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// errAny marks table rows that expect some error without a specific sentinel.
var errAny = assert.AnError

func TestValidateNormalizesLegacyType(t *testing.T) {
	def := Definition{Name: "legacy", StrategyType: "original"}
	require.NoError(t, def.Validate())
	assert.Equal(t, TypeIdentity, def.StrategyType)
}

func TestQualityFiltersWithDefaults(t *testing.T) {
	var nilFilters *QualityFilters
	got := nilFilters.WithDefaults()
	assert.Equal(t, DefaultMinSentenceLength, got.MinSentenceLength)
	assert.Equal(t, DefaultMaxSentenceLength, got.MaxSentenceLength)
	assert.Equal(t, DefaultMinTagsPerSentence, got.MinTagsPerSentence)
	assert.Equal(t, DefaultMaxTagsPerSentence, got.MaxTagsPerSentence)

	custom := &QualityFilters{MinSentenceLength: 3}
	got = custom.WithDefaults()
	assert.Equal(t, 3, got.MinSentenceLength)
	assert.Equal(t, DefaultMaxSentenceLength, got.MaxSentenceLength)
}
