// Package strategy implements tag-merge strategies over the fixed category
// universe: the declarative strategy definition documents, a YAML-backed
// store, a dynamic generator that computes merge plans for an arbitrary
// target category count, and the transformation engine that applies a
// strategy to annotated sentence records.
package strategy

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"syntaxforge/internal/tagset"
)

// Sentinel errors for strategy operations.
var (
	// ErrStrategyNotFound is returned when a strategy name is not registered.
	ErrStrategyNotFound = errors.New("strategy not found")

	// ErrDuplicateStrategy is returned when two strategy documents declare
	// the same name. Duplicates are a load-time conflict, never silently
	// resolved by load order.
	ErrDuplicateStrategy = errors.New("duplicate strategy name")

	// ErrUnknownStrategyType is returned for an unrecognized strategy_type.
	ErrUnknownStrategyType = errors.New("unknown strategy type")

	// ErrInvalidCategoryCount is returned when a requested category count is
	// outside the supported [2,17] range.
	ErrInvalidCategoryCount = errors.New("category count out of range")
)

// Strategy types.
const (
	TypeIdentity          = "identity"
	TypeMerged            = "merged"
	TypeExpanded          = "expanded"
	TypeFrequencyWeighted = "frequency_weighted"
	TypeDynamicMerged     = "dynamic_merged"
)

// Definition is a strategy policy document: how the 17 annotator categories
// map onto the output label set. Immutable once handed to an Engine.
type Definition struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Description  string `yaml:"description,omitempty"`
	CreatedDate  string `yaml:"created_date,omitempty"`
	StrategyType string `yaml:"strategy_type"`

	TagMapping     TagMapping      `yaml:"tag_mapping"`
	OutputFormat   *OutputFormat   `yaml:"output_format,omitempty"`
	QualityFilters *QualityFilters `yaml:"quality_filters,omitempty"`
	Statistics     *Statistics     `yaml:"statistics,omitempty"`
}

// TagMapping wraps the ordered syntax group table.
type TagMapping struct {
	SyntaxGroups GroupList `yaml:"syntax_groups"`
}

// OutputFormat carries the declarative rendering rules of a strategy
// document. Chunk and role formats are fixed by the training data contract;
// only the role separator is honored at transformation time.
type OutputFormat struct {
	ChunkFormat string `yaml:"chunk_format,omitempty"`
	RoleFormat  string `yaml:"role_format,omitempty"`
	Separator   string `yaml:"separator,omitempty"`
}

// QualityFilters are the per-strategy dataset thresholds. Zero values mean
// "absent" and take the documented defaults.
type QualityFilters struct {
	MinSentenceLength  int `yaml:"min_sentence_length,omitempty"`
	MaxSentenceLength  int `yaml:"max_sentence_length,omitempty"`
	MinTagsPerSentence int `yaml:"min_tags_per_sentence,omitempty"`
	MaxTagsPerSentence int `yaml:"max_tags_per_sentence,omitempty"`
}

// Default quality filter thresholds.
const (
	DefaultMinSentenceLength  = 10
	DefaultMaxSentenceLength  = 500
	DefaultMinTagsPerSentence = 1
	DefaultMaxTagsPerSentence = 50
)

// WithDefaults returns the filters with absent fields filled in. Safe to call
// on a nil receiver.
func (q *QualityFilters) WithDefaults() QualityFilters {
	out := QualityFilters{
		MinSentenceLength:  DefaultMinSentenceLength,
		MaxSentenceLength:  DefaultMaxSentenceLength,
		MinTagsPerSentence: DefaultMinTagsPerSentence,
		MaxTagsPerSentence: DefaultMaxTagsPerSentence,
	}
	if q == nil {
		return out
	}
	if q.MinSentenceLength > 0 {
		out.MinSentenceLength = q.MinSentenceLength
	}
	if q.MaxSentenceLength > 0 {
		out.MaxSentenceLength = q.MaxSentenceLength
	}
	if q.MinTagsPerSentence > 0 {
		out.MinTagsPerSentence = q.MinTagsPerSentence
	}
	if q.MaxTagsPerSentence > 0 {
		out.MaxTagsPerSentence = q.MaxTagsPerSentence
	}
	return out
}

// Statistics summarizes the realized merge plan of a strategy.
type Statistics struct {
	TotalCategories    int `yaml:"total_categories"`
	OriginalCategories int `yaml:"original_categories,omitempty"`
	MergeGroups        int `yaml:"merge_groups,omitempty"`
}

// Group is one entry of the syntax group table: an output label and the rule
// deciding which records receive it.
type Group struct {
	Name string
	Rule GroupRule
}

// GroupRule is either a plain list of input categories (merge-group form) or
// a pattern rule refining one category by tag-text substrings. Exactly one
// form is populated.
type GroupRule struct {
	// Categories is the plain list form.
	Categories []string

	// OriginalCategory and Patterns are the pattern-rule form.
	OriginalCategory string   `yaml:"original_category"`
	Patterns         []string `yaml:"patterns"`
}

// IsList reports whether the rule uses the plain category list form.
func (r GroupRule) IsList() bool {
	return r.OriginalCategory == "" && r.Patterns == nil
}

// GroupList is the ordered syntax group table. YAML mapping order is
// preserved on load: when two rules could claim the same category, the first
// entry in document order wins. That insertion-order tie-break is part of the
// strategy contract.
type GroupList []Group

// UnmarshalYAML decodes a YAML mapping while preserving key order.
func (g *GroupList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("syntax_groups: expected mapping, got %v", node.Kind)
	}
	groups := make(GroupList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		var rule GroupRule
		switch valNode.Kind {
		case yaml.SequenceNode:
			if err := valNode.Decode(&rule.Categories); err != nil {
				return fmt.Errorf("syntax_groups[%s]: %w", keyNode.Value, err)
			}
		case yaml.MappingNode:
			if err := valNode.Decode(&rule); err != nil {
				return fmt.Errorf("syntax_groups[%s]: %w", keyNode.Value, err)
			}
		default:
			return fmt.Errorf("syntax_groups[%s]: expected list or mapping", keyNode.Value)
		}
		groups = append(groups, Group{Name: keyNode.Value, Rule: rule})
	}
	*g = groups
	return nil
}

// MarshalYAML encodes the group table as a mapping in insertion order.
func (g GroupList) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, group := range g {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: group.Name}
		valNode := &yaml.Node{}
		if group.Rule.IsList() {
			if err := valNode.Encode(group.Rule.Categories); err != nil {
				return nil, err
			}
		} else {
			if err := valNode.Encode(map[string]interface{}{
				"original_category": group.Rule.OriginalCategory,
				"patterns":          group.Rule.Patterns,
			}); err != nil {
				return nil, err
			}
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// Get returns the rule for a group name.
func (g GroupList) Get(name string) (GroupRule, bool) {
	for _, group := range g {
		if group.Name == name {
			return group.Rule, true
		}
	}
	return GroupRule{}, false
}

// knownTypes holds the accepted strategy_type values. "original" is the
// legacy spelling of identity still found in older documents.
var knownTypes = map[string]string{
	"identity":           TypeIdentity,
	"original":           TypeIdentity,
	"merged":             TypeMerged,
	"expanded":           TypeExpanded,
	"frequency_weighted": TypeFrequencyWeighted,
	"dynamic_merged":     TypeDynamicMerged,
}

// Validate checks structural soundness: a declared name, a recognized
// strategy type (normalizing legacy spellings), and - for list-form groups -
// that no input category is claimed by two merge groups. A category in two
// groups is a defect in the document, not something to resolve silently.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("strategy document missing name")
	}
	canonical, ok := knownTypes[d.StrategyType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStrategyType, d.StrategyType)
	}
	d.StrategyType = canonical

	seen := make(map[string]string)
	for _, group := range d.TagMapping.SyntaxGroups {
		if !group.Rule.IsList() {
			continue
		}
		for _, cat := range group.Rule.Categories {
			if prev, dup := seen[cat]; dup {
				return fmt.Errorf("strategy %s: category %q mapped by both %q and %q",
					d.Name, cat, prev, group.Name)
			}
			seen[cat] = group.Name
		}
	}
	return nil
}

// MappedCategories returns the set of input categories claimed by list-form
// groups, in group order. Used by tests and the generator postcondition.
func (d *Definition) MappedCategories() []string {
	var cats []string
	for _, group := range d.TagMapping.SyntaxGroups {
		if group.Rule.IsList() {
			cats = append(cats, group.Rule.Categories...)
		}
	}
	return cats
}

// CoversUniverse reports whether every category of the fixed universe is
// claimed by exactly one list-form group.
func (d *Definition) CoversUniverse() bool {
	cats := d.MappedCategories()
	if len(cats) != tagset.Size {
		return false
	}
	seen := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		if !tagset.IsCategory(c) {
			return false
		}
		if _, dup := seen[c]; dup {
			return false
		}
		seen[c] = struct{}{}
	}
	return true
}
