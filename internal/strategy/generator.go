package strategy

import (
	"fmt"
	"sort"
	"time"

	"syntaxforge/internal/logging"
	"syntaxforge/internal/tagset"
)

// Generator computes merge plans over the fixed 17-category universe for an
// arbitrary requested category count. The tiering mirrors how the categories
// distribute in the annotated corpus: high-frequency categories survive
// merging the longest, low-frequency categories are collapsed first, and
// below eight output categories the plan switches to a hand-curated table of
// coarse semantic groupings.
type Generator struct{}

// NewGenerator returns a generator over the fixed category universe.
func NewGenerator() *Generator {
	return &Generator{}
}

// MinCategories and MaxCategories bound the requestable output size.
const (
	MinCategories = 2
	MaxCategories = tagset.Size
)

// Generate produces a complete dynamic_merged strategy definition with
// exactly target output groups covering all 17 input categories. An empty
// name defaults to "dynamic_<N>cats". Requests outside [2,17] fail with
// ErrInvalidCategoryCount.
func (g *Generator) Generate(target int, name string) (*Definition, error) {
	if target < MinCategories || target > MaxCategories {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidCategoryCount, target, MinCategories, MaxCategories)
	}
	if name == "" {
		name = fmt.Sprintf("dynamic_%dcats", target)
	}

	groups, tier := g.mergePlan(target)

	def := &Definition{
		Name:         name,
		Version:      fmt.Sprintf("dynamic_v1.0_%s", time.Now().Format("20060102")),
		Description:  fmt.Sprintf("Dynamic strategy with %d categories - %s merge over frequency tiers and semantic clusters", target, tier),
		CreatedDate:  time.Now().Format("2006-01-02"),
		StrategyType: TypeDynamicMerged,
		TagMapping:   TagMapping{SyntaxGroups: groups},
		OutputFormat: &OutputFormat{
			ChunkFormat: "[{category} {words}]",
			RoleFormat:  "{category}:{tag}",
			Separator:   " | ",
		},
		QualityFilters: &QualityFilters{
			MinSentenceLength:  DefaultMinSentenceLength,
			MaxSentenceLength:  DefaultMaxSentenceLength,
			MinTagsPerSentence: DefaultMinTagsPerSentence,
			MaxTagsPerSentence: DefaultMaxTagsPerSentence,
		},
		Statistics: &Statistics{
			TotalCategories:    target,
			OriginalCategories: tagset.Size,
			MergeGroups:        len(groups),
		},
	}

	// Hard postcondition: the realized group count equals the request and
	// the groups partition the universe.
	if len(groups) != target {
		return nil, fmt.Errorf("merge plan for %d categories produced %d groups", target, len(groups))
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if !def.CoversUniverse() {
		return nil, fmt.Errorf("merge plan for %d categories does not partition the universe", target)
	}

	logging.Get(logging.CategoryStrategy).Info("generated strategy %s: %d groups (%s tier)", name, target, tier)
	return def, nil
}

// mergePlan dispatches on the requested size to one of the merge tiers and
// returns the ordered group table plus the tier name.
func (g *Generator) mergePlan(target int) (GroupList, string) {
	switch {
	case target == tagset.Size:
		return identityPlan(), "identity"
	case target >= 12:
		return conservativePlan(target), "conservative"
	case target >= 8:
		return moderatePlan(target), "moderate"
	default:
		return aggressivePlan(target), "aggressive"
	}
}

// identityPlan keeps every category as its own group.
func identityPlan() GroupList {
	groups := make(GroupList, 0, tagset.Size)
	for _, cat := range tagset.Universe() {
		groups = append(groups, singleton(cat))
	}
	return groups
}

// conservativePlan (12-16) keeps the 11 high+medium frequency categories as
// singletons and collapses the 6 low-frequency categories into the remaining
// slot budget by semantic cluster.
func conservativePlan(target int) GroupList {
	var groups GroupList
	for _, cat := range tagset.HighFrequency {
		groups = append(groups, singleton(cat))
	}
	for _, cat := range tagset.MediumFrequency {
		groups = append(groups, singleton(cat))
	}

	budget := target - len(groups)
	if budget >= len(tagset.LowFrequency) {
		for _, cat := range tagset.LowFrequency {
			groups = append(groups, singleton(cat))
		}
		return groups
	}

	for _, merged := range mergeBySemantics(tagset.LowFrequency, budget) {
		groups = append(groups, labeled(merged))
	}
	return groups
}

// moderatePlan (8-11) keeps the 5 highest-frequency categories as singletons
// and merges the remaining 12 down to the slot budget.
func moderatePlan(target int) GroupList {
	var groups GroupList
	for _, cat := range tagset.HighFrequency {
		groups = append(groups, singleton(cat))
	}

	candidates := append(append([]tagset.Category{}, tagset.MediumFrequency...), tagset.LowFrequency...)
	for _, merged := range mergeBySemantics(candidates, target-len(groups)) {
		groups = append(groups, labeled(merged))
	}
	return groups
}

// aggressiveBase is the hand-curated coarse grouping table used below eight
// output categories. The final "others" entry is the catch-all; it always
// absorbs whatever the earlier selected entries leave uncovered so the plan
// stays a full partition at every size.
var aggressiveBase = []Group{
	{Name: "prepositions", Rule: GroupRule{Categories: []string{tagset.Preposition}}},
	{Name: "verbs", Rule: GroupRule{Categories: []string{tagset.VerbTense, tagset.VerbVoice, tagset.AuxiliaryVerb}}},
	{Name: "connectors", Rule: GroupRule{Categories: []string{tagset.Conjunction, tagset.Connective, tagset.Relative}}},
	{Name: "structures", Rule: GroupRule{Categories: []string{tagset.SentenceForm, tagset.Construction}}},
}

// aggressivePlan (2-7) selects from the curated table. For 2-5 groups the
// first target-1 table entries are kept and "others" absorbs the rest; for
// 6-7 the catch-all is split into finer hand-specified groups.
func aggressivePlan(target int) GroupList {
	if target <= 5 {
		groups := make(GroupList, 0, target)
		covered := make(map[string]struct{})
		for _, g := range aggressiveBase[:target-1] {
			groups = append(groups, g)
			for _, cat := range g.Rule.Categories {
				covered[cat] = struct{}{}
			}
		}
		var rest []string
		for _, cat := range tagset.Universe() {
			if _, ok := covered[cat]; !ok {
				rest = append(rest, cat)
			}
		}
		return append(groups, Group{Name: "others", Rule: GroupRule{Categories: rest}})
	}

	groups := append(GroupList{}, aggressiveBase...)
	groups = append(groups, Group{
		Name: "words",
		Rule: GroupRule{Categories: []string{tagset.Noun, tagset.Verbal, tagset.PhrasalIdiom}},
	})
	if target == 6 {
		return append(groups, Group{
			Name: "special",
			Rule: GroupRule{Categories: []string{tagset.Negation, tagset.Comparative, tagset.Interrogative, tagset.Subjunctive, tagset.Inversion}},
		})
	}
	return append(groups,
		Group{Name: "modifiers", Rule: GroupRule{Categories: []string{tagset.Negation, tagset.Comparative}}},
		Group{Name: "special", Rule: GroupRule{Categories: []string{tagset.Interrogative, tagset.Subjunctive, tagset.Inversion}}},
	)
}

// mergeBySemantics collapses categories into exactly target groups. The
// categories are first bucketed by semantic cluster (in order of first
// appearance); while the bucket count exceeds the target the two smallest
// buckets are merged (ties broken by encounter order), and while it falls
// short the largest bucket sheds its last category into a new singleton.
// Requires 1 <= target <= len(categories).
func mergeBySemantics(categories []tagset.Category, target int) [][]tagset.Category {
	if target >= len(categories) {
		groups := make([][]tagset.Category, 0, len(categories))
		for _, cat := range categories {
			groups = append(groups, []tagset.Category{cat})
		}
		return groups
	}

	var order []tagset.Cluster
	buckets := make(map[tagset.Cluster][]tagset.Category)
	for _, cat := range categories {
		cl := tagset.ClusterOf(cat)
		if _, seen := buckets[cl]; !seen {
			order = append(order, cl)
		}
		buckets[cl] = append(buckets[cl], cat)
	}

	groups := make([][]tagset.Category, 0, len(order))
	for _, cl := range order {
		groups = append(groups, buckets[cl])
	}

	for len(groups) > target {
		sort.SliceStable(groups, func(i, j int) bool {
			return len(groups[i]) < len(groups[j])
		})
		smallest := groups[0]
		groups = groups[1:]
		groups[0] = append(groups[0], smallest...)
	}

	for len(groups) < target {
		li := 0
		for i := range groups {
			if len(groups[i]) > len(groups[li]) {
				li = i
			}
		}
		if len(groups[li]) < 2 {
			break
		}
		last := groups[li][len(groups[li])-1]
		groups[li] = groups[li][:len(groups[li])-1]
		groups = append(groups, []tagset.Category{last})
	}

	return groups
}

func singleton(cat tagset.Category) Group {
	return Group{Name: cat, Rule: GroupRule{Categories: []string{cat}}}
}

func labeled(cats []tagset.Category) Group {
	return Group{Name: tagset.GroupLabel(cats), Rule: GroupRule{Categories: cats}}
}
