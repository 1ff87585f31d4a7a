// Package tagset defines the fixed universe of syntactic categories produced
// by the upstream annotator, together with the static frequency tiers and
// semantic clusters the dynamic strategy generator merges over.
//
// The universe is immutable: categories are never created or destroyed at
// runtime, and declaration order is significant (it is the encounter order
// used for deterministic tie-breaking during cluster merging).
package tagset

// Category is one of the 17 fixed syntactic-role labels. The labels are the
// Korean grammar-curriculum names emitted by the annotation service; one of
// them ("구동사, 관용어") contains a comma and must be treated as a single
// opaque string.
type Category = string

// The 17-category universe, in canonical order.
const (
	Preposition   Category = "전치사"
	VerbTense     Category = "동사_시제"
	Conjunction   Category = "접속사"
	Verbal        Category = "준동사"
	Construction  Category = "구문"
	PhrasalIdiom  Category = "구동사, 관용어"
	SentenceForm  Category = "문장형식"
	AuxiliaryVerb Category = "조동사"
	Relative      Category = "관계사"
	Noun          Category = "명사"
	Comparative   Category = "비교구문"
	Negation      Category = "부정"
	VerbVoice     Category = "동사_태"
	Interrogative Category = "의문사"
	Connective    Category = "연결어"
	Subjunctive   Category = "가정법"
	Inversion     Category = "도치"
)

// Universe returns the 17 categories in canonical order. Callers must not
// mutate the returned slice.
func Universe() []Category {
	return universe
}

var universe = []Category{
	Preposition, VerbTense, Conjunction, Verbal, Construction,
	PhrasalIdiom, SentenceForm, AuxiliaryVerb, Relative, Noun,
	Comparative, Negation, VerbVoice, Interrogative, Connective,
	Subjunctive, Inversion,
}

// Size is the number of categories in the universe.
const Size = 17

var universeSet = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(universe))
	for _, c := range universe {
		m[c] = struct{}{}
	}
	return m
}()

// IsCategory reports whether s is one of the 17 fixed categories.
func IsCategory(s string) bool {
	_, ok := universeSet[s]
	return ok
}

// Frequency tiers, derived from corpus frequency analysis of the annotated
// dataset. High+medium together form the "keep" set of the conservative
// merge tier.
var (
	HighFrequency = []Category{
		Preposition, VerbTense, Conjunction, Verbal, Construction,
	}
	MediumFrequency = []Category{
		PhrasalIdiom, SentenceForm, AuxiliaryVerb, Relative, Noun, Comparative,
	}
	LowFrequency = []Category{
		Negation, VerbVoice, Interrogative, Connective, Subjunctive, Inversion,
	}
)

// Cluster identifies one of the seven predefined semantic clusters.
type Cluster string

const (
	ClusterVerbRelated     Cluster = "verb_related"
	ClusterConnectingWords Cluster = "connecting_words"
	ClusterPrepositions    Cluster = "prepositions"
	ClusterSentence        Cluster = "sentence_structure"
	ClusterModification    Cluster = "modification"
	ClusterSpecial         Cluster = "special_constructions"
	ClusterWordClasses     Cluster = "word_classes"

	// ClusterMisc holds categories matching no predefined cluster. It cannot
	// occur for the fixed universe but keeps cluster assignment total.
	ClusterMisc Cluster = "misc"
)

// Clusters lists the predefined clusters in encounter order.
var Clusters = []Cluster{
	ClusterVerbRelated, ClusterConnectingWords, ClusterPrepositions,
	ClusterSentence, ClusterModification, ClusterSpecial, ClusterWordClasses,
}

var clusterMembers = map[Cluster][]Category{
	ClusterVerbRelated:     {VerbTense, VerbVoice, AuxiliaryVerb},
	ClusterConnectingWords: {Conjunction, Connective, Relative},
	ClusterPrepositions:    {Preposition},
	ClusterSentence:        {SentenceForm, Construction},
	ClusterModification:    {Negation, Comparative},
	ClusterSpecial:         {Interrogative, Subjunctive, Inversion},
	ClusterWordClasses:     {Noun, Verbal, PhrasalIdiom},
}

// ClusterOf returns the semantic cluster a category belongs to,
// or ClusterMisc for strings outside the universe.
func ClusterOf(c Category) Cluster {
	for _, cl := range Clusters {
		for _, member := range clusterMembers[cl] {
			if member == c {
				return cl
			}
		}
	}
	return ClusterMisc
}

// Members returns the categories of a cluster in declaration order.
// Callers must not mutate the returned slice.
func Members(cl Cluster) []Category {
	return clusterMembers[cl]
}

// clusterLabels translates cluster identity into the output label used for a
// merge group built from that cluster.
var clusterLabels = map[Cluster]string{
	ClusterVerbRelated:     "verbs",
	ClusterConnectingWords: "connectors",
	ClusterPrepositions:    "prepositions",
	ClusterSentence:        "structures",
	ClusterModification:    "modifiers",
	ClusterSpecial:         "special",
	ClusterWordClasses:     "words",
}

// Label returns the human-facing output label for a cluster. Unknown clusters
// (misc) have no label; the empty string signals the caller to fall back to
// the first constituent category's name.
func Label(cl Cluster) string {
	return clusterLabels[cl]
}

// GroupLabel names a merge group. Single-category groups keep the category
// name; multi-category groups are labeled after the cluster of their first
// constituent, falling back to the first category's name when the cluster has
// no label.
func GroupLabel(group []Category) string {
	if len(group) == 0 {
		return ""
	}
	if len(group) == 1 {
		return group[0]
	}
	if label := Label(ClusterOf(group[0])); label != "" {
		return label
	}
	return group[0]
}
