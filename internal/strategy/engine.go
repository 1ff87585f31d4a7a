package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"syntaxforge/internal/logging"
	"syntaxforge/internal/record"
)

// UnknownPOS is emitted for words whose part of speech was not annotated.
const UnknownPOS = "UNK"

// UnknownCategory stands in for records whose annotation carries no
// category. It is outside the fixed universe, so no rule ever claims it and
// it always falls through to the output unchanged.
const UnknownCategory = "UNK"

// defaultRoleSeparator joins grammatical role entries when the definition
// does not specify one.
const defaultRoleSeparator = " | "

// TransformedExample is the three-view rendering of one sentence's tag
// records under a strategy: bracketed word chunks, the flat part-of-speech
// sequence, and the per-tag grammatical roles.
type TransformedExample struct {
	Chunks           string `json:"chunks"`
	POSTags          string `json:"pos_tags"`
	GrammaticalRoles string `json:"grammatical_roles"`
}

// Engine applies one strategy definition to parsed tag records. An engine is
// immutable after construction and safe for concurrent use.
type Engine struct {
	def *Definition

	// categoryGroup resolves a category to its output group for list-form
	// rules. Pattern-form rules are matched in definition order instead.
	categoryGroup map[string]string
	roleSep       string
}

// NewEngine validates the definition and precomputes its category mapping.
func NewEngine(def *Definition) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("nil strategy definition")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("strategy %q: %w", def.Name, err)
	}

	e := &Engine{
		def:           def,
		categoryGroup: make(map[string]string),
		roleSep:       defaultRoleSeparator,
	}
	if def.OutputFormat != nil && def.OutputFormat.Separator != "" {
		e.roleSep = def.OutputFormat.Separator
	}
	for _, g := range def.TagMapping.SyntaxGroups {
		if !g.Rule.IsList() {
			continue
		}
		for _, cat := range g.Rule.Categories {
			e.categoryGroup[cat] = g.Name
		}
	}
	return e, nil
}

// Definition returns the definition this engine was built from.
func (e *Engine) Definition() *Definition { return e.def }

// Name returns the strategy name.
func (e *Engine) Name() string { return e.def.Name }

// Apply renders the tag records for one sentence under this strategy. Records
// are processed in input order; a record whose category no rule covers keeps
// its original category as the group name.
func (e *Engine) Apply(records []record.TagRecord) TransformedExample {
	var chunks []string
	var pos []string
	var roles []string

	for _, rec := range records {
		group := e.resolveGroup(rec)

		if len(rec.Words) > 0 {
			words := make([]string, 0, len(rec.Words))
			for _, w := range rec.Words {
				words = append(words, w.Word)
				p := w.PartOfSpeech
				if p == "" {
					p = UnknownPOS
				}
				pos = append(pos, p)
			}
			chunks = append(chunks, fmt.Sprintf("[%s %s]", group, strings.Join(words, " ")))
		}
		roles = append(roles, fmt.Sprintf("%s:%s", group, rec.Tag))
	}

	return TransformedExample{
		Chunks:           strings.Join(chunks, " "),
		POSTags:          strings.Join(pos, " "),
		GrammaticalRoles: strings.Join(roles, e.roleSep),
	}
}

// resolveGroup maps one record to its output group name. A record with no
// category resolves as UnknownCategory.
func (e *Engine) resolveGroup(rec record.TagRecord) string {
	category := rec.Category
	if category == "" {
		category = UnknownCategory
	}

	switch e.def.StrategyType {
	case TypeExpanded, TypeFrequencyWeighted:
		// First matching rule in definition order wins. List rules match on
		// category membership, pattern rules on case-insensitive substring
		// containment in the tag text.
		for _, g := range e.def.TagMapping.SyntaxGroups {
			if g.Rule.IsList() {
				for _, cat := range g.Rule.Categories {
					if cat == category {
						return g.Name
					}
				}
				continue
			}
			if g.Rule.OriginalCategory != category {
				continue
			}
			tag := strings.ToLower(rec.Tag)
			for _, pat := range g.Rule.Patterns {
				if strings.Contains(tag, strings.ToLower(pat)) {
					return g.Name
				}
			}
		}
		return category
	default:
		if group, ok := e.categoryGroup[category]; ok {
			return group
		}
		return category
	}
}

// Info is a summary row for a registered strategy.
type Info struct {
	Name        string
	Type        string
	Groups      int
	Description string
}

// Registry holds constructed engines by strategy name. Safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// NewRegistryFromStore builds engines for every definition the store loads.
func NewRegistryFromStore(store *Store) (*Registry, error) {
	defs, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, def := range defs {
		if err := reg.Add(def); err != nil {
			return nil, err
		}
	}
	logging.Get(logging.CategoryEngine).Info("registry ready: %d strategies", len(defs))
	return reg, nil
}

// Add constructs and registers an engine for def. Registering a name twice
// fails with ErrDuplicateStrategy.
func (r *Registry) Add(def *Definition) error {
	eng, err := NewEngine(def)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[def.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStrategy, def.Name)
	}
	r.engines[def.Name] = eng
	return nil
}

// Engine returns the engine registered under name, or ErrStrategyNotFound.
func (r *Registry) Engine(name string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if eng, ok := r.engines[name]; ok {
		return eng, nil
	}
	names := make([]string, 0, len(r.engines))
	for n := range r.engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrStrategyNotFound, name, strings.Join(names, ", "))
}

// List returns summaries of all registered strategies sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.engines))
	for _, eng := range r.engines {
		infos = append(infos, Info{
			Name:        eng.def.Name,
			Type:        eng.def.StrategyType,
			Groups:      len(eng.def.TagMapping.SyntaxGroups),
			Description: eng.def.Description,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
