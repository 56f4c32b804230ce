package jsonld

import (
	"slices"
	"strings"

	"github.com/blast-hardcheese/json-ld/internal/iri"
	"github.com/blast-hardcheese/json-ld/value"
)

// Term is a processed term definition.
//
// IRI holds KeywordNull when the term is explicitly decoupled from IRI
// expansion. Language and Direction hold KeywordNull when set to JSON null in
// the term definition, distinguishing "cleared" from "inherited".
type Term struct {
	IRI       string
	Prefix    bool
	Protected bool
	Reverse   bool
	BaseIRI   string
	Context   *value.Value
	Container []string
	Direction string
	Index     string
	Language  string
	Nest      string
	Type      string
}

// IsZero reports whether the definition carries no data at all.
func (t Term) IsZero() bool {
	return t.IRI == "" && !t.Prefix && !t.Protected && !t.Reverse &&
		t.BaseIRI == "" && t.Context == nil && t.Container == nil &&
		t.Direction == "" && t.Index == "" && t.Language == "" &&
		t.Nest == "" && t.Type == ""
}

// equalWithoutProtected compares two definitions ignoring their protection
// flag, the comparison required when deciding whether a redefinition of a
// protected term is a no-op.
func (t Term) equalWithoutProtected(other Term) bool {
	a, b := t, other
	a.Protected, b.Protected = false, false
	if !slices.Equal(a.Container, b.Container) {
		return false
	}
	a.Container, b.Container = nil, nil
	if (a.Context == nil) != (b.Context == nil) {
		return false
	}
	if a.Context != nil && !a.Context.Equal(b.Context) {
		return false
	}
	a.Context, b.Context = nil, nil
	return a.IRI == b.IRI && a.Prefix == b.Prefix && a.Reverse == b.Reverse &&
		a.BaseIRI == b.BaseIRI && a.Direction == b.Direction &&
		a.Index == b.Index && a.Language == b.Language &&
		a.Nest == b.Nest && a.Type == b.Type
}

type termState int

const (
	termDefining termState = iota + 1
	termDefined
)

type createTermOptions struct {
	baseURL   string
	protected bool
	override  bool
	remotes   []string
}

func newCreateTermOptions() createTermOptions {
	return createTermOptions{}
}

// optional is a tri-state JSON field: absent, explicit null, or a value.
type optional[T any] struct {
	set  bool
	null bool
	val  T
}

func someOf[T any](v T) optional[T] {
	return optional[T]{set: true, val: v}
}

func nullOf[T any]() optional[T] {
	return optional[T]{set: true, null: true}
}

// termEntry is the parsed shape of one local context entry before any
// algorithmic interpretation.
type termEntry struct {
	null   bool
	simple bool

	id        optional[string]
	typ       optional[string]
	reverse   optional[string]
	container optional[[]string]
	index     optional[string]
	language  optional[string]
	direction optional[string]
	nest      optional[string]
	prefix    optional[bool]
	protected optional[bool]

	context    *value.Value
	hasContext bool
}

func parseTermEntry(v *value.Value) (termEntry, error) {
	var entry termEntry

	switch v.Kind() {
	case value.NullKind:
		entry.null = true
		return entry, nil
	case value.StringKind:
		s, _ := v.Str()
		entry.simple = true
		entry.id = someOf(s)
		return entry, nil
	case value.ObjectKind:
	default:
		return entry, ErrInvalidTermDefinition.withDetail(
			"term definition must be null, a string, or a map, got %s", v.Kind())
	}

	for k, fv := range v.Obj().Entries() {
		switch k {
		case KeywordID:
			if fv.IsNull() {
				entry.id = nullOf[string]()
				continue
			}
			s, ok := fv.Str()
			if !ok {
				return entry, ErrInvalidIRIMapping.withDetail(
					"@id must be a string or null")
			}
			entry.id = someOf(s)
		case KeywordType:
			s, ok := fv.Str()
			if !ok {
				return entry, ErrInvalidTypeMapping.withDetail(
					"@type must be a string")
			}
			entry.typ = someOf(s)
		case KeywordReverse:
			s, ok := fv.Str()
			if !ok {
				return entry, ErrInvalidIRIMapping.withDetail(
					"@reverse must be a string")
			}
			entry.reverse = someOf(s)
		case KeywordContainer:
			if fv.IsNull() {
				entry.container = nullOf[[]string]()
				continue
			}
			var members []string
			for _, m := range fv.AsArray() {
				s, ok := m.Str()
				if !ok {
					return entry, ErrInvalidContainerMapping.withDetail(
						"@container members must be strings")
				}
				members = append(members, s)
			}
			entry.container = someOf(members)
		case KeywordIndex:
			s, ok := fv.Str()
			if !ok {
				return entry, ErrInvalidTermDefinition.withDetail(
					"@index must be a string")
			}
			entry.index = someOf(s)
		case KeywordContext:
			entry.context = fv
			entry.hasContext = true
		case KeywordLanguage:
			if fv.IsNull() {
				entry.language = nullOf[string]()
				continue
			}
			s, ok := fv.Str()
			if !ok {
				return entry, ErrInvalidLanguageMapping.withDetail(
					"@language must be a string or null")
			}
			entry.language = someOf(s)
		case KeywordDirection:
			if fv.IsNull() {
				entry.direction = nullOf[string]()
				continue
			}
			s, ok := fv.Str()
			if !ok {
				return entry, ErrInvalidBaseDirection.withDetail(
					"@direction must be a string or null")
			}
			entry.direction = someOf(s)
		case KeywordNest:
			s, ok := fv.Str()
			if !ok {
				return entry, ErrInvalidNestValue.withDetail(
					"@nest must be a string")
			}
			entry.nest = someOf(s)
		case KeywordPrefix:
			b, ok := fv.Bool()
			if !ok {
				return entry, ErrInvalidPrefixValue
			}
			entry.prefix = someOf(b)
		case KeywordProtected:
			b, ok := fv.Bool()
			if !ok {
				return entry, ErrInvalidProtectedValue
			}
			entry.protected = someOf(b)
		default:
			return entry, ErrInvalidTermDefinition.withDetail(
				"unexpected entry %q", k)
		}
	}

	return entry, nil
}

func (p *Processor) createTerm(
	activeContext *Context,
	localContext *value.Object,
	term string,
	defined map[string]termState,
	opts createTermOptions,
) error {
	// 1)
	switch defined[term] {
	case termDefined:
		return nil
	case termDefining:
		return ErrCyclicIRIMapping.withDetail("%s", term)
	}

	// 2)
	if term == "" {
		return ErrInvalidTermDefinition.withDetail("term may not be empty")
	}
	defined[term] = termDefining

	raw, ok := localContext.Get(term)
	if !ok {
		return ErrInvalidTermDefinition.withDetail("%q not in local context", term)
	}

	entry, err := parseTermEntry(raw)
	if err != nil {
		return err
	}

	// 4) @type may be redefined in 1.1, but only to opt its values into set
	// representation
	if term == KeywordType {
		if p.modeLD10 {
			return ErrKeywordRedefinition.withDetail("%s", term)
		}
		if entry.null || entry.simple {
			return ErrKeywordRedefinition.withDetail("%s", term)
		}
		for k := range raw.Obj().Entries() {
			switch k {
			case KeywordContainer, KeywordProtected:
			default:
				return ErrKeywordRedefinition.withDetail(
					"@type redefinition may not carry %q", k)
			}
		}
		if !entry.container.set || !slices.Equal(entry.container.val, []string{KeywordSet}) {
			return ErrKeywordRedefinition.withDetail(
				"@type redefinition requires @container: @set")
		}
	} else if isKeyword(term) {
		// 5)
		return ErrKeywordRedefinition.withDetail("%s", term)
	} else if looksLikeKeyword(term) {
		p.logger.Warn("ignoring keyword-shaped term", "term", term)
		delete(defined, term)
		return nil
	}

	// 6)
	previous, hadPrevious := activeContext.defs[term]
	delete(activeContext.defs, term)

	if p.modeLD10 {
		switch {
		case entry.hasContext, entry.direction.set, entry.nest.set,
			entry.prefix.set, entry.protected.set:
			return ErrInvalidTermDefinition.withDetail(
				"entry requires json-ld-1.1: %q", term)
		}
	}

	var definition Term

	// 11) 12)
	definition.Protected = opts.protected
	if entry.protected.set {
		definition.Protected = !entry.protected.null && entry.protected.val
	}

	// 13)
	if entry.typ.set {
		expanded, err := p.expandIRI(activeContext, entry.typ.val, false, true, localContext, defined)
		if err != nil {
			return err
		}
		switch expanded {
		case KeywordJSON, KeywordNone:
			if p.modeLD10 {
				return ErrInvalidTypeMapping.withDetail(
					"%s requires json-ld-1.1", expanded)
			}
		case KeywordID, KeywordVocab:
		default:
			if !iri.IsAbsolute(expanded) {
				return ErrInvalidTypeMapping.withDetail("%q", entry.typ.val)
			}
		}
		definition.Type = expanded
	}

	// 14)
	if entry.reverse.set {
		// 14.1)
		if entry.id.set || entry.nest.set {
			return ErrInvalidReverseProperty.withDetail(
				"@reverse cannot be combined with @id or @nest")
		}
		// 14.3)
		if looksLikeKeyword(entry.reverse.val) {
			p.logger.Warn("ignoring keyword-shaped reverse target",
				"term", term, "target", entry.reverse.val)
			delete(defined, term)
			return nil
		}
		// 14.4)
		expanded, err := p.expandIRI(activeContext, entry.reverse.val, false, true, localContext, defined)
		if err != nil {
			return err
		}
		if !iri.IsAbsolute(expanded) && !strings.HasPrefix(expanded, BlankNodePrefix) {
			return ErrInvalidIRIMapping.withDetail(
				"@reverse of %q expands to %q", term, expanded)
		}
		definition.IRI = expanded
		// 14.5)
		if entry.container.set {
			if entry.container.null || len(entry.container.val) != 1 {
				return ErrInvalidReverseProperty.withDetail("%s", term)
			}
			switch entry.container.val[0] {
			case KeywordIndex, KeywordSet:
				definition.Container = entry.container.val
			default:
				return ErrInvalidReverseProperty.withDetail("%s", term)
			}
		}
		// 14.6) 14.7)
		definition.Reverse = true
		return p.storeTerm(activeContext, term, definition, previous, hadPrevious, defined, opts)
	}

	switch {
	case entry.id.set && entry.id.null:
		// 16) the term is valid but expands to nothing
		definition.IRI = KeywordNull

	case entry.id.set && entry.id.val != term:
		if !isKeyword(entry.id.val) && looksLikeKeyword(entry.id.val) {
			p.logger.Warn("ignoring keyword-shaped IRI mapping",
				"term", term, "id", entry.id.val)
			delete(defined, term)
			return nil
		}

		expanded, err := p.expandIRI(activeContext, entry.id.val, false, true, localContext, defined)
		if err != nil {
			return err
		}
		if !isKeyword(expanded) && !iri.IsAbsolute(expanded) &&
			!strings.HasPrefix(expanded, BlankNodePrefix) {
			return ErrInvalidIRIMapping.withDetail(
				"%q expands to %q", entry.id.val, expanded)
		}
		if expanded == KeywordContext {
			return ErrInvalidKeywordAlias.withDetail("@context may not be aliased")
		}
		definition.IRI = expanded

		// 17.4) a term that itself looks like a compact or relative IRI must
		// agree with what IRI expansion would produce for it
		innerColon := len(term) > 2 && strings.Contains(term[1:len(term)-1], ":")
		if innerColon || strings.Contains(term, "/") {
			delete(defined, term)
			check, err := p.expandIRI(activeContext, term, false, true, localContext, defined)
			defined[term] = termDefining
			if err != nil {
				return err
			}
			if check != definition.IRI {
				return ErrInvalidIRIMapping.withDetail(
					"%q conflicts with its own expansion %q", term, check)
			}
		} else if entry.simple &&
			(iri.HasGenDelimSuffix(definition.IRI) ||
				strings.HasPrefix(definition.IRI, BlankNodePrefix)) {
			// 17.5)
			definition.Prefix = true
		}

	case strings.Contains(term[1:], ":"):
		// 18) compact IRI or absolute IRI used as its own term
		prefix, suffix, _ := strings.Cut(term, ":")
		if !strings.HasPrefix(suffix, "//") {
			if localContext.Has(prefix) {
				if err := p.createTerm(activeContext, localContext, prefix, defined, opts); err != nil {
					return err
				}
			}
			if def, ok := activeContext.defs[prefix]; ok && def.IRI != "" && def.IRI != KeywordNull {
				definition.IRI = def.IRI + suffix
				break
			}
		}
		definition.IRI = term

	case strings.Contains(term, "/"):
		// 19)
		expanded, err := p.expandIRI(activeContext, term, false, true, localContext, defined)
		if err != nil {
			return err
		}
		if !iri.IsAbsolute(expanded) {
			return ErrInvalidIRIMapping.withDetail("%q", term)
		}
		definition.IRI = expanded

	case term == KeywordType:
		// 20)
		definition.IRI = KeywordType

	default:
		// 21)
		if activeContext.vocabMapping == "" {
			return ErrInvalidIRIMapping.withDetail(
				"%q has no @id and no vocabulary mapping applies", term)
		}
		definition.IRI = activeContext.vocabMapping + term
	}

	// 22)
	if entry.container.set && !entry.container.null {
		container, err := p.validateContainer(entry.container.val)
		if err != nil {
			return err
		}
		definition.Container = container

		// 22.3)
		if slices.Contains(container, KeywordType) {
			switch definition.Type {
			case "":
				definition.Type = KeywordID
			case KeywordID, KeywordVocab:
			default:
				return ErrInvalidTypeMapping.withDetail(
					"@container: @type requires a type mapping of @id or @vocab")
			}
		}
	}

	// 23)
	if entry.index.set {
		if p.modeLD10 || !slices.Contains(definition.Container, KeywordIndex) {
			return ErrInvalidTermDefinition.withDetail(
				"@index requires @container: @index")
		}
		expanded, err := p.expandIRI(activeContext, entry.index.val, false, true, nil, nil)
		if err != nil || !iri.IsAbsolute(expanded) {
			return ErrInvalidTermDefinition.withDetail(
				"@index %q must expand to an IRI", entry.index.val)
		}
		definition.Index = entry.index.val
	}

	// 24)
	if entry.hasContext {
		// validate eagerly, but store the raw context; it is applied lazily
		// against whatever context is active at use sites
		ctxOpts := newCtxProcessingOpts()
		ctxOpts.override = true
		ctxOpts.validate = false
		ctxOpts.remotes = slices.Clone(opts.remotes)
		if _, err := p.processContext(activeContext, entry.context, opts.baseURL, ctxOpts); err != nil {
			return ErrInvalidScopedContext.withDetail("%s: %s", term, err)
		}
		definition.Context = entry.context
		definition.BaseIRI = opts.baseURL
	}

	// 25)
	if entry.language.set && !entry.typ.set {
		if entry.language.null {
			definition.Language = KeywordNull
		} else {
			definition.Language = strings.ToLower(entry.language.val)
		}
	}

	// 26)
	if entry.direction.set && !entry.typ.set {
		switch {
		case entry.direction.null:
			definition.Direction = KeywordNull
		case entry.direction.val == DirectionLTR, entry.direction.val == DirectionRTL:
			definition.Direction = entry.direction.val
		default:
			return ErrInvalidBaseDirection.withDetail("%q", entry.direction.val)
		}
	}

	// 27)
	if entry.nest.set {
		if isKeyword(entry.nest.val) && entry.nest.val != KeywordNest {
			return ErrInvalidNestValue.withDetail("%q", entry.nest.val)
		}
		definition.Nest = entry.nest.val
	}

	// 28)
	if entry.prefix.set {
		if strings.Contains(term, ":") || strings.Contains(term, "/") {
			return ErrInvalidTermDefinition.withDetail(
				"@prefix not allowed on %q", term)
		}
		if entry.prefix.val && isKeyword(definition.IRI) {
			return ErrInvalidTermDefinition.withDetail(
				"keyword alias %q may not be a prefix", term)
		}
		definition.Prefix = entry.prefix.val
	}

	return p.storeTerm(activeContext, term, definition, previous, hadPrevious, defined, opts)
}

// storeTerm finishes a term definition: it enforces protected term semantics
// and records the definition in the active context.
func (p *Processor) storeTerm(
	activeContext *Context,
	term string,
	definition Term,
	previous Term,
	hadPrevious bool,
	defined map[string]termState,
	opts createTermOptions,
) error {
	// 30)
	if hadPrevious && previous.Protected && !opts.override {
		if !definition.equalWithoutProtected(previous) {
			return ErrProtectedTermRedefinition.withDetail("%s", term)
		}
		definition = previous
	}

	activeContext.defs[term] = definition
	if definition.Protected {
		activeContext.protected[term] = struct{}{}
	} else {
		delete(activeContext.protected, term)
	}
	defined[term] = termDefined
	return nil
}

// validateContainer checks an @container value against the combinations the
// active processing mode allows.
func (p *Processor) validateContainer(container []string) ([]string, error) {
	if p.modeLD10 {
		if len(container) != 1 {
			return nil, ErrInvalidContainerMapping.withDetail(
				"multiple @container members require json-ld-1.1")
		}
		switch container[0] {
		case KeywordGraph, KeywordID, KeywordType:
			return nil, ErrInvalidContainerMapping.withDetail(
				"%s requires json-ld-1.1", container[0])
		case KeywordIndex, KeywordLanguage, KeywordList, KeywordSet:
			return container, nil
		default:
			return nil, ErrInvalidContainerMapping.withDetail("%q", container[0])
		}
	}

	for _, m := range container {
		switch m {
		case KeywordGraph, KeywordID, KeywordIndex, KeywordLanguage,
			KeywordList, KeywordSet, KeywordType:
		default:
			return nil, ErrInvalidContainerMapping.withDetail("%q", m)
		}
	}

	switch {
	case len(container) == 1:
		return container, nil
	case slices.Contains(container, KeywordList):
		return nil, ErrInvalidContainerMapping.withDetail(
			"@list may not be combined with other members")
	case len(container) == 2 && slices.Contains(container, KeywordGraph) &&
		(slices.Contains(container, KeywordID) || slices.Contains(container, KeywordIndex)):
		return container, nil
	case slices.Contains(container, KeywordSet):
		rest := slices.DeleteFunc(slices.Clone(container), func(s string) bool {
			return s == KeywordSet
		})
		if len(rest) == 1 {
			switch rest[0] {
			case KeywordGraph, KeywordID, KeywordIndex, KeywordLanguage, KeywordType:
				return container, nil
			}
		}
		if len(rest) == 2 && slices.Contains(rest, KeywordGraph) &&
			(slices.Contains(rest, KeywordID) || slices.Contains(rest, KeywordIndex)) {
			return container, nil
		}
		return nil, ErrInvalidContainerMapping.withDetail("%v", container)
	default:
		return nil, ErrInvalidContainerMapping.withDetail("%v", container)
	}
}
