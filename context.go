package jsonld

import (
	"context"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/blast-hardcheese/json-ld/internal/iri"
	"github.com/blast-hardcheese/json-ld/value"
)

// RemoteContextLimit bounds how many remote contexts a single context
// processing run may dereference transitively.
const RemoteContextLimit = 10

// Context is a processed active context: the term definitions and defaults
// in effect at one point of a document tree.
//
// A Context is immutable once returned. Deriving a context from a local
// context produces a new snapshot sharing unmodified term definitions with
// its parent.
type Context struct {
	defs      map[string]Term
	protected map[string]struct{}

	currentBaseIRI  string
	originalBaseIRI string

	vocabMapping     string
	defaultLang      string
	defaultDirection string

	previousContext *Context
	inverse         inverseContext
}

func newContext(documentURL string) *Context {
	return &Context{
		defs:            make(map[string]Term),
		protected:       make(map[string]struct{}),
		currentBaseIRI:  documentURL,
		originalBaseIRI: documentURL,
	}
}

// Terms iterates over the term definitions of the context.
func (c *Context) Terms() iter.Seq2[string, Term] {
	return func(yield func(string, Term) bool) {
		for k, v := range c.defs {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Term returns the definition bound to name.
func (c *Context) Term(name string) (Term, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// clone derives a mutable snapshot sharing term definitions with c.
// The inverse cache never carries over; it is rebuilt on demand.
func (c *Context) clone() *Context {
	return &Context{
		defs:             maps.Clone(c.defs),
		protected:        maps.Clone(c.protected),
		currentBaseIRI:   c.currentBaseIRI,
		originalBaseIRI:  c.originalBaseIRI,
		vocabMapping:     c.vocabMapping,
		defaultLang:      c.defaultLang,
		defaultDirection: c.defaultDirection,
		previousContext:  c.previousContext,
	}
}

// Context processes a local context against an empty active context.
func (p *Processor) Context(localContext *value.Value, baseURL string) (*Context, error) {
	if localContext.IsNull() {
		return nil, nil
	}

	return p.processContext(nil, localContext, baseURL, newCtxProcessingOpts())
}

type ctxProcessingOpts struct {
	remotes   []string
	override  bool
	propagate bool
	validate  bool
}

func newCtxProcessingOpts() ctxProcessingOpts {
	return ctxProcessingOpts{
		propagate: true,
		validate:  true,
	}
}

func (p *Processor) processContext(
	activeContext *Context,
	localContext *value.Value,
	baseURL string,
	opts ctxProcessingOpts,
) (*Context, error) {
	if activeContext == nil {
		activeContext = newContext(baseURL)
		if p.baseIRI != "" {
			activeContext.currentBaseIRI = p.baseIRI
			activeContext.originalBaseIRI = p.baseIRI
		}
	}

	// 1)
	result := activeContext.clone()

	// 2)
	if obj := localContext.Obj(); obj != nil {
		if prop, ok := obj.Get(KeywordPropagate); ok {
			b, isBool := prop.Bool()
			if !isBool {
				return nil, ErrInvalidPropagateValue
			}
			opts.propagate = b
		}
	}

	// 3)
	if !opts.propagate && result.previousContext == nil {
		result.previousContext = activeContext.clone()
	}

	// 4) 5)
	for _, entry := range localContext.AsArray() {
		switch entry.Kind() {
		case value.NullKind:
			// 5.1)
			if !opts.override && len(result.protected) != 0 {
				return nil, ErrInvalidContextNullification
			}

			previous := result.clone()
			result = newContext(activeContext.originalBaseIRI)
			if !opts.propagate {
				result.previousContext = previous
			}

		case value.StringKind:
			// 5.2)
			ref, _ := entry.Str()
			next, err := p.remoteContext(result, ref, baseURL, opts)
			if err != nil {
				return nil, err
			}
			result = next

		case value.ObjectKind:
			next, err := p.inlineContext(result, entry.Obj(), baseURL, opts)
			if err != nil {
				return nil, err
			}
			result = next

		default:
			// 5.3)
			return nil, ErrInvalidLocalContext.withDetail(
				"context entry must be null, a string, or a map, got %s",
				entry.Kind())
		}
	}

	return result, nil
}

// remoteContext dereferences a remote context reference and merges it into
// result.
func (p *Processor) remoteContext(
	result *Context,
	ref string,
	baseURL string,
	opts ctxProcessingOpts,
) (*Context, error) {
	// 5.2.1)
	if !iri.IsWellFormed(baseURL) && !iri.IsWellFormed(ref) {
		return nil, ErrLoadingDocument.withDetail(
			"cannot resolve %q without a base IRI", ref)
	}

	resolved, err := iri.Resolve(baseURL, ref)
	if err != nil {
		return nil, ErrLoadingDocument
	}

	// 5.2.2) a context that is already being resolved higher up this call
	// stack is a cycle
	if slices.Contains(opts.remotes, resolved) {
		if !opts.validate {
			return result, nil
		}
		return nil, ErrRecursiveContextInclusion.withDetail("%s", resolved)
	}

	// 5.2.3)
	if len(opts.remotes) > RemoteContextLimit {
		if p.modeLD10 {
			return nil, ErrRecursiveContextInclusion
		}
		return nil, ErrContextOverflow
	}
	opts.remotes = append(opts.remotes, resolved)

	// 5.2.4) 5.2.5)
	remote, err := p.fetchContext(resolved)
	if err != nil {
		return nil, err
	}

	// 5.2.6)
	newOpts := newCtxProcessingOpts()
	newOpts.remotes = slices.Clone(opts.remotes)
	newOpts.validate = opts.validate
	return p.processContext(result, remote.context, remote.url, newOpts)
}

// inlineContext applies one inline context map to result.
func (p *Processor) inlineContext(
	result *Context,
	ctxObj *value.Object,
	baseURL string,
	opts ctxProcessingOpts,
) (*Context, error) {
	// 5.5)
	if version, ok := ctxObj.Get(KeywordVersion); ok {
		if err := p.handleVersion(version); err != nil {
			return nil, err
		}
	}

	// 5.6)
	if imp, ok := ctxObj.Get(KeywordImport); ok {
		merged, err := p.handleImport(baseURL, imp, ctxObj)
		if err != nil {
			return nil, err
		}
		ctxObj = merged
	}

	// 5.7)
	if base, ok := ctxObj.Get(KeywordBase); ok && len(opts.remotes) == 0 {
		if err := p.handleBase(result, base); err != nil {
			return nil, err
		}
	}

	// 5.8)
	if vocab, ok := ctxObj.Get(KeywordVocab); ok {
		if err := p.handleVocab(result, vocab); err != nil {
			return nil, err
		}
	}

	// 5.9)
	if lang, ok := ctxObj.Get(KeywordLanguage); ok {
		if err := p.handleLanguage(result, lang); err != nil {
			return nil, err
		}
	}

	// 5.10)
	if dir, ok := ctxObj.Get(KeywordDirection); ok {
		if err := p.handleDirection(result, dir); err != nil {
			return nil, err
		}
	}

	// 5.11)
	if prop, ok := ctxObj.Get(KeywordPropagate); ok {
		if err := p.handlePropagate(prop); err != nil {
			return nil, err
		}
	}

	protected := false
	if prot, ok := ctxObj.Get(KeywordProtected); ok && !prot.IsNull() {
		if p.modeLD10 {
			return nil, ErrInvalidContextEntry.withDetail(
				"@protected requires json-ld-1.1")
		}
		b, isBool := prot.Bool()
		if !isBool {
			return nil, ErrInvalidProtectedValue
		}
		protected = b
	}

	// 5.12)
	defined := make(map[string]termState, ctxObj.Len())

	// 5.13)
	keys := ctxObj.Keys()
	if p.ordered {
		slices.Sort(keys)
	}
	for _, k := range keys {
		switch k {
		case KeywordBase, KeywordDirection, KeywordImport,
			KeywordLanguage, KeywordPropagate, KeywordProtected,
			KeywordVersion, KeywordVocab:
		default:
			termOpts := newCreateTermOptions()
			termOpts.baseURL = baseURL
			termOpts.protected = protected
			termOpts.override = opts.override
			termOpts.remotes = slices.Clone(opts.remotes)
			if err := p.createTerm(result, ctxObj, k, defined, termOpts); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func (p *Processor) handleVersion(version *value.Value) error {
	f, ok := version.Float64()
	if !ok || f != 1.1 {
		return ErrInvalidVersionValue
	}
	if p.modeLD10 {
		return ErrProcessingMode.withDetail(
			"@version 1.1 rejected under %s", ModeJSONLD10)
	}
	return nil
}

func (p *Processor) handleImport(baseURL string, imp *value.Value, ctxObj *value.Object) (*value.Object, error) {
	// 5.6.1)
	if p.modeLD10 {
		return nil, ErrInvalidContextEntry.withDetail(
			"@import requires json-ld-1.1")
	}

	// 5.6.2)
	ref, ok := imp.Str()
	if !ok {
		return nil, ErrInvalidImportValue
	}

	// 5.6.3)
	resolved, err := iri.Resolve(baseURL, ref)
	if err != nil {
		return nil, ErrInvalidRemoteContext
	}

	// 5.6.4) 5.6.5)
	remote, err := p.fetchContext(resolved)
	if err != nil {
		return nil, err
	}

	// 5.6.6)
	imported := remote.context.Obj()
	if imported == nil {
		return nil, ErrInvalidRemoteContext.withDetail(
			"@import target must be a context map")
	}

	// 5.6.7)
	if imported.Has(KeywordImport) {
		return nil, ErrInvalidContextEntry.withDetail(
			"imported context may not itself use @import")
	}

	// the importing context wins on conflicts
	merged := value.NewObject().Obj()
	for k, v := range imported.Entries() {
		merged.Set(k, v)
	}
	for k, v := range ctxObj.Entries() {
		merged.Set(k, v)
	}
	return merged, nil
}

func (p *Processor) handleBase(result *Context, base *value.Value) error {
	// 5.7.2)
	if base.IsNull() {
		result.currentBaseIRI = ""
		return nil
	}

	s, ok := base.Str()
	if !ok {
		return ErrInvalidBaseIRI
	}

	// 5.7.3)
	if iri.IsWellFormed(s) {
		result.currentBaseIRI = s
		return nil
	}

	// 5.7.4)
	if iri.IsRelative(s) && result.currentBaseIRI != "" {
		u, err := iri.Resolve(result.currentBaseIRI, s)
		if err != nil {
			return ErrInvalidBaseIRI
		}
		result.currentBaseIRI = u
		return nil
	}

	// 5.7.5)
	return ErrInvalidBaseIRI.withDetail("%q", s)
}

func (p *Processor) handleVocab(result *Context, vocab *value.Value) error {
	// 5.8.2)
	if vocab.IsNull() {
		result.vocabMapping = ""
		return nil
	}

	s, ok := vocab.Str()
	if !ok {
		return ErrInvalidVocabMapping
	}

	// 5.8.3)
	if !(iri.IsWellFormed(s) || iri.IsRelative(s) || s == BlankNodePrefix) {
		return ErrInvalidVocabMapping.withDetail("%q", s)
	}

	u, err := p.expandIRI(result, s, true, true, nil, nil)
	if err != nil {
		return err
	}

	result.vocabMapping = u
	return nil
}

func (p *Processor) handleLanguage(result *Context, lang *value.Value) error {
	if lang.IsNull() {
		result.defaultLang = ""
		return nil
	}

	l, ok := lang.Str()
	if !ok {
		return ErrInvalidDefaultLanguage
	}

	result.defaultLang = strings.ToLower(l)
	return nil
}

func (p *Processor) handleDirection(result *Context, dir *value.Value) error {
	if p.modeLD10 {
		return ErrInvalidContextEntry.withDetail(
			"@direction requires json-ld-1.1")
	}

	if dir.IsNull() {
		result.defaultDirection = ""
		return nil
	}

	d, ok := dir.Str()
	if !ok {
		return ErrInvalidBaseDirection
	}

	switch d {
	case DirectionLTR, DirectionRTL:
	default:
		return ErrInvalidBaseDirection.withDetail("%q", d)
	}

	result.defaultDirection = d
	return nil
}

func (p *Processor) handlePropagate(prop *value.Value) error {
	if p.modeLD10 {
		return ErrInvalidContextEntry.withDetail(
			"@propagate requires json-ld-1.1")
	}

	if _, ok := prop.Bool(); !ok {
		return ErrInvalidPropagateValue
	}

	return nil
}

// remoteContextDocument is a dereferenced remote context: its final URL and
// the value of its @context entry.
type remoteContextDocument struct {
	url     string
	context *value.Value
}

func (p *Processor) fetchContext(contextIRI string) (remoteContextDocument, error) {
	if p.loader == nil {
		return remoteContextDocument{}, ErrLoadingRemoteContext.withDetail(
			"no document loader configured")
	}

	doc, err := p.loader(context.TODO(), contextIRI)
	if err != nil {
		if _, isTyped := err.(*Error); isTyped {
			return remoteContextDocument{}, err
		}
		return remoteContextDocument{}, ErrLoadingRemoteContext.withDetail("%s", err)
	}

	obj := doc.Document.Obj()
	if obj == nil {
		return remoteContextDocument{}, ErrInvalidRemoteContext.withDetail(
			"document at %s is not a map", contextIRI)
	}

	ctx, ok := obj.Get(KeywordContext)
	if !ok {
		return remoteContextDocument{}, ErrInvalidRemoteContext.withDetail(
			"document at %s has no @context", contextIRI)
	}

	return remoteContextDocument{url: doc.URL, context: ctx}, nil
}

// inverseContext maps expanded IRI -> container signature -> type/language
// maps, precomputed once per context so term selection during compaction is
// a pair of map lookups.
type inverseContext map[string]map[string]typeLanguageMaps

type typeLanguageMaps struct {
	language map[string]string
	typ      map[string]string
	any      map[string]string
}

func (c *Context) initInverse() {
	if c.inverse == nil {
		c.inverse = buildInverseContext(c)
	}
}

func buildInverseContext(activeContext *Context) inverseContext {
	// 1)
	result := inverseContext{}

	// 2)
	defaultLang := KeywordNone
	if activeContext.defaultLang != "" {
		defaultLang = strings.ToLower(activeContext.defaultLang)
	}

	// 3) shortest-term-first so the first write wins for equal fits
	terms := slices.Collect(maps.Keys(activeContext.defs))
	slices.SortFunc(terms, shortestLeast)

	for _, term := range terms {
		def := activeContext.defs[term]
		// 3.1)
		if def.IsZero() {
			continue
		}

		// 3.2)
		container := KeywordNone
		if def.Container != nil {
			dc := slices.Clone(def.Container)
			slices.Sort(dc)
			container = strings.Join(dc, "")
		}

		// 3.3) - 3.7)
		if _, ok := result[def.IRI]; !ok {
			result[def.IRI] = map[string]typeLanguageMaps{}
		}
		containerMap := result[def.IRI]

		if _, ok := containerMap[container]; !ok {
			containerMap[container] = typeLanguageMaps{
				language: map[string]string{},
				typ:      map[string]string{},
				any:      map[string]string{KeywordNone: term},
			}
		}

		tl := containerMap[container]
		typeMap := tl.typ
		langMap := tl.language

		setDefault := func(m map[string]string, key string) {
			if _, ok := m[key]; !ok {
				m[key] = term
			}
		}

		switch {
		case def.Reverse:
			// 3.10)
			setDefault(typeMap, KeywordReverse)

		case def.Type == KeywordNone:
			// 3.11)
			setDefault(langMap, KeywordAny)
			setDefault(typeMap, KeywordAny)

		case def.Type != "":
			// 3.12)
			setDefault(typeMap, def.Type)

		case def.Language != "" && def.Direction != "":
			// 3.13)
			langDir := KeywordNone
			switch {
			case def.Language != KeywordNull && def.Direction != KeywordNull:
				langDir = strings.ToLower(def.Language) + "_" + def.Direction
			case def.Language != KeywordNull:
				langDir = strings.ToLower(def.Language)
			case def.Direction != KeywordNull:
				langDir = "_" + def.Direction
			}
			setDefault(langMap, langDir)

		case def.Language != "":
			// 3.14)
			lang := KeywordNull
			if def.Language != KeywordNull {
				lang = strings.ToLower(def.Language)
			}
			setDefault(langMap, lang)

		case def.Direction != "":
			// 3.15)
			dir := KeywordNone
			if def.Direction != KeywordNull {
				dir = "_" + def.Direction
			}
			setDefault(langMap, dir)

		case activeContext.defaultDirection != "":
			// 3.16)
			langDir := strings.ToLower(defaultLang) + "_" + activeContext.defaultDirection
			setDefault(langMap, langDir)
			setDefault(langMap, KeywordNone)
			setDefault(typeMap, KeywordNone)

		default:
			// 3.17)
			setDefault(langMap, defaultLang)
			setDefault(langMap, KeywordNone)
			setDefault(typeMap, KeywordNone)
		}
	}

	return result
}

// shortestLeast orders strings by length, then lexicographically.
func shortestLeast(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
