package jsonld

import (
	"maps"
	"slices"
	"strings"

	"github.com/blast-hardcheese/json-ld/internal/iri"
	"github.com/blast-hardcheese/json-ld/value"
)

// Expand applies the expansion algorithm to a parsed document.
//
// The result is the expanded form: an array of node objects with every term
// and compact IRI replaced by its absolute IRI, every value wrapped in a
// value object, and all context information consumed.
func (p *Processor) Expand(doc *value.Value, documentURL string) ([]Node, error) {
	activeContext := newContext(documentURL)
	if p.baseIRI != "" {
		activeContext.currentBaseIRI = p.baseIRI
		activeContext.originalBaseIRI = p.baseIRI
	}

	if p.expandContext != nil {
		expandContext := p.expandContext
		if obj := expandContext.Obj(); obj != nil {
			if inner, ok := obj.Get(KeywordContext); ok {
				expandContext = inner
			}
		}
		next, err := p.processContext(activeContext, expandContext, documentURL, newCtxProcessingOpts())
		if err != nil {
			return nil, err
		}
		activeContext = next
	}

	result, err := p.expand(activeContext, "", doc, documentURL, expandOpts{})
	if err != nil {
		return nil, err
	}

	// a single map holding only @graph unwraps to its graph
	if len(result) == 1 && result[0].Has(KeywordGraph) &&
		len(result[0].propsWithout(KeywordGraph)) == 0 {
		result = result[0].Graph
	}

	if p.relabelBlankNodes {
		relabelNodes(NewBlankNodeIssuer(), result)
	}

	if result == nil {
		result = []Node{}
	}
	return result, nil
}

type expandOpts struct {
	fromMap bool
	depth   int
}

func (p *Processor) expand(
	activeContext *Context,
	activeProperty string,
	element *value.Value,
	baseURL string,
	opts expandOpts,
) ([]Node, error) {
	opts.depth++
	if opts.depth > p.maxDepth {
		return nil, ErrRecursionLimitExceeded.withDetail(
			"nested more than %d levels deep", p.maxDepth)
	}

	// 1)
	if element == nil || element.IsNull() {
		return nil, nil
	}

	def := activeContext.defs[activeProperty]

	switch element.Kind() {
	case value.ArrayKind:
		// 5)
		var result []Node
		for _, item := range element.Items() {
			expanded, err := p.expand(activeContext, activeProperty, item, baseURL, opts)
			if err != nil {
				return nil, err
			}
			// 5.2.2)
			if p.modeLD10 && slices.Contains(def.Container, KeywordList) {
				for i := range expanded {
					if expanded[i].IsList() {
						return nil, ErrListOfLists
					}
				}
			}
			result = append(result, expanded...)
		}
		return result, nil

	case value.ObjectKind:
		return p.expandObject(activeContext, activeProperty, element.Obj(), baseURL, opts)

	default:
		// 4.1) free-floating scalars disappear
		if activeProperty == "" || activeProperty == KeywordGraph {
			return nil, nil
		}

		// 4.2)
		if def.Context != nil {
			next, err := p.scopedContext(activeContext, def, false)
			if err != nil {
				return nil, err
			}
			activeContext = next
		}

		// 4.3)
		node, err := p.expandValue(activeContext, activeProperty, element)
		if err != nil {
			return nil, err
		}
		return []Node{node}, nil
	}
}

// scopedContext applies a term's scoped context on top of activeContext.
func (p *Processor) scopedContext(activeContext *Context, def Term, propagate bool) (*Context, error) {
	ctxOpts := newCtxProcessingOpts()
	ctxOpts.override = true
	ctxOpts.propagate = propagate
	next, err := p.processContext(activeContext, def.Context, def.BaseIRI, ctxOpts)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (p *Processor) expandObject(
	activeContext *Context,
	activeProperty string,
	obj *value.Object,
	baseURL string,
	opts expandOpts,
) ([]Node, error) {
	def := activeContext.defs[activeProperty]

	// 7) revert to the previous context unless this object keeps it alive
	if activeContext.previousContext != nil && !opts.fromMap {
		revert := true
		single := obj.Len() == 1
		for key := range obj.Entries() {
			expanded, err := p.expandIRI(activeContext, key, false, true, nil, nil)
			if err != nil {
				return nil, err
			}
			if expanded == KeywordValue || (single && expanded == KeywordID) {
				revert = false
				break
			}
		}
		if revert {
			activeContext = activeContext.previousContext
			def = activeContext.defs[activeProperty]
		}
	}
	opts.fromMap = false

	// 8)
	if def.Context != nil {
		next, err := p.scopedContext(activeContext, def, true)
		if err != nil {
			return nil, err
		}
		activeContext = next
	}

	// 9)
	if localContext, ok := obj.Get(KeywordContext); ok {
		next, err := p.processContext(activeContext, localContext, baseURL, newCtxProcessingOpts())
		if err != nil {
			return nil, err
		}
		activeContext = next
	}

	// 10)
	typeScopedContext := activeContext

	// 11) 12)
	inputType := ""
	sortedKeyList := obj.Keys()
	slices.Sort(sortedKeyList)
	for _, key := range sortedKeyList {
		expandedKey, err := p.expandIRI(activeContext, key, false, true, nil, nil)
		if err != nil {
			return nil, err
		}
		if expandedKey != KeywordType {
			continue
		}

		rawTypes, _ := obj.Get(key)
		var types []string
		for _, t := range rawTypes.AsArray() {
			if s, ok := t.Str(); ok {
				types = append(types, s)
			}
		}
		slices.Sort(types)

		for _, t := range types {
			if tdef, ok := typeScopedContext.defs[t]; ok && tdef.Context != nil {
				next, err := p.scopedContext(activeContext, tdef, false)
				if err != nil {
					return nil, err
				}
				activeContext = next
			}
		}

		if len(types) > 0 {
			last, err := p.expandIRI(typeScopedContext, types[len(types)-1], false, true, nil, nil)
			if err != nil {
				return nil, err
			}
			inputType = last
		}
		break
	}

	var result Node
	if err := p.expandKeys(activeContext, typeScopedContext, activeProperty,
		obj, baseURL, inputType, &result, opts); err != nil {
		return nil, err
	}

	return p.finishObject(activeProperty, &result)
}

// finishObject validates and normalizes an expanded node per the tail of the
// expansion algorithm, deciding whether it survives at all.
func (p *Processor) finishObject(activeProperty string, result *Node) ([]Node, error) {
	// 15)
	if result.Has(KeywordValue) {
		if !result.IsValue() {
			return nil, ErrInvalidValueObject
		}
		if result.Has(KeywordType) && (result.Has(KeywordLanguage) || result.Has(KeywordDirection)) {
			return nil, ErrInvalidValueObject.withDetail(
				"@type excludes @language and @direction")
		}

		if !slices.Equal(result.Type, []string{KeywordJSON}) {
			switch {
			case result.Value.IsNull():
				// 15.4)
				return nil, nil
			case result.Has(KeywordLanguage):
				if _, ok := result.Value.Str(); !ok {
					return nil, ErrInvalidLanguageTaggedValue
				}
			case result.Has(KeywordType):
				if len(result.Type) != 1 || !iri.IsAbsolute(result.Type[0]) {
					return nil, ErrInvalidTypedValue.withDetail("%v", result.Type)
				}
			}
		}
		return []Node{*result}, nil
	}

	// 17)
	if result.Has(KeywordSet) || result.Has(KeywordList) {
		if len(result.propsWithout(KeywordSet, KeywordList, KeywordIndex)) != 0 ||
			(result.Has(KeywordSet) && result.Has(KeywordList)) {
			return nil, ErrInvalidSetOrListObject
		}
		if result.Has(KeywordSet) {
			return result.Set, nil
		}
		return []Node{*result}, nil
	}

	// 18)
	if result.Has(KeywordLanguage) && len(result.propsWithout(KeywordLanguage)) == 0 {
		return nil, nil
	}

	// 19)
	if activeProperty == "" || activeProperty == KeywordGraph {
		switch {
		case result.IsZero():
			return nil, nil
		case result.Has(KeywordID) && len(result.propsWithout(KeywordID)) == 0:
			return nil, nil
		}
	}

	return []Node{*result}, nil
}

// expandKeys expands every entry of obj into result. Entries nested under
// @nest re-enter here with the same result.
func (p *Processor) expandKeys(
	activeContext *Context,
	typeScopedContext *Context,
	activeProperty string,
	obj *value.Object,
	baseURL string,
	inputType string,
	result *Node,
	opts expandOpts,
) error {
	var nests []string

	keys := obj.Keys()
	if p.ordered {
		slices.Sort(keys)
	}

	// 13)
	for _, key := range keys {
		// 13.1)
		if key == KeywordContext {
			continue
		}

		entry, _ := obj.Get(key)

		// 13.2)
		expandedProperty, err := p.expandIRI(activeContext, key, false, true, nil, nil)
		if err != nil {
			return err
		}

		// 13.3)
		if expandedProperty == "" ||
			(!strings.Contains(expandedProperty, ":") && !isKeyword(expandedProperty)) {
			if p.policy == PolicyStrict {
				return ErrInvalidProperty.withDetail("%q", key)
			}
			p.logger.Debug("dropping entry that does not expand to an IRI or keyword",
				"key", key)
			continue
		}

		if isKeyword(expandedProperty) {
			if err := p.expandKeywordEntry(activeContext, typeScopedContext,
				activeProperty, expandedProperty, key, entry, baseURL,
				inputType, result, &nests, opts); err != nil {
				return err
			}
			continue
		}

		if err := p.expandPropertyEntry(activeContext, expandedProperty, key,
			entry, baseURL, result, opts); err != nil {
			return err
		}
	}

	// 14)
	if p.ordered {
		slices.Sort(nests)
	}
	for _, nestKey := range nests {
		nestValue, _ := obj.Get(nestKey)
		for _, nested := range nestValue.AsArray() {
			nestedObj := nested.Obj()
			if nestedObj == nil {
				return ErrInvalidNestValue.withDetail(
					"@nest values must be maps")
			}
			for nk := range nestedObj.Entries() {
				expanded, err := p.expandIRI(activeContext, nk, false, true, nil, nil)
				if err != nil {
					return err
				}
				if expanded == KeywordValue {
					return ErrInvalidNestValue.withDetail(
						"@nest values may not be value objects")
				}
			}
			if err := p.expandKeys(activeContext, typeScopedContext,
				activeProperty, nestedObj, baseURL, inputType, result, opts); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *Processor) expandKeywordEntry(
	activeContext *Context,
	typeScopedContext *Context,
	activeProperty string,
	expandedProperty string,
	key string,
	entry *value.Value,
	baseURL string,
	inputType string,
	result *Node,
	nests *[]string,
	opts expandOpts,
) error {
	// 13.4.1)
	if activeProperty == KeywordReverse {
		return ErrInvalidReversePropertyMap
	}

	// 13.4.2)
	switch expandedProperty {
	case KeywordIncluded, KeywordType:
	default:
		if result.Has(expandedProperty) {
			return ErrCollidingKeywords.withDetail("%s", expandedProperty)
		}
	}

	switch expandedProperty {
	case KeywordID:
		// 13.4.3)
		s, ok := entry.Str()
		if !ok {
			return ErrInvalidIDValue.withDetail("@id must be a string")
		}
		expanded, err := p.expandIRI(activeContext, s, true, false, nil, nil)
		if err != nil {
			return err
		}
		result.ID = expanded

	case KeywordType:
		// 13.4.4)
		for _, t := range entry.AsArray() {
			s, ok := t.Str()
			if !ok {
				return ErrInvalidTypeValue.withDetail("@type values must be strings")
			}
			expanded, err := p.expandIRI(typeScopedContext, s, true, true, nil, nil)
			if err != nil {
				return err
			}
			if expanded != "" {
				result.Type = append(result.Type, expanded)
			}
		}

	case KeywordGraph:
		// 13.4.5)
		expanded, err := p.expand(activeContext, KeywordGraph, entry, baseURL, opts)
		if err != nil {
			return err
		}
		if expanded == nil {
			expanded = []Node{}
		}
		result.Graph = expanded

	case KeywordIncluded:
		// 13.4.6)
		if p.modeLD10 {
			return nil
		}
		expanded, err := p.expand(activeContext, "", entry, baseURL, opts)
		if err != nil {
			return err
		}
		for i := range expanded {
			if !expanded[i].isNode() {
				return ErrInvalidIncludedValue
			}
		}
		result.Included = append(result.Included, expanded...)

	case KeywordValue:
		// 13.4.7)
		if inputType == KeywordJSON && !p.modeLD10 {
			result.Value = entry.Clone()
			return nil
		}
		if !entry.IsNull() && !entry.IsScalar() {
			return ErrInvalidValueObjectValue
		}
		result.Value = entry.Clone()

	case KeywordLanguage:
		// 13.4.8)
		s, ok := entry.Str()
		if !ok {
			return ErrInvalidLanguageTaggedString
		}
		result.Language = strings.ToLower(s)

	case KeywordDirection:
		// 13.4.9)
		if p.modeLD10 {
			return nil
		}
		s, ok := entry.Str()
		if !ok || (s != DirectionLTR && s != DirectionRTL) {
			return ErrInvalidBaseDirection
		}
		result.Direction = s

	case KeywordIndex:
		// 13.4.10)
		s, ok := entry.Str()
		if !ok {
			return ErrInvalidIndexValue
		}
		result.Index = s

	case KeywordList:
		// 13.4.11)
		if activeProperty == "" || activeProperty == KeywordGraph {
			return nil
		}
		expanded, err := p.expand(activeContext, activeProperty, entry, baseURL, opts)
		if err != nil {
			return err
		}
		if expanded == nil {
			expanded = []Node{}
		}
		result.List = expanded

	case KeywordSet:
		// 13.4.12)
		expanded, err := p.expand(activeContext, activeProperty, entry, baseURL, opts)
		if err != nil {
			return err
		}
		if expanded == nil {
			expanded = []Node{}
		}
		result.Set = expanded

	case KeywordReverse:
		// 13.4.13)
		if entry.Obj() == nil {
			return ErrInvalidReverseValue
		}
		expanded, err := p.expand(activeContext, KeywordReverse, entry, baseURL, opts)
		if err != nil {
			return err
		}
		for i := range expanded {
			node := expanded[i]
			// forward entries of the reverse map flip onto the node
			for prop, items := range node.Reverse {
				result.Properties = appendProperty(result.Properties, prop, items...)
			}
			for prop, items := range node.Properties {
				for j := range items {
					if items[j].IsValue() || items[j].IsList() {
						return ErrInvalidReversePropertyValue
					}
				}
				if result.Reverse == nil {
					result.Reverse = Properties{}
				}
				result.Reverse[prop] = append(result.Reverse[prop], items...)
			}
		}

	case KeywordNest:
		// 13.4.14)
		*nests = append(*nests, key)

	case KeywordPreserve:
		return ErrPreserveUnsupported

	default:
		// remaining keywords carry no meaning on a node and are dropped
	}

	return nil
}

func (p *Processor) expandPropertyEntry(
	activeContext *Context,
	expandedProperty string,
	key string,
	entry *value.Value,
	baseURL string,
	result *Node,
	opts expandOpts,
) error {
	def := activeContext.defs[key]

	var expanded []Node
	var err error

	switch {
	case def.Type == KeywordJSON:
		// 13.6)
		expanded = []Node{{
			Value: entry.Clone(),
			Type:  []string{KeywordJSON},
		}}

	case slices.Contains(def.Container, KeywordLanguage) && entry.Obj() != nil:
		// 13.7)
		expanded, err = p.expandLanguageMap(activeContext, def, entry.Obj())
		if err != nil {
			return err
		}

	case entry.Obj() != nil && !p.modeLD10 &&
		(slices.Contains(def.Container, KeywordIndex) ||
			slices.Contains(def.Container, KeywordID) ||
			slices.Contains(def.Container, KeywordType)):
		// 13.8)
		expanded, err = p.expandIndexMap(activeContext, def, key, entry.Obj(), baseURL, opts)
		if err != nil {
			return err
		}

	default:
		// 13.9)
		expanded, err = p.expand(activeContext, key, entry, baseURL, opts)
		if err != nil {
			return err
		}
	}

	// 13.10)
	if expanded == nil {
		return nil
	}

	// 13.11)
	if slices.Contains(def.Container, KeywordList) {
		if len(expanded) != 1 || !expanded[0].IsList() {
			expanded = []Node{{List: expanded}}
		}
	}

	// 13.12)
	if slices.Contains(def.Container, KeywordGraph) &&
		!slices.Contains(def.Container, KeywordID) &&
		!slices.Contains(def.Container, KeywordIndex) {
		wrapped := make([]Node, 0, len(expanded))
		for i := range expanded {
			wrapped = append(wrapped, Node{Graph: []Node{expanded[i]}})
		}
		expanded = wrapped
	}

	// 13.13)
	if def.Reverse {
		for i := range expanded {
			if expanded[i].IsValue() || expanded[i].IsList() {
				return ErrInvalidReversePropertyValue
			}
		}
		if result.Reverse == nil {
			result.Reverse = Properties{}
		}
		result.Reverse[expandedProperty] = append(result.Reverse[expandedProperty], expanded...)
		return nil
	}

	// 13.14)
	result.Properties = appendProperty(result.Properties, expandedProperty, expanded...)
	return nil
}

// expandLanguageMap expands the value of a term with @container: @language.
func (p *Processor) expandLanguageMap(
	activeContext *Context,
	def Term,
	languageMap *value.Object,
) ([]Node, error) {
	direction := activeContext.defaultDirection
	switch def.Direction {
	case "":
	case KeywordNull:
		direction = ""
	default:
		direction = def.Direction
	}

	keys := languageMap.Keys()
	if p.ordered {
		slices.Sort(keys)
	}

	var result []Node
	for _, lang := range keys {
		entry, _ := languageMap.Get(lang)
		expandedLang, err := p.expandIRI(activeContext, lang, false, true, nil, nil)
		if err != nil {
			return nil, err
		}

		for _, item := range entry.AsArray() {
			if item.IsNull() {
				continue
			}
			if _, ok := item.Str(); !ok {
				return nil, ErrInvalidLanguageMapValue.withDetail(
					"language map values must be strings")
			}

			node := Node{Value: item.Clone(), Direction: direction}
			if expandedLang != KeywordNone {
				node.Language = strings.ToLower(lang)
			}
			result = append(result, node)
		}
	}
	return result, nil
}

// expandIndexMap expands the value of a term carrying an @index, @id or
// @type container.
func (p *Processor) expandIndexMap(
	activeContext *Context,
	def Term,
	key string,
	indexMap *value.Object,
	baseURL string,
	opts expandOpts,
) ([]Node, error) {
	container := def.Container
	asGraph := slices.Contains(container, KeywordGraph)
	byIndex := slices.Contains(container, KeywordIndex)
	byID := slices.Contains(container, KeywordID)
	byType := slices.Contains(container, KeywordType)

	keys := indexMap.Keys()
	if p.ordered {
		slices.Sort(keys)
	}

	var result []Node
	for _, index := range keys {
		entry, _ := indexMap.Get(index)

		// 13.8.3.1) 13.8.3.2)
		mapContext := activeContext
		if byID || byType {
			if activeContext.previousContext != nil {
				mapContext = activeContext.previousContext
			}
			if byType {
				if idef, ok := mapContext.defs[index]; ok && idef.Context != nil {
					next, err := p.scopedContext(mapContext, idef, true)
					if err != nil {
						return nil, err
					}
					mapContext = next
				} else {
					mapContext = activeContext
				}
			} else {
				mapContext = activeContext
			}
		}

		// 13.8.3.4)
		expandedIndex, err := p.expandIRI(activeContext, index, false, true, nil, nil)
		if err != nil {
			return nil, err
		}

		mapOpts := opts
		mapOpts.fromMap = true
		items, err := p.expand(mapContext, key, entry, baseURL, mapOpts)
		if err != nil {
			return nil, err
		}

		for i := range items {
			item := items[i]

			// 13.8.3.7.1)
			if asGraph && !item.IsGraph() {
				item = Node{Graph: []Node{item}}
			}

			switch {
			case byIndex && def.Index != "" && expandedIndex != KeywordNone:
				// property-based indexing re-attaches the map key as a value
				// of the index property
				if p.modeLD10 {
					return nil, ErrInvalidTermDefinition.withDetail(
						"property-based @index requires json-ld-1.1")
				}
				if item.IsValue() {
					return nil, ErrInvalidValueObject.withDetail(
						"property-based index on a value object")
				}
				indexProperty, err := p.expandIRI(activeContext, def.Index, false, true, nil, nil)
				if err != nil {
					return nil, err
				}
				indexValue, err := p.expandValue(activeContext, def.Index, value.NewString(index))
				if err != nil {
					return nil, err
				}
				item.Properties = prependProperty(item.Properties, indexProperty, indexValue)

			case byIndex && item.Index == "" && expandedIndex != KeywordNone:
				item.Index = index

			case byID && item.ID == "" && expandedIndex != KeywordNone:
				expanded, err := p.expandIRI(activeContext, index, true, false, nil, nil)
				if err != nil {
					return nil, err
				}
				item.ID = expanded

			case byType && expandedIndex != KeywordNone:
				item.Type = append([]string{expandedIndex}, item.Type...)
			}

			result = append(result, item)
		}
	}
	return result, nil
}

// expandValue turns a scalar into a value object, honoring the type,
// language and direction mappings of the active property.
func (p *Processor) expandValue(
	activeContext *Context,
	activeProperty string,
	v *value.Value,
) (Node, error) {
	def := activeContext.defs[activeProperty]

	if _, isString := v.Str(); isString {
		// 1) 2)
		switch def.Type {
		case KeywordID:
			s, _ := v.Str()
			expanded, err := p.expandIRI(activeContext, s, true, false, nil, nil)
			if err != nil {
				return Node{}, err
			}
			return Node{ID: expanded}, nil
		case KeywordVocab:
			s, _ := v.Str()
			expanded, err := p.expandIRI(activeContext, s, true, true, nil, nil)
			if err != nil {
				return Node{}, err
			}
			return Node{ID: expanded}, nil
		}
	}

	// 3)
	result := Node{Value: v.Clone()}

	// 4)
	if def.Type != "" && def.Type != KeywordID && def.Type != KeywordVocab && def.Type != KeywordNone {
		result.Type = []string{def.Type}
		return result, nil
	}

	// 5)
	if _, isString := v.Str(); isString {
		switch def.Language {
		case "":
			result.Language = activeContext.defaultLang
		case KeywordNull:
		default:
			result.Language = def.Language
		}

		switch def.Direction {
		case "":
			result.Direction = activeContext.defaultDirection
		case KeywordNull:
		default:
			result.Direction = def.Direction
		}
	}

	return result, nil
}

func appendProperty(props Properties, property string, nodes ...Node) Properties {
	if props == nil {
		props = Properties{}
	}
	props[property] = append(props[property], nodes...)
	return props
}

func prependProperty(props Properties, property string, nodes ...Node) Properties {
	if props == nil {
		props = Properties{}
	}
	props[property] = append(nodes, props[property]...)
	return props
}

// relabelNodes rewrites every blank node identifier in nodes through issuer,
// renaming author-chosen labels to the _:b prefix while keeping co-reference
// intact.
func relabelNodes(issuer *BlankNodeIssuer, nodes []Node) {
	for i := range nodes {
		n := &nodes[i]
		if strings.HasPrefix(n.ID, BlankNodePrefix) {
			n.ID = issuer.Issue(n.ID)
		}
		for j := range n.Type {
			if strings.HasPrefix(n.Type[j], BlankNodePrefix) {
				n.Type[j] = issuer.Issue(n.Type[j])
			}
		}
		relabelNodes(issuer, n.Graph)
		relabelNodes(issuer, n.Included)
		relabelNodes(issuer, n.List)
		relabelNodes(issuer, n.Set)
		relabelProperties(issuer, n.Properties)
		relabelProperties(issuer, n.Reverse)
	}
}

func relabelProperties(issuer *BlankNodeIssuer, props Properties) {
	for _, property := range slices.Sorted(maps.Keys(props)) {
		nodes := props[property]
		relabelNodes(issuer, nodes)
		if strings.HasPrefix(property, BlankNodePrefix) {
			relabeled := issuer.Issue(property)
			if relabeled != property {
				delete(props, property)
				props[relabeled] = nodes
			}
		}
	}
}
