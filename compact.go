package jsonld

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/blast-hardcheese/json-ld/internal/iri"
	"github.com/blast-hardcheese/json-ld/value"
)

// Compact applies the compaction algorithm, rewriting an expanded document
// against a compaction context.
//
// The compaction context travels into the result under @context. Output
// entries preserve a deterministic order: keys are emitted in the order the
// algorithm produces them, with properties visited lexicographically.
func (p *Processor) Compact(
	compactionContext *value.Value,
	document []Node,
	documentURL string,
) (*value.Value, error) {
	activeContext, err := p.Context(compactionContext, documentURL)
	if err != nil {
		return nil, err
	}

	if len(document) == 0 {
		return value.NewObject(), nil
	}

	if activeContext == nil {
		return nodesToValue(document), nil
	}

	res, err := p.compactNodes(activeContext, "", document)
	if err != nil {
		return nil, err
	}

	if res == nil {
		return value.NewObject(), nil
	}

	if res.Obj() != nil {
		attachContext(res.Obj(), compactionContext)
		return res, nil
	}

	if arr := res.Items(); len(arr) == 0 {
		return value.NewObject(), nil
	}

	alias, err := p.compactIRI(activeContext, KeywordGraph, nil, true, false)
	if err != nil {
		return nil, err
	}

	result := value.NewObject()
	attachContext(result.Obj(), compactionContext)
	result.Obj().Set(alias, res)
	return result, nil
}

// attachContext prepends the compaction context to an output object, unless
// the context carries nothing.
func attachContext(target *value.Object, compactionContext *value.Value) {
	if compactionContext == nil || compactionContext.IsNull() {
		return
	}
	if obj := compactionContext.Obj(); obj != nil && obj.Len() == 0 {
		return
	}
	if compactionContext.Kind() == value.ArrayKind && len(compactionContext.Items()) == 0 {
		return
	}

	// @context leads, everything else follows in place
	reordered := value.NewObject().Obj()
	reordered.Set(KeywordContext, compactionContext)
	for k, v := range target.Entries() {
		reordered.Set(k, v)
	}
	*target = *reordered
}

func (p *Processor) compactNodes(
	activeContext *Context,
	activeProperty string,
	elements []Node,
) (*value.Value, error) {
	def := activeContext.defs[activeProperty]

	// 3.1) 3.2)
	result := value.NewArray()
	for i := range elements {
		compacted, err := p.compactNode(activeContext, activeProperty, elements[i])
		if err != nil {
			return nil, err
		}
		if compacted != nil {
			result.Append(compacted)
		}
	}

	// 3.3)
	items := result.Items()
	if len(items) != 1 || !p.compactArrays ||
		activeProperty == KeywordGraph || activeProperty == KeywordSet ||
		slices.Contains(def.Container, KeywordList) ||
		slices.Contains(def.Container, KeywordSet) {
		return result, nil
	}

	// 3.4)
	return items[0], nil
}

func (p *Processor) compactNode(
	activeContext *Context,
	activeProperty string,
	object Node,
) (*value.Value, error) {
	activeTermDefinition := activeContext.defs[activeProperty]

	// 1)
	typeScopedContext := activeContext

	// 5)
	if activeContext.previousContext != nil {
		if !object.Has(KeywordValue) &&
			(!object.Has(KeywordID) || len(object.PropertySet()) > 1) {
			activeContext = activeContext.previousContext
			activeTermDefinition = activeContext.defs[activeProperty]
		}
	}

	// 6)
	if activeTermDefinition.Context != nil {
		next, err := p.scopedContext(activeContext, activeTermDefinition, true)
		if err != nil {
			return nil, err
		}
		activeContext = next
		activeTermDefinition = activeContext.defs[activeProperty]
	}

	// 7)
	if object.Has(KeywordValue) || object.Has(KeywordID) {
		if activeTermDefinition.Type == KeywordJSON {
			return object.Value, nil
		}

		compacted, err := p.compactValue(activeContext, activeProperty, &object)
		if err != nil {
			return nil, err
		}
		if compacted != nil {
			return compacted, nil
		}
	}

	// 8)
	if object.IsList() &&
		slices.Contains(activeTermDefinition.Container, KeywordList) {
		return p.compactNodes(activeContext, activeProperty, object.List)
	}

	// 9)
	insideReverse := activeProperty == KeywordReverse

	// 10)
	result := value.NewObject()
	resultObj := result.Obj()

	// 11)
	if object.Has(KeywordType) {
		compactedTypes := make([]string, 0, len(object.Type))
		for _, t := range object.Type {
			res, err := p.compactIRI(activeContext, t, nil, true, false)
			if err != nil {
				return nil, err
			}
			compactedTypes = append(compactedTypes, res)
		}
		slices.Sort(compactedTypes)

		// 11.1)
		for _, t := range compactedTypes {
			if tdef, ok := typeScopedContext.defs[t]; ok && tdef.Context != nil {
				next, err := p.scopedContext(activeContext, tdef, false)
				if err != nil {
					return nil, err
				}
				activeContext = next
			}
		}
	}

	// 12)
	expandedProperties := slices.Collect(maps.Keys(object.PropertySet()))
	slices.Sort(expandedProperties)

	for _, expandedProperty := range expandedProperties {
		switch expandedProperty {
		case KeywordID:
			// 12.1)
			compacted, err := p.compactIRI(activeContext, object.ID, nil, false, false)
			if err != nil {
				return nil, err
			}
			alias, err := p.compactIRI(activeContext, KeywordID, nil, true, false)
			if err != nil {
				return nil, err
			}
			resultObj.Set(alias, value.NewString(compacted))
			continue

		case KeywordType:
			// 12.2.1) 12.2.2)
			compactedTypes := make([]*value.Value, 0, len(object.Type))
			for _, t := range object.Type {
				res, err := p.compactIRI(typeScopedContext, t, nil, true, false)
				if err != nil {
					return nil, err
				}
				compactedTypes = append(compactedTypes, value.NewString(res))
			}

			// 12.2.3)
			alias, err := p.compactIRI(activeContext, KeywordType, nil, true, false)
			if err != nil {
				return nil, err
			}

			// 12.2.4)
			asArray := !p.compactArrays
			if tdef, ok := activeContext.defs[alias]; ok && !p.modeLD10 &&
				slices.Contains(tdef.Container, KeywordSet) {
				asArray = true
			}

			// 12.2.5)
			if asArray || len(compactedTypes) > 1 {
				types := value.NewArray()
				for _, t := range compactedTypes {
					types.Append(t)
				}
				resultObj.Set(alias, types)
			} else {
				resultObj.Set(alias, compactedTypes[0])
			}
			continue

		case KeywordReverse:
			// 12.3)
			if err := p.compactReverse(activeContext, object.Reverse, resultObj); err != nil {
				return nil, err
			}
			continue

		case KeywordPreserve:
			// 12.4)
			return nil, ErrPreserveUnsupported

		case KeywordIndex:
			// 12.5)
			if slices.Contains(activeTermDefinition.Container, KeywordIndex) {
				continue
			}
			fallthrough
		case KeywordDirection, KeywordLanguage, KeywordValue:
			// 12.6)
			alias, err := p.compactIRI(activeContext, expandedProperty, nil, true, false)
			if err != nil {
				return nil, err
			}
			var entry *value.Value
			switch expandedProperty {
			case KeywordDirection:
				entry = value.NewString(object.Direction)
			case KeywordIndex:
				entry = value.NewString(object.Index)
			case KeywordLanguage:
				entry = value.NewString(object.Language)
			case KeywordValue:
				entry = object.Value
			}
			resultObj.Set(alias, entry)
			continue
		}

		var expandedValue []Node
		switch expandedProperty {
		case KeywordList:
			expandedValue = object.List
		case KeywordGraph:
			expandedValue = object.Graph
		case KeywordIncluded:
			expandedValue = object.Included
		default:
			expandedValue = object.Properties[expandedProperty]
		}

		// 12.7)
		if len(expandedValue) == 0 {
			itemActiveProperty, err := p.compactIRI(activeContext, expandedProperty, nil, true, insideReverse)
			if err != nil {
				return nil, err
			}
			nestResult, err := p.nestTarget(activeContext, itemActiveProperty, resultObj)
			if err != nil {
				return nil, err
			}
			nestResult.Set(itemActiveProperty, value.NewArray())
		}

		// 12.8)
		for i := range expandedValue {
			expandedItem := expandedValue[i]

			// 12.8.1)
			itemActiveProperty, err := p.compactIRI(activeContext, expandedProperty, expandedItem, true, insideReverse)
			if err != nil {
				return nil, err
			}

			// 12.8.2) 12.8.3)
			nestResult, err := p.nestTarget(activeContext, itemActiveProperty, resultObj)
			if err != nil {
				return nil, err
			}

			itemDef := activeContext.defs[itemActiveProperty]

			// 12.8.4)
			container := itemDef.Container

			// 12.8.5)
			asArray := !p.compactArrays
			if itemActiveProperty == KeywordList || itemActiveProperty == KeywordGraph ||
				slices.Contains(container, KeywordSet) {
				asArray = true
			}

			// 12.8.6)
			var compactedItem *value.Value
			switch {
			case expandedItem.IsList():
				compactedItem, err = p.compactNodes(activeContext, itemActiveProperty, expandedItem.List)
			case expandedItem.IsGraph():
				compactedItem, err = p.compactNodes(activeContext, itemActiveProperty, expandedItem.Graph)
			default:
				compactedItem, err = p.compactNode(activeContext, itemActiveProperty, expandedItem)
			}
			if err != nil {
				return nil, err
			}

			switch {
			case expandedItem.IsList():
				// 12.8.7)
				if compactedItem.Kind() != value.ArrayKind {
					wrapped := value.NewArray()
					wrapped.Append(compactedItem)
					compactedItem = wrapped
				}

				if !slices.Contains(container, KeywordList) {
					// 12.8.7.2)
					listObject := value.NewObject()
					alias, err := p.compactIRI(activeContext, KeywordList, nil, true, false)
					if err != nil {
						return nil, err
					}
					listObject.Obj().Set(alias, compactedItem)

					if expandedItem.Has(KeywordIndex) {
						indexAlias, err := p.compactIRI(activeContext, KeywordIndex, nil, true, false)
						if err != nil {
							return nil, err
						}
						listObject.Obj().Set(indexAlias, value.NewString(expandedItem.Index))
					}

					appendEntry(nestResult, itemActiveProperty, listObject, asArray)
				} else {
					// 12.8.7.3)
					nestResult.Set(itemActiveProperty, compactedItem)
				}

			case expandedItem.IsGraph():
				// 12.8.8)
				if err := p.compactGraphItem(activeContext, nestResult,
					itemActiveProperty, expandedItem, compactedItem,
					container, asArray); err != nil {
					return nil, err
				}

			case !slices.Contains(container, KeywordGraph) &&
				(slices.Contains(container, KeywordLanguage) ||
					slices.Contains(container, KeywordIndex) ||
					slices.Contains(container, KeywordID) ||
					slices.Contains(container, KeywordType)):
				// 12.8.9)
				if err := p.compactIntoMap(activeContext, nestResult,
					itemActiveProperty, expandedItem, compactedItem,
					container, asArray); err != nil {
					return nil, err
				}

			default:
				// 12.8.10)
				if !nestResult.Has(itemActiveProperty) && asArray &&
					itemDef.Type == KeywordJSON &&
					expandedItem.Value != nil &&
					expandedItem.Value.Kind() == value.ArrayKind {
					// a JSON literal that is itself an array stands alone
					nestResult.Set(itemActiveProperty, compactedItem)
					continue
				}
				appendEntry(nestResult, itemActiveProperty, compactedItem, asArray)
			}
		}
	}

	return result, nil
}

// nestTarget resolves where a compacted entry lands: the result itself, or
// the nest map its term points at.
func (p *Processor) nestTarget(
	activeContext *Context,
	itemActiveProperty string,
	result *value.Object,
) (*value.Object, error) {
	def, ok := activeContext.defs[itemActiveProperty]
	if !ok || def.Nest == "" {
		return result, nil
	}

	expanded, err := p.expandIRI(activeContext, def.Nest, false, true, nil, nil)
	if err != nil {
		return nil, err
	}
	if expanded != KeywordNest {
		return nil, ErrInvalidNestValue.withDetail("%q", def.Nest)
	}

	nested, ok := result.Get(def.Nest)
	if !ok || nested.Obj() == nil {
		nested = value.NewObject()
		result.Set(def.Nest, nested)
	}
	return nested.Obj(), nil
}

// compactReverse compacts a reverse property map, hoisting entries whose
// selected term is itself reverse onto the parent node.
func (p *Processor) compactReverse(
	activeContext *Context,
	reverse Properties,
	result *value.Object,
) error {
	merged := value.NewObject().Obj()

	for _, property := range sortedKeys(reverse) {
		compacted, err := p.compactNode(activeContext, KeywordReverse, Node{
			Properties: Properties{property: reverse[property]},
		})
		if err != nil {
			return err
		}

		obj := compacted.Obj()
		if obj == nil {
			continue
		}

		// 12.3.2)
		for _, prop := range obj.Keys() {
			rdef, ok := activeContext.defs[prop]
			if !ok || !rdef.Reverse {
				continue
			}

			entry, _ := obj.Get(prop)
			asArray := !p.compactArrays || slices.Contains(rdef.Container, KeywordSet)
			if asArray && entry.Kind() != value.ArrayKind {
				wrapped := value.NewArray()
				wrapped.Append(entry)
				entry = wrapped
			}
			result.Set(prop, entry)
			obj.Delete(prop)
		}

		for k, v := range obj.Entries() {
			merged.Set(k, v)
		}
	}

	if merged.Len() == 0 {
		return nil
	}

	// 12.3.3)
	alias, err := p.compactIRI(activeContext, KeywordReverse, nil, true, false)
	if err != nil {
		return err
	}
	wrapper := value.NewObject()
	for k, v := range merged.Entries() {
		wrapper.Obj().Set(k, v)
	}
	result.Set(alias, wrapper)
	return nil
}

// compactGraphItem places one expanded graph object into the compacted
// output, honoring @graph container combinations.
func (p *Processor) compactGraphItem(
	activeContext *Context,
	nestResult *value.Object,
	itemActiveProperty string,
	expandedItem Node,
	compactedItem *value.Value,
	container []string,
	asArray bool,
) error {
	asGraph := slices.Contains(container, KeywordGraph)

	switch {
	case asGraph && slices.Contains(container, KeywordID):
		// 12.8.8.1)
		mapObject := ensureMap(nestResult, itemActiveProperty)

		vocab := !expandedItem.Has(KeywordID)
		key := cmp.Or(expandedItem.ID, KeywordNone)
		alias, err := p.compactIRI(activeContext, key, nil, vocab, false)
		if err != nil {
			return err
		}
		appendEntry(mapObject, alias, compactedItem, asArray)

	case asGraph && slices.Contains(container, KeywordIndex) && expandedItem.IsSimpleGraph():
		// 12.8.8.2)
		mapObject := ensureMap(nestResult, itemActiveProperty)
		key := cmp.Or(expandedItem.Index, KeywordNone)
		appendEntry(mapObject, key, compactedItem, asArray)

	case asGraph && expandedItem.IsSimpleGraph():
		// 12.8.8.3)
		if items := compactedItem.Items(); compactedItem.Kind() == value.ArrayKind && len(items) > 1 {
			alias, err := p.compactIRI(activeContext, KeywordIncluded, nil, true, false)
			if err != nil {
				return err
			}
			wrapped := value.NewObject()
			wrapped.Obj().Set(alias, compactedItem)
			compactedItem = wrapped
		}
		appendEntry(nestResult, itemActiveProperty, compactedItem, asArray)

	default:
		// 12.8.8.4)
		alias, err := p.compactIRI(activeContext, KeywordGraph, nil, true, false)
		if err != nil {
			return err
		}
		graphObject := value.NewObject()
		graphObject.Obj().Set(alias, compactedItem)

		if expandedItem.Has(KeywordID) {
			idAlias, err := p.compactIRI(activeContext, KeywordID, nil, true, false)
			if err != nil {
				return err
			}
			compactedID, err := p.compactIRI(activeContext, expandedItem.ID, nil, false, false)
			if err != nil {
				return err
			}
			graphObject.Obj().Set(idAlias, value.NewString(compactedID))
		}

		if expandedItem.Has(KeywordIndex) {
			indexAlias, err := p.compactIRI(activeContext, KeywordIndex, nil, true, false)
			if err != nil {
				return err
			}
			graphObject.Obj().Set(indexAlias, value.NewString(expandedItem.Index))
		}

		appendEntry(nestResult, itemActiveProperty, graphObject, asArray)
	}

	return nil
}

// compactIntoMap places one compacted item into a language, index, id or
// type map.
func (p *Processor) compactIntoMap(
	activeContext *Context,
	nestResult *value.Object,
	itemActiveProperty string,
	expandedItem Node,
	compactedItem *value.Value,
	container []string,
	asArray bool,
) error {
	// 12.8.9.1)
	mapObject := ensureMap(nestResult, itemActiveProperty)

	key := ""
	switch {
	case slices.Contains(container, KeywordLanguage):
		key = KeywordLanguage
	case slices.Contains(container, KeywordIndex):
		key = KeywordIndex
	case slices.Contains(container, KeywordID):
		key = KeywordID
	case slices.Contains(container, KeywordType):
		key = KeywordType
	}

	// 12.8.9.2)
	containerKey, err := p.compactIRI(activeContext, key, nil, true, false)
	if err != nil {
		return err
	}

	// 12.8.9.3)
	indexKey := KeywordIndex
	if def, ok := activeContext.defs[itemActiveProperty]; ok && def.Index != "" {
		indexKey = def.Index
	}

	mapKey := ""

	switch {
	case slices.Contains(container, KeywordLanguage) && expandedItem.IsValue():
		// 12.8.9.4)
		compactedItem = expandedItem.Value
		mapKey = expandedItem.Language

	case slices.Contains(container, KeywordIndex) && indexKey == KeywordIndex:
		// 12.8.9.5)
		mapKey = expandedItem.Index

	case slices.Contains(container, KeywordIndex):
		// 12.8.9.6) the index lives under its own property in the item
		expandedIndex, err := p.expandIRI(activeContext, indexKey, false, false, nil, nil)
		if err != nil {
			return err
		}
		containerKey, err = p.compactIRI(activeContext, expandedIndex, nil, true, false)
		if err != nil {
			return err
		}

		if obj := compactedItem.Obj(); obj != nil {
			if entry, ok := obj.Get(containerKey); ok {
				switch entry.Kind() {
				case value.StringKind:
					mapKey, _ = entry.Str()
					obj.Delete(containerKey)
				case value.ArrayKind:
					items := entry.Items()
					if len(items) > 0 {
						mapKey, _ = items[0].Str()
					}
					switch {
					case len(items) == 2:
						obj.Set(containerKey, items[1])
					case len(items) > 2:
						rest := value.NewArray()
						for _, it := range items[1:] {
							rest.Append(it)
						}
						obj.Set(containerKey, rest)
					default:
						obj.Delete(containerKey)
					}
				}
			}
		}

	case slices.Contains(container, KeywordID):
		// 12.8.9.7)
		if obj := compactedItem.Obj(); obj != nil {
			if entry, ok := obj.Get(containerKey); ok {
				if s, isString := entry.Str(); isString {
					mapKey = s
					obj.Delete(containerKey)
				}
			}
		}

	case slices.Contains(container, KeywordType):
		// 12.8.9.8)
		if obj := compactedItem.Obj(); obj != nil {
			if entry, ok := obj.Get(containerKey); ok {
				switch entry.Kind() {
				case value.StringKind:
					mapKey, _ = entry.Str()
					obj.Delete(containerKey)
				case value.ArrayKind:
					items := entry.Items()
					if len(items) > 0 {
						mapKey, _ = items[0].Str()
					}
					switch {
					case len(items) == 2:
						obj.Set(containerKey, items[1])
					case len(items) > 2:
						rest := value.NewArray()
						for _, it := range items[1:] {
							rest.Append(it)
						}
						obj.Set(containerKey, rest)
					default:
						obj.Delete(containerKey)
					}
				}
			}

			// 12.8.9.8.4) a bare reference left over re-compacts to its
			// simplest form
			if obj.Len() == 1 {
				only := obj.Keys()[0]
				expanded, err := p.expandIRI(activeContext, only, false, true, nil, nil)
				if err != nil {
					return err
				}
				if expanded == KeywordID {
					recompacted, err := p.compactNode(activeContext, itemActiveProperty, Node{ID: expandedItem.ID})
					if err != nil {
						return err
					}
					compactedItem = recompacted
				}
			}
		}
	}

	// 12.8.9.9)
	if mapKey == "" {
		alias, err := p.compactIRI(activeContext, KeywordNone, nil, true, false)
		if err != nil {
			return err
		}
		mapKey = alias
	}

	// 12.8.9.10)
	appendEntry(mapObject, mapKey, compactedItem, asArray)
	return nil
}

// ensureMap returns the map stored under key, creating it when absent.
func ensureMap(target *value.Object, key string) *value.Object {
	if existing, ok := target.Get(key); ok {
		if obj := existing.Obj(); obj != nil {
			return obj
		}
	}
	m := value.NewObject()
	target.Set(key, m)
	return m.Obj()
}

// appendEntry adds item under key, turning the entry into an array on the
// second write or when asArray demands one.
func appendEntry(target *value.Object, key string, item *value.Value, asArray bool) {
	existing, ok := target.Get(key)
	if !ok {
		if asArray && item.Kind() != value.ArrayKind {
			wrapped := value.NewArray()
			wrapped.Append(item)
			target.Set(key, wrapped)
			return
		}
		target.Set(key, item)
		return
	}

	arr := existing
	if existing.Kind() != value.ArrayKind {
		arr = value.NewArray()
		arr.Append(existing)
	}
	if item.Kind() == value.ArrayKind {
		for _, it := range item.Items() {
			arr.Append(it)
		}
	} else {
		arr.Append(item)
	}
	target.Set(key, arr)
}

func (p *Processor) compactIRI(
	activeContext *Context,
	key string,
	item any,
	vocab bool,
	reverse bool,
) (string, error) {
	// 1)
	if key == "" {
		return "", nil
	}

	// blank node identifiers never compact
	if strings.HasPrefix(key, BlankNodePrefix) {
		return key, nil
	}

	// 2) 3)
	activeContext.initInverse()
	inverse := activeContext.inverse

	object, isObject := item.(Node)

	// 4)
	if _, ok := inverse[key]; ok && vocab {
		// 4.1)
		defaultLanguage := KeywordNone
		if activeContext.defaultDirection != "" {
			defaultLanguage = strings.ToLower(activeContext.defaultLang + "_" + activeContext.defaultDirection)
		} else if activeContext.defaultLang != "" {
			defaultLanguage = strings.ToLower(activeContext.defaultLang)
		}

		// 4.3)
		containers := make([]string, 0, 8)

		// 4.4)
		typeLanguage := KeywordLanguage
		typeLanguageValue := KeywordNull

		// 4.5)
		if isObject && object.Has(KeywordIndex) && !object.IsGraph() {
			containers = append(containers,
				KeywordIndex,
				KeywordIndex+KeywordSet)
		}

		switch {
		case reverse:
			// 4.6)
			typeLanguage = KeywordType
			typeLanguageValue = KeywordReverse
			containers = append(containers, KeywordSet)

		case isObject && object.IsList():
			// 4.7)
			if !object.Has(KeywordIndex) {
				containers = append(containers, KeywordList)
			}

			commonLanguage, commonType := listCommonTypeLanguage(object.List, defaultLanguage)
			if commonType != KeywordNone {
				typeLanguage = KeywordType
				typeLanguageValue = commonType
			} else {
				typeLanguageValue = commonLanguage
			}

		case isObject && object.IsGraph():
			// 4.8)
			if object.Has(KeywordIndex) {
				containers = append(containers,
					KeywordGraph+KeywordIndex,
					KeywordGraph+KeywordIndex+KeywordSet)
			}
			if object.Has(KeywordID) {
				containers = append(containers,
					KeywordGraph+KeywordID,
					KeywordGraph+KeywordID+KeywordSet)
			}
			containers = append(containers,
				KeywordGraph,
				KeywordGraph+KeywordSet,
				KeywordSet)
			if !object.Has(KeywordIndex) {
				containers = append(containers,
					KeywordGraph+KeywordIndex,
					KeywordGraph+KeywordIndex+KeywordSet)
			}
			if !object.Has(KeywordID) {
				containers = append(containers,
					KeywordGraph+KeywordID,
					KeywordGraph+KeywordID+KeywordSet)
			}
			containers = append(containers,
				KeywordIndex,
				KeywordIndex+KeywordSet)

			typeLanguage = KeywordType
			typeLanguageValue = KeywordID

		default:
			// 4.9)
			if isObject && object.IsValue() {
				if object.Has(KeywordDirection) && !object.Has(KeywordIndex) {
					if object.Has(KeywordLanguage) {
						typeLanguageValue = object.Language + "_" + object.Direction
					} else {
						typeLanguageValue = "_" + object.Direction
					}
					containers = append(containers,
						KeywordLanguage,
						KeywordLanguage+KeywordSet)
				} else if object.Has(KeywordLanguage) && !object.Has(KeywordIndex) {
					typeLanguageValue = object.Language
					containers = append(containers,
						KeywordLanguage,
						KeywordLanguage+KeywordSet)
				} else if object.Has(KeywordType) {
					typeLanguage = KeywordType
					typeLanguageValue = object.Type[0]
				}
			} else {
				typeLanguage = KeywordType
				typeLanguageValue = KeywordID
				containers = append(containers,
					KeywordID,
					KeywordID+KeywordSet,
					KeywordType,
					KeywordSet+KeywordType)
			}
			containers = append(containers, KeywordSet)
		}

		// 4.10)
		containers = append(containers, KeywordNone)

		if !p.modeLD10 {
			// 4.11)
			if !isObject || !object.Has(KeywordIndex) {
				containers = append(containers,
					KeywordIndex,
					KeywordIndex+KeywordSet)
			}
			// 4.12)
			if isObject && object.IsValue() && len(object.PropertySet()) == 1 {
				containers = append(containers,
					KeywordLanguage,
					KeywordLanguage+KeywordSet)
			}
		}

		// 4.13)
		if typeLanguageValue == "" {
			typeLanguageValue = KeywordNull
		}

		// 4.14) - 4.18)
		preferredValues := make([]string, 0, 4)
		if typeLanguageValue == KeywordReverse {
			preferredValues = append(preferredValues, KeywordReverse)
		}

		if isObject && object.Has(KeywordID) &&
			(typeLanguageValue == KeywordID || typeLanguageValue == KeywordReverse) {
			compacted, err := p.compactIRI(activeContext, object.ID, nil, true, false)
			if err != nil {
				return "", err
			}
			if cdef, ok := activeContext.defs[compacted]; ok && cdef.IRI == object.ID {
				preferredValues = append(preferredValues,
					KeywordVocab, KeywordID, KeywordNone)
			} else {
				preferredValues = append(preferredValues,
					KeywordID, KeywordVocab, KeywordNone)
			}
		} else {
			preferredValues = append(preferredValues, typeLanguageValue, KeywordNone)
			if isObject && object.IsList() && len(object.List) == 0 {
				typeLanguage = KeywordAny
			}
		}
		preferredValues = append(preferredValues, KeywordAny)

		// 4.19)
		for _, pv := range slices.Clone(preferredValues) {
			if idx := strings.Index(pv, "_"); idx != -1 {
				preferredValues = append(preferredValues, pv[idx:])
			}
		}

		// 4.20) 4.21)
		if term := selectTerm(activeContext, key, containers, typeLanguage, preferredValues); term != "" {
			return term, nil
		}
	}

	// 5)
	if vocab && activeContext.vocabMapping != "" &&
		strings.HasPrefix(key, activeContext.vocabMapping) &&
		len(key) > len(activeContext.vocabMapping) {
		suffix := strings.TrimPrefix(key, activeContext.vocabMapping)
		if _, ok := activeContext.defs[suffix]; !ok {
			return suffix, nil
		}
	}

	// 6) 7)
	compactIRI := ""
	for term, def := range activeContext.defs {
		if def.IRI == "" || def.IRI == key || !def.Prefix ||
			!strings.HasPrefix(key, def.IRI) {
			continue
		}

		candidate := term + ":" + strings.TrimPrefix(key, def.IRI)
		cdef, defined := activeContext.defs[candidate]
		if !defined && (compactIRI == "" || shortestLeast(candidate, compactIRI) < 0) {
			compactIRI = candidate
		} else if defined && cdef.IRI == key && item == nil {
			compactIRI = candidate
		}
	}

	// 8)
	if compactIRI != "" {
		return compactIRI, nil
	}

	// 9)
	if scheme, rest, found := strings.Cut(key, ":"); found && !strings.HasPrefix(rest, "//") {
		if def, ok := activeContext.defs[scheme]; ok && def.Prefix {
			return "", ErrIRIConfusedWithPrefix.withDetail("%q", key)
		}
	}

	// 10)
	if !vocab && p.compactToRelative && activeContext.currentBaseIRI != "" {
		if rel, err := iri.Relative(activeContext.currentBaseIRI, key); err == nil {
			if looksLikeKeyword(rel) {
				rel = "./" + rel
			}
			return rel, nil
		}
	}

	// 11)
	return key, nil
}

// listCommonTypeLanguage finds the type and language shared by every member
// of a list, KeywordNone when the members disagree.
func listCommonTypeLanguage(list []Node, defaultLanguage string) (string, string) {
	if len(list) == 0 {
		return defaultLanguage, KeywordNone
	}

	commonLanguage, commonType := "", ""

	for i := range list {
		item := &list[i]
		itemLanguage, itemType := KeywordNone, KeywordNone

		if item.IsValue() {
			switch {
			case item.Has(KeywordDirection) && item.Has(KeywordLanguage):
				itemLanguage = item.Language + "_" + item.Direction
			case item.Has(KeywordDirection):
				itemLanguage = "_" + item.Direction
			case item.Has(KeywordLanguage):
				itemLanguage = item.Language
			case item.Has(KeywordType):
				itemType = item.Type[0]
			default:
				itemLanguage = KeywordNull
			}
		} else {
			itemType = KeywordID
		}

		if commonLanguage == "" {
			commonLanguage = itemLanguage
		} else if commonLanguage != itemLanguage {
			commonLanguage = KeywordNone
		}

		if commonType == "" {
			commonType = itemType
		} else if commonType != itemType {
			commonType = KeywordNone
		}

		if commonLanguage == KeywordNone && commonType == KeywordNone {
			break
		}
	}

	return commonLanguage, commonType
}

// compactValue attempts the scalar shortcuts of value compaction. A nil
// result with nil error means no shortcut applies and the value stays an
// object.
func (p *Processor) compactValue(
	activeContext *Context,
	activeProperty string,
	object *Node,
) (*value.Value, error) {
	def, defOK := activeContext.defs[activeProperty]

	// 4)
	language := def.Language
	if language == "" && activeContext.defaultLang != "" {
		language = activeContext.defaultLang
	}

	// 5)
	direction := def.Direction
	if direction == "" && activeContext.defaultDirection != "" {
		direction = activeContext.defaultDirection
	}

	propCount := len(object.PropertySet())

	// 6)
	if object.Has(KeywordID) &&
		(propCount == 1 || (propCount == 2 && object.Has(KeywordIndex))) {
		if !defOK || def.Type == "" {
			return nil, nil
		}
		switch def.Type {
		case KeywordID:
			res, err := p.compactIRI(activeContext, object.ID, nil, false, false)
			if err != nil {
				return nil, err
			}
			return value.NewString(res), nil
		case KeywordVocab:
			res, err := p.compactIRI(activeContext, object.ID, nil, true, false)
			if err != nil {
				return nil, err
			}
			return value.NewString(res), nil
		default:
			return nil, nil
		}
	}

	isString := false
	if object.Value != nil {
		_, isString = object.Value.Str()
	}

	switch {
	case defOK && object.Has(KeywordType) && slices.Contains(object.Type, def.Type):
		// 7)
		return object.Value, nil

	case (defOK && def.Type == KeywordNone) ||
		(object.Has(KeywordType) && !slices.Contains(object.Type, def.Type)):
		// 8) the type mapping disagrees, the value object stays as-is
		return nil, nil

	case object.IsValue() && !isString:
		// 9)
		if !object.Has(KeywordIndex) ||
			slices.Contains(def.Container, KeywordIndex) {
			return object.Value, nil
		}

	case object.IsValue() &&
		languageMatches(object, language) && directionMatches(object, direction):
		// 10)
		if !object.Has(KeywordIndex) ||
			slices.Contains(def.Container, KeywordIndex) {
			return object.Value, nil
		}
	}

	return nil, nil
}

func languageMatches(object *Node, language string) bool {
	if object.Has(KeywordLanguage) {
		return language != "" && language != KeywordNull &&
			strings.EqualFold(object.Language, language)
	}
	return language == "" || language == KeywordNull
}

func directionMatches(object *Node, direction string) bool {
	if object.Has(KeywordDirection) {
		return direction != "" && direction != KeywordNull &&
			strings.EqualFold(object.Direction, direction)
	}
	return direction == "" || direction == KeywordNull
}

// selectTerm picks the best matching term for an IRI from the inverse
// context, trying containers in preference order.
func selectTerm(
	activeContext *Context,
	keyIRI string,
	containers []string,
	typeLanguage string,
	preferredValues []string,
) string {
	activeContext.initInverse()
	containerMap := activeContext.inverse[keyIRI]

	for _, container := range containers {
		typeLanguageMap, ok := containerMap[container]
		if !ok {
			continue
		}

		var valueMap map[string]string
		switch typeLanguage {
		case KeywordLanguage:
			valueMap = typeLanguageMap.language
		case KeywordType:
			valueMap = typeLanguageMap.typ
		case KeywordAny:
			valueMap = typeLanguageMap.any
		}

		for _, preferred := range preferredValues {
			if term, ok := valueMap[preferred]; ok {
				return term
			}
		}
	}

	return ""
}
