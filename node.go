package jsonld

import (
	"slices"

	"github.com/blast-hardcheese/json-ld/value"
)

// Properties maps an expanded IRI to the array of nodes it holds.
//
// Expanded form guarantees the array, even for single values.
type Properties map[string][]Node

// Node is one element of a document in expanded form: either a node object,
// a value object, a list, a set, or a (named) graph.
//
// Every JSON-LD keyword has a dedicated field; all remaining entries, keyed
// by expanded IRI, live in Properties.
type Node struct {
	Direction string
	Graph     []Node
	ID        string
	Included  []Node
	Index     string
	Language  string
	List      []Node
	Reverse   Properties
	Set       []Node
	Type      []string
	Value     *value.Value

	Properties Properties
}

// Has reports whether the node carries prop, which is either a keyword or an
// expanded IRI.
func (n *Node) Has(prop string) bool {
	if n == nil {
		return false
	}

	switch prop {
	case KeywordDirection:
		return n.Direction != ""
	case KeywordGraph:
		return n.Graph != nil
	case KeywordID:
		return n.ID != ""
	case KeywordIncluded:
		return n.Included != nil
	case KeywordIndex:
		return n.Index != ""
	case KeywordLanguage:
		return n.Language != ""
	case KeywordList:
		return n.List != nil
	case KeywordReverse:
		return n.Reverse != nil
	case KeywordSet:
		return n.Set != nil
	case KeywordType:
		return n.Type != nil
	case KeywordValue:
		return n.Value != nil
	default:
		_, ok := n.Properties[prop]
		return ok
	}
}

var nodeKeywords = []string{
	KeywordDirection, KeywordGraph, KeywordID, KeywordIncluded,
	KeywordIndex, KeywordLanguage, KeywordList, KeywordReverse,
	KeywordSet, KeywordType, KeywordValue,
}

// PropertySet returns the set of properties present on the node, keywords
// included.
func (n *Node) PropertySet() map[string]struct{} {
	if n == nil {
		return nil
	}

	res := make(map[string]struct{}, len(n.Properties)+2)
	for _, kw := range nodeKeywords {
		if n.Has(kw) {
			res[kw] = struct{}{}
		}
	}
	for p := range n.Properties {
		res[p] = struct{}{}
	}
	return res
}

func (n *Node) propsWithout(props ...string) map[string]struct{} {
	set := n.PropertySet()
	for _, prop := range props {
		delete(set, prop)
	}
	return set
}

// Len returns the number of properties present, keywords included.
func (n *Node) Len() int {
	return len(n.PropertySet())
}

// IsZero returns if this is the zero value of a [Node].
func (n *Node) IsZero() bool {
	return n.Len() == 0
}

func (n *Node) isNode() bool {
	if n == nil {
		return false
	}
	return !n.Has(KeywordList) && !n.Has(KeywordValue) && !n.Has(KeywordSet)
}

// IsValue checks if this is a value object: an @value plus, at most,
// @direction, @index, @language and @type.
func (n *Node) IsValue() bool {
	if !n.Has(KeywordValue) {
		return false
	}

	return len(n.propsWithout(
		KeywordValue,
		KeywordDirection,
		KeywordIndex,
		KeywordLanguage,
		KeywordType,
	)) == 0
}

// IsList checks if this is a list object: an @list plus, at most, an @index.
func (n *Node) IsList() bool {
	if !n.Has(KeywordList) {
		return false
	}
	return len(n.propsWithout(KeywordList, KeywordIndex)) == 0
}

// IsGraph returns if this is a graph object: an @graph plus, at most, @id
// and @index.
func (n *Node) IsGraph() bool {
	if !n.Has(KeywordGraph) {
		return false
	}
	return len(n.propsWithout(KeywordGraph, KeywordID, KeywordIndex)) == 0
}

// IsSimpleGraph returns if this is a graph object without an @id.
func (n *Node) IsSimpleGraph() bool {
	return n.IsGraph() && !n.Has(KeywordID)
}

// IsSubjectReference checks if the node only references another node: an
// @id plus, at most, an @type.
func (n *Node) IsSubjectReference() bool {
	if !n.Has(KeywordID) {
		return false
	}
	return len(n.propsWithout(KeywordID, KeywordType)) == 0
}

// ToValue renders the node in expanded document form.
//
// Output is deterministic: keyword entries first in a fixed order, then
// properties sorted by IRI.
func (n *Node) ToValue() *value.Value {
	result := value.NewObject()
	obj := result.Obj()

	if n.Has(KeywordID) {
		obj.Set(KeywordID, value.NewString(n.ID))
	}

	if n.Has(KeywordType) {
		if n.Value != nil && len(n.Type) == 1 {
			obj.Set(KeywordType, value.NewString(n.Type[0]))
		} else {
			types := value.NewArray()
			for _, t := range n.Type {
				types.Append(value.NewString(t))
			}
			obj.Set(KeywordType, types)
		}
	}

	if n.Has(KeywordValue) {
		obj.Set(KeywordValue, n.Value)
	}

	if n.Has(KeywordLanguage) {
		obj.Set(KeywordLanguage, value.NewString(n.Language))
	}

	if n.Has(KeywordDirection) {
		obj.Set(KeywordDirection, value.NewString(n.Direction))
	}

	if n.Has(KeywordIndex) {
		obj.Set(KeywordIndex, value.NewString(n.Index))
	}

	if n.Has(KeywordList) {
		obj.Set(KeywordList, nodesToValue(n.List))
	}

	if n.Has(KeywordSet) {
		obj.Set(KeywordSet, nodesToValue(n.Set))
	}

	if n.Has(KeywordGraph) {
		obj.Set(KeywordGraph, nodesToValue(n.Graph))
	}

	if n.Has(KeywordIncluded) {
		obj.Set(KeywordIncluded, nodesToValue(n.Included))
	}

	if n.Has(KeywordReverse) {
		rev := value.NewObject()
		for _, prop := range sortedKeys(n.Reverse) {
			rev.Obj().Set(prop, nodesToValue(n.Reverse[prop]))
		}
		obj.Set(KeywordReverse, rev)
	}

	for _, prop := range sortedKeys(n.Properties) {
		obj.Set(prop, nodesToValue(n.Properties[prop]))
	}

	return result
}

// MarshalJSON encodes to expanded document form.
func (n *Node) MarshalJSON() ([]byte, error) {
	return n.ToValue().MarshalJSON()
}

func nodesToValue(nodes []Node) *value.Value {
	arr := value.NewArray()
	for i := range nodes {
		arr.Append(nodes[i].ToValue())
	}
	return arr
}

func sortedKeys(props Properties) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
