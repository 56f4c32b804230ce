package jsonld

import "strconv"

// BlankNodeIssuer allocates blank node labels.
//
// A label issued for a given source identifier is stable for the lifetime of
// the issuer, so repeated references inside one processing run agree.
// Independent runs use independent issuers and therefore never share labels.
type BlankNodeIssuer struct {
	counter int
	issued  map[string]string
}

// NewBlankNodeIssuer returns an issuer starting at _:b0.
func NewBlankNodeIssuer() *BlankNodeIssuer {
	return &BlankNodeIssuer{
		issued: make(map[string]string, 8),
	}
}

// Issue returns the label for source, allocating a fresh one on first use.
// An empty source always allocates, for nodes with no identifier at all.
func (b *BlankNodeIssuer) Issue(source string) string {
	if source != "" {
		if label, ok := b.issued[source]; ok {
			return label
		}
	}

	label := BlankNodePrefix + "b" + strconv.Itoa(b.counter)
	b.counter++

	if source != "" {
		b.issued[source] = label
	}

	return label
}

// Issued reports whether a label was already allocated for source.
func (b *BlankNodeIssuer) Issued(source string) bool {
	_, ok := b.issued[source]
	return ok
}
