package jsonld

import (
	"log/slog"

	"github.com/blast-hardcheese/json-ld/value"
)

// DefaultMaxDepth bounds recursion over the input tree. Documents nested
// more deeply fail with [ErrRecursionLimitExceeded] instead of exhausting
// the stack.
const DefaultMaxDepth = 256

// Policy controls what happens to keys that expand to neither an IRI nor a
// keyword.
type Policy uint8

const (
	// PolicyStandard silently drops such keys, the behaviour the
	// specification prescribes.
	PolicyStandard Policy = iota

	// PolicyStrict fails expansion with [ErrInvalidProperty] instead.
	PolicyStrict
)

// ProcessorOption configures a [Processor].
type ProcessorOption func(*Processor)

// Processor holds the configuration shared by expansion, compaction and
// context processing.
//
// A processor is immutable after construction and safe for concurrent use;
// create one and reuse it.
type Processor struct {
	modeLD10          bool
	ordered           bool
	baseIRI           string
	compactArrays     bool
	compactToRelative bool
	policy            Policy
	relabelBlankNodes bool
	maxDepth          int
	loader            DocumentLoaderFunc
	logger            *slog.Logger
	expandContext     *value.Value
}

// NewProcessor creates a JSON-LD processor.
//
// Defaults:
//   - Processing mode json-ld-1.1, which also accepts 1.0 documents. Use
//     [With10Processing] for 1.0-only behaviour.
//   - No document loader: remote contexts and @import fail until one is
//     installed with [WithDocumentLoader].
//   - Singleton arrays compact to their value ([WithCompactArrays]).
//   - IRIs may compact to relative form ([WithCompactToRelative]).
//   - Unmappable keys are dropped ([WithExpansionPolicy]).
//   - Warnings are discarded ([WithLogger]).
func NewProcessor(options ...ProcessorOption) *Processor {
	p := &Processor{
		compactArrays:     true,
		compactToRelative: true,
		maxDepth:          DefaultMaxDepth,
		logger:            slog.New(slog.DiscardHandler),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// With10Processing switches the processing mode to json-ld-1.0.
func With10Processing(b bool) ProcessorOption {
	return func(p *Processor) {
		p.modeLD10 = b
	}
}

// WithBaseIRI sets an explicit base IRI, overriding the document URL.
func WithBaseIRI(iri string) ProcessorOption {
	return func(p *Processor) {
		p.baseIRI = iri
	}
}

// WithDocumentLoader installs the collaborator used to retrieve remote
// contexts.
func WithDocumentLoader(l DocumentLoaderFunc) ProcessorOption {
	return func(p *Processor) {
		p.loader = l
	}
}

// WithOrdered makes object entries and map keys process in lexicographical
// order, which stabilises output for conformance fixtures.
func WithOrdered(b bool) ProcessorOption {
	return func(p *Processor) {
		p.ordered = b
	}
}

// WithExpandContext supplies an out-of-band context applied before
// expansion.
func WithExpandContext(ctx *value.Value) ProcessorOption {
	return func(p *Processor) {
		p.expandContext = ctx
	}
}

// WithCompactArrays sets whether single-element arrays compact to their
// value where the grammar allows it.
func WithCompactArrays(b bool) ProcessorOption {
	return func(p *Processor) {
		p.compactArrays = b
	}
}

// WithCompactToRelative sets whether compaction may emit IRIs relative to
// the base.
func WithCompactToRelative(b bool) ProcessorOption {
	return func(p *Processor) {
		p.compactToRelative = b
	}
}

// WithExpansionPolicy sets the handling of keys that expand to neither an
// IRI nor a keyword.
func WithExpansionPolicy(policy Policy) ProcessorOption {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithRelabelBlankNodes reissues blank node labels through a fresh
// [BlankNodeIssuer] on every expansion run.
func WithRelabelBlankNodes(b bool) ProcessorOption {
	return func(p *Processor) {
		p.relabelBlankNodes = b
	}
}

// WithMaxDepth sets the recursion guard for expansion and compaction.
// Values below one fall back to [DefaultMaxDepth].
func WithMaxDepth(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithLogger sets the logger used to emit processing warnings, such as
// keyword lookalikes being ignored.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = l
	}
}
