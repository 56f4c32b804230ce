package jsonld

import (
	"strings"

	"github.com/blast-hardcheese/json-ld/internal/iri"
	"github.com/blast-hardcheese/json-ld/value"
)

// expandIRI expands a string to an IRI, blank node identifier, or keyword
// against the active context.
//
// An empty result with a nil error means the string expands to nothing and
// the caller should drop it. With vocab set, term definitions and the
// vocabulary mapping apply; with relative set, the remainder resolves against
// the base IRI. localContext and defined are only passed during context
// processing so forward references trigger term creation.
func (p *Processor) expandIRI(
	activeContext *Context,
	s string,
	relative, vocab bool,
	localContext *value.Object,
	defined map[string]termState,
) (string, error) {
	// 1)
	if isKeyword(s) {
		return s, nil
	}

	// 2)
	if looksLikeKeyword(s) {
		p.logger.Warn("ignoring keyword-shaped string", "value", s)
		return "", nil
	}

	// 3)
	if localContext != nil && localContext.Has(s) && defined[s] != termDefined {
		opts := newCreateTermOptions()
		if err := p.createTerm(activeContext, localContext, s, defined, opts); err != nil {
			return "", err
		}
	}

	if activeContext != nil {
		if def, ok := activeContext.defs[s]; ok {
			// 4)
			if isKeyword(def.IRI) {
				return def.IRI, nil
			}
			// 5)
			if vocab {
				if def.IRI == KeywordNull {
					return "", nil
				}
				return def.IRI, nil
			}
		}
	}

	// 6)
	if len(s) > 1 && strings.Contains(s[1:], ":") {
		// 6.1)
		prefix, suffix, _ := strings.Cut(s, ":")

		// 6.2)
		if prefix == "_" || strings.HasPrefix(suffix, "//") {
			return s, nil
		}

		// 6.3)
		if localContext != nil && localContext.Has(prefix) && defined[prefix] != termDefined {
			opts := newCreateTermOptions()
			if err := p.createTerm(activeContext, localContext, prefix, defined, opts); err != nil {
				return "", err
			}
		}

		// 6.4)
		if activeContext != nil {
			if def, ok := activeContext.defs[prefix]; ok &&
				def.IRI != "" && def.IRI != KeywordNull && def.Prefix {
				return def.IRI + suffix, nil
			}
		}

		// 6.5)
		if iri.IsAbsolute(s) {
			return s, nil
		}
	}

	// 7)
	if vocab && activeContext != nil && activeContext.vocabMapping != "" {
		return activeContext.vocabMapping + s, nil
	}

	// 8)
	if relative {
		base := ""
		if activeContext != nil {
			base = activeContext.currentBaseIRI
		}
		if base == "" {
			return s, nil
		}
		resolved, err := iri.Resolve(base, s)
		if err != nil {
			return s, nil
		}
		return resolved, nil
	}

	// 9)
	return s, nil
}
