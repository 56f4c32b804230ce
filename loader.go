package jsonld

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/blast-hardcheese/json-ld/value"
)

// RemoteDocument is the result of dereferencing an IRI.
type RemoteDocument struct {
	// URL is the final URL after following any redirects.
	URL string

	// Document is the retrieved document. For context retrieval the
	// processor reads its @context entry.
	Document *value.Value
}

// DocumentLoaderFunc retrieves the document an IRI refers to.
//
// Retrieval failures must be reported as [ErrDocumentNotFound] when the IRI
// does not resolve to a document, or [ErrLoadingDocument] for any other
// failure, so callers can classify them. Implementations should request
// [ApplicationLDJSON] with profile [ProfileContext], honour redirects, and
// carry sensible timeouts; cancellation is the loader's responsibility, the
// processor only passes the context through.
type DocumentLoaderFunc func(ctx context.Context, iri string) (RemoteDocument, error)

// NewCachingLoader wraps a loader with a permanent per-IRI cache.
//
// Results, including failures, are memoised per IRI: within one loader's
// lifetime an IRI is dereferenced at most once. Concurrent requests for the
// same IRI share a single in-flight fetch; requests for distinct IRIs
// proceed independently. Remote contexts are expected to be immutable for
// the lifetime of the application, so no invalidation is offered.
func NewCachingLoader(load DocumentLoaderFunc) DocumentLoaderFunc {
	c := &cachingLoader{
		load:  load,
		cache: make(map[string]cacheEntry, 8),
	}
	return c.Load
}

type cacheEntry struct {
	doc RemoteDocument
	err error
}

type cachingLoader struct {
	load   DocumentLoaderFunc
	flight singleflight.Group

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func (c *cachingLoader) Load(ctx context.Context, iri string) (RemoteDocument, error) {
	c.mu.RLock()
	entry, ok := c.cache[iri]
	c.mu.RUnlock()
	if ok {
		return entry.doc, entry.err
	}

	res, err, _ := c.flight.Do(iri, func() (any, error) {
		doc, err := c.load(ctx, iri)

		c.mu.Lock()
		c.cache[iri] = cacheEntry{doc: doc, err: err}
		c.mu.Unlock()

		return doc, err
	})

	return res.(RemoteDocument), err
}
