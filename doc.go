// Package jsonld implements JSON-LD expansion and compaction.
//
// [Processor.Expand] turns incoming JSON into fully expanded JSON-LD: a list
// of [Node], with dedicated fields for each JSON-LD keyword and the catch-all
// [Node.Properties] for everything else. Serialising that list produces
// Expanded Document form.
//
// [Processor.Compact] goes the other way: given a compaction context it turns
// a list of [Node] back into compact, regular-looking JSON.
//
// Documents enter and leave as [value.Value] trees. The tree is a faithful
// JSON model: object entries keep their insertion order and numbers keep
// their literal text, so a document that is expanded and compacted again
// round-trips its numbers exactly.
//
// By default a [Processor] cannot load remote contexts. Install a
// [DocumentLoaderFunc] using [WithDocumentLoader] when creating the
// processor. To avoid depending on the network while processing documents,
// it's strongly recommended to build a loader with the necessary contexts
// compiled in, and to wrap it in [NewCachingLoader].
//
// # Constraints
//
// For JSON-LD, there are a few extra constraints on top of JSON:
//   - Do not use keys that look like a JSON-LD keyword: @+alpha characters.
//   - Do not use the empty string for a key.
//   - Keys must be unique.
package jsonld
