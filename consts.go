package jsonld

// BlankNodePrefix marks blank node identifiers.
const BlankNodePrefix = "_:"

// Values for @direction.
const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// Processing mode identifiers, as used by conformance fixtures.
const (
	ModeJSONLD10 = "json-ld-1.0"
	ModeJSONLD11 = "json-ld-1.1"
)

// JSON-LD MIME types and profile IRIs.
const (
	ApplicationLDJSON = "application/ld+json"
	ApplicationJSON   = "application/json"

	ProfileExpanded  = "http://www.w3.org/ns/json-ld#expanded"
	ProfileCompacted = "http://www.w3.org/ns/json-ld#compacted"
	ProfileContext   = "http://www.w3.org/ns/json-ld#context"
	ProfileFlattened = "http://www.w3.org/ns/json-ld#flattened"
)
