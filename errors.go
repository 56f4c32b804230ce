package jsonld

import "fmt"

// Error is a processing failure with a stable, enumerable code.
//
// The set of codes is closed: every failure the processor can produce is one
// of the Err… values in this file, optionally carrying a human-readable
// detail. Compare with [errors.Is] against the sentinel values; two errors
// match when their codes match, regardless of detail.
type Error struct {
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

// Is matches errors by code so details don't break errors.Is chains.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// withDetail returns a copy of the error carrying a formatted detail string.
func (e *Error) withDetail(format string, args ...any) *Error {
	return &Error{
		Code:   e.Code,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Error conditions from the JSON-LD API error code registry.
var (
	ErrCollidingKeywords           = &Error{Code: "colliding keywords"}
	ErrConflictingIndexes          = &Error{Code: "conflicting indexes"}
	ErrContextOverflow             = &Error{Code: "context overflow"}
	ErrCyclicIRIMapping            = &Error{Code: "cyclic IRI mapping"}
	ErrInvalidBaseDirection        = &Error{Code: "invalid base direction"}
	ErrInvalidBaseIRI              = &Error{Code: "invalid base IRI"}
	ErrInvalidContainerMapping     = &Error{Code: "invalid container mapping"}
	ErrInvalidContextEntry         = &Error{Code: "invalid context entry"}
	ErrInvalidContextNullification = &Error{Code: "invalid context nullification"}
	ErrInvalidDefaultLanguage      = &Error{Code: "invalid default language"}
	ErrInvalidIDValue              = &Error{Code: "invalid @id value"}
	ErrInvalidImportValue          = &Error{Code: "invalid @import value"}
	ErrInvalidIncludedValue        = &Error{Code: "invalid @included value"}
	ErrInvalidIndexValue           = &Error{Code: "invalid @index value"}
	ErrInvalidIRIMapping           = &Error{Code: "invalid IRI mapping"}
	ErrInvalidKeywordAlias         = &Error{Code: "invalid keyword alias"}
	ErrInvalidLanguageMapValue     = &Error{Code: "invalid language map value"}
	ErrInvalidLanguageMapping      = &Error{Code: "invalid language mapping"}
	ErrInvalidLanguageTaggedString = &Error{Code: "invalid language-tagged string"}
	ErrInvalidLanguageTaggedValue  = &Error{Code: "invalid language-tagged value"}
	ErrInvalidLocalContext         = &Error{Code: "invalid local context"}
	ErrInvalidNestValue            = &Error{Code: "invalid @nest value"}
	ErrInvalidPrefixValue          = &Error{Code: "invalid @prefix value"}
	ErrInvalidPropagateValue       = &Error{Code: "invalid @propagate value"}
	ErrInvalidProtectedValue       = &Error{Code: "invalid @protected value"}
	ErrInvalidRemoteContext        = &Error{Code: "invalid remote context"}
	ErrInvalidReverseProperty      = &Error{Code: "invalid reverse property"}
	ErrInvalidReversePropertyMap   = &Error{Code: "invalid reverse property map"}
	ErrInvalidReversePropertyValue = &Error{Code: "invalid reverse property value"}
	ErrInvalidReverseValue         = &Error{Code: "invalid @reverse value"}
	ErrInvalidScopedContext        = &Error{Code: "invalid scoped context"}
	ErrInvalidSetOrListObject      = &Error{Code: "invalid set or list object"}
	ErrInvalidTermDefinition       = &Error{Code: "invalid term definition"}
	ErrInvalidTypeMapping          = &Error{Code: "invalid type mapping"}
	ErrInvalidTypeValue            = &Error{Code: "invalid type value"}
	ErrInvalidTypedValue           = &Error{Code: "invalid typed value"}
	ErrInvalidValueObject          = &Error{Code: "invalid value object"}
	ErrInvalidValueObjectValue     = &Error{Code: "invalid value object value"}
	ErrInvalidVersionValue         = &Error{Code: "invalid @version value"}
	ErrInvalidVocabMapping         = &Error{Code: "invalid vocab mapping"}
	ErrIRIConfusedWithPrefix       = &Error{Code: "IRI confused with prefix"}
	ErrKeywordRedefinition         = &Error{Code: "keyword redefinition"}
	ErrListOfLists                 = &Error{Code: "list of lists"}
	ErrLoadingDocument             = &Error{Code: "loading document failed"}
	ErrLoadingRemoteContext        = &Error{Code: "loading remote context failed"}
	ErrDocumentNotFound            = &Error{Code: "document not found"}
	ErrProcessingMode              = &Error{Code: "processing mode conflict"}
	ErrProtectedTermRedefinition   = &Error{Code: "protected term redefinition"}
	ErrRecursiveContextInclusion   = &Error{Code: "recursive context inclusion"}
)

// Processor-local error conditions.
var (
	// ErrInvalidProperty reports a key that expands to neither an IRI nor a
	// keyword while the expansion policy is strict.
	ErrInvalidProperty = &Error{Code: "invalid property"}

	// ErrRecursionLimitExceeded reports input nested more deeply than the
	// configured guard allows.
	ErrRecursionLimitExceeded = &Error{Code: "recursion limit exceeded"}

	// ErrPreserveUnsupported reports @preserve content, which belongs to
	// framing and is not handled by this processor.
	ErrPreserveUnsupported = &Error{Code: "@preserve not supported"}
)
