package jsonld

// JSON-LD keywords.
const (
	KeywordAny       = "@any"
	KeywordBase      = "@base"
	KeywordContainer = "@container"
	KeywordContext   = "@context"
	KeywordDefault   = "@default"
	KeywordDirection = "@direction"
	KeywordGraph     = "@graph"
	KeywordID        = "@id"
	KeywordImport    = "@import"
	KeywordIncluded  = "@included"
	KeywordIndex     = "@index"
	KeywordJSON      = "@json"
	KeywordLanguage  = "@language"
	KeywordList      = "@list"
	KeywordNest      = "@nest"
	KeywordNone      = "@none"
	KeywordNull      = "@null"
	KeywordPrefix    = "@prefix"
	KeywordPreserve  = "@preserve"
	KeywordPropagate = "@propagate"
	KeywordProtected = "@protected"
	KeywordReverse   = "@reverse"
	KeywordSet       = "@set"
	KeywordType      = "@type"
	KeywordValue     = "@value"
	KeywordVersion   = "@version"
	KeywordVocab     = "@vocab"
)

// keywords is the registry of reserved keys. The value records whether the
// keyword may appear inside a value object.
var keywords = map[string]struct{ inValueObject bool }{
	KeywordBase:      {},
	KeywordContainer: {},
	KeywordContext:   {},
	KeywordDefault:   {},
	KeywordDirection: {inValueObject: true},
	KeywordGraph:     {},
	KeywordID:        {},
	KeywordImport:    {},
	KeywordIncluded:  {},
	KeywordIndex:     {inValueObject: true},
	KeywordJSON:      {},
	KeywordLanguage:  {inValueObject: true},
	KeywordList:      {},
	KeywordNest:      {},
	KeywordNone:      {},
	KeywordPrefix:    {},
	KeywordPreserve:  {},
	KeywordPropagate: {},
	KeywordProtected: {},
	KeywordReverse:   {},
	KeywordSet:       {},
	KeywordType:      {inValueObject: true},
	KeywordValue:     {inValueObject: true},
	KeywordVersion:   {},
	KeywordVocab:     {},
}

// isKeyword returns if the string is a reserved JSON-LD keyword.
//
// KeywordAny and KeywordNull are processor-internal markers, not keywords,
// and deliberately absent from the registry.
func isKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

// allowedInValueObject returns if the keyword may be an entry of a value
// object alongside KeywordValue.
func allowedInValueObject(keyword string) bool {
	k, ok := keywords[keyword]
	return ok && k.inValueObject
}

// looksLikeKeyword determines if a string has the shape of a JSON-LD
// keyword without being one: "@" followed by one or more ASCII letters.
//
// Such keys are reserved for future revisions and are ignored with a
// warning rather than treated as terms.
func looksLikeKeyword(s string) bool {
	if len(s) < 2 || s[0] != '@' {
		return false
	}

	for _, char := range s[1:] {
		if (char < 'a' || char > 'z') &&
			(char < 'A' || char > 'Z') {
			return false
		}
	}

	return true
}
