// Package iri implements the IRI manipulation the processor needs: absolute
// and relative reference classification, reference resolution against a base,
// and relativization of an absolute IRI for compaction output.
package iri

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// IsAbsolute reports whether s is an absolute IRI with valid percent
// escaping.
func IsAbsolute(s string) bool {
	u, err := url.Parse(s)
	return err == nil &&
		u.IsAbs() &&
		(u.RawPath == "" || u.RawPath == u.EscapedPath()) &&
		(u.RawFragment == "" || u.RawFragment == u.EscapedFragment())
}

// IsWellFormed reports whether s parses as an absolute IRI that survives
// reserialization unchanged. Used to validate @base and remote context
// references, where a lossy parse means a malformed IRI.
func IsWellFormed(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	ns := u.String()
	if strings.HasSuffix(s, "#") {
		// url.String drops an empty fragment, keep it for comparison
		ns += "#"
	}

	return u.IsAbs() && s == ns
}

// IsRelative reports whether s parses as a relative reference.
func IsRelative(s string) bool {
	u, err := url.Parse(s)
	return err == nil && !u.IsAbs()
}

// HasGenDelimSuffix reports whether s ends in an RFC 3987 gen-delim
// character. Terms whose IRI ends in one are usable as prefixes.
func HasGenDelimSuffix(s string) bool {
	if s == "" {
		return false
	}
	return strings.ContainsAny(s[len(s)-1:], ":/?#[]@")
}

// Resolve resolves the reference ref against base per RFC 3986.
func Resolve(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	return b.ResolveReference(r).String(), nil
}

// Relative rewrites the absolute IRI abs as a reference relative to base.
//
// It fails when base and abs differ in scheme or authority, since no
// relative reference can bridge that.
func Relative(base, abs string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base IRI: %w", err)
	}

	absURL, err := url.Parse(abs)
	if err != nil {
		return "", fmt.Errorf("parsing IRI: %w", err)
	}

	if baseURL.Scheme != absURL.Scheme || baseURL.Host != absURL.Host {
		return "", fmt.Errorf("no relative form across scheme or authority")
	}

	basePath := baseURL.EscapedPath()
	absPath := absURL.EscapedPath()
	if basePath == absPath && (absURL.Fragment != "" || absURL.RawQuery != "") {
		return (&url.URL{
			RawQuery: absURL.RawQuery,
			Fragment: absURL.Fragment,
		}).String(), nil
	}

	last := strings.LastIndex(basePath, "/")
	baseParts := strings.Split(basePath[:last+1], "/")
	absParts := strings.Split(absPath, "/")

	shared := 0
	for i, elem := range baseParts[:min(len(baseParts), len(absParts))] {
		if elem != absParts[i] {
			break
		}
		shared++
	}

	segments := make([]string, 0, len(baseParts)-shared)
	for range baseParts[shared+1:] {
		segments = append(segments, "..")
	}
	segments = append(segments, absParts[shared:]...)

	rel := (&url.URL{
		Path:     path.Join(segments...),
		RawQuery: absURL.RawQuery,
		Fragment: absURL.Fragment,
	}).String()

	if strings.HasSuffix(rel, "..") {
		rel += "/"
	}

	return rel, nil
}
