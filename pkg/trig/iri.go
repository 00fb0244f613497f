package trig

import (
	"fmt"
	"strconv"
	"strings"
)

// hasScheme reports whether iri starts with an RFC 3986 scheme
func hasScheme(iri string) bool {
	for i, c := range iri {
		switch {
		case c == ':':
			return i > 0
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && (isDigit(c) || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return false
}

// resolveIRI resolves a relative IRI against a base IRI
// This is a simplified implementation of RFC 3986 resolution
func resolveIRI(base, relative string) string {
	if relative == "" {
		return stripFragment(base)
	}

	// Fragment only (#foo) → base without fragment + new fragment
	if strings.HasPrefix(relative, "#") {
		return stripFragment(base) + relative
	}

	// Query (?foo) → base without query/fragment + relative
	if strings.HasPrefix(relative, "?") {
		if idx := strings.IndexAny(base, "?#"); idx >= 0 {
			base = base[:idx]
		}
		return base + relative
	}

	// Network-path reference (//authority/path) → scheme + relative
	if strings.HasPrefix(relative, "//") {
		schemeEnd := strings.Index(base, ":")
		if schemeEnd < 0 {
			return relative
		}
		return normalizePath(base[:schemeEnd+1] + relative)
	}

	// Absolute path (/foo) → scheme + authority + relative path
	if strings.HasPrefix(relative, "/") {
		schemeEnd := strings.Index(base, ":")
		if schemeEnd < 0 {
			return relative
		}
		if strings.HasPrefix(base[schemeEnd:], "://") {
			authorityStart := schemeEnd + 3
			if pathStart := strings.IndexAny(base[authorityStart:], "/?#"); pathStart >= 0 {
				return normalizePath(base[:authorityStart+pathStart] + relative)
			}
			return normalizePath(base + relative)
		}
		return normalizePath(base[:schemeEnd+1] + relative)
	}

	// Relative path (foo, ./foo, ../foo) → merge with the base directory
	baseWithoutQF := base
	if idx := strings.IndexAny(baseWithoutQF, "?#"); idx >= 0 {
		baseWithoutQF = baseWithoutQF[:idx]
	}

	var merged string
	schemeEnd := strings.Index(baseWithoutQF, ":")
	authorityOnly := schemeEnd >= 0 && strings.HasPrefix(baseWithoutQF[schemeEnd:], "://") &&
		!strings.Contains(baseWithoutQF[schemeEnd+3:], "/")
	if authorityOnly {
		merged = baseWithoutQF + "/" + relative
	} else if lastSlash := strings.LastIndex(baseWithoutQF, "/"); lastSlash >= 0 {
		merged = baseWithoutQF[:lastSlash+1] + relative
	} else if schemeEnd >= 0 {
		merged = baseWithoutQF[:schemeEnd+1] + relative
	} else {
		merged = relative
	}
	return normalizePath(merged)
}

func stripFragment(iri string) string {
	if idx := strings.Index(iri, "#"); idx >= 0 {
		return iri[:idx]
	}
	return iri
}

// normalizePath removes . and .. segments (RFC 3986 section 5.2.4)
func normalizePath(uri string) string {
	schemeEnd := strings.Index(uri, ":")
	if schemeEnd < 0 {
		return uri
	}

	var pathStart int
	if strings.HasPrefix(uri[schemeEnd:], "://") {
		authorityStart := schemeEnd + 3
		slashIdx := strings.IndexAny(uri[authorityStart:], "/?#")
		if slashIdx < 0 || uri[authorityStart+slashIdx] != '/' {
			return uri
		}
		pathStart = authorityStart + slashIdx
	} else {
		pathStart = schemeEnd + 1
	}

	prefix := uri[:pathStart]
	pathAndRest := uri[pathStart:]

	var path, queryAndFragment string
	if idx := strings.IndexAny(pathAndRest, "?#"); idx >= 0 {
		path = pathAndRest[:idx]
		queryAndFragment = pathAndRest[idx:]
	} else {
		path = pathAndRest
	}

	needsTrailingSlash := strings.HasSuffix(path, "/") ||
		strings.HasSuffix(path, "/.") ||
		strings.HasSuffix(path, "/..")

	var normalized []string
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case ".":
		case "..":
			// never climb above the root (the leading empty segment of an absolute path)
			if len(normalized) > 1 {
				normalized = normalized[:len(normalized)-1]
			} else if len(normalized) == 1 && normalized[0] != "" {
				normalized = normalized[:0]
			}
		default:
			normalized = append(normalized, segment)
		}
	}

	normalizedPath := strings.Join(normalized, "/")
	if needsTrailingSlash && !strings.HasSuffix(normalizedPath, "/") {
		normalizedPath += "/"
	}
	return prefix + normalizedPath + queryAndFragment
}

// decodeUnicodeEscapes replaces \uXXXX and \UXXXXXXXX sequences in an IRI body.
// Any other escape is kept verbatim; it has already been reported by the caller.
func decodeUnicodeEscapes(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil
	}
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) || (s[i+1] != 'u' && s[i+1] != 'U') {
			out.WriteByte(s[i])
			continue
		}
		digits := 4
		if s[i+1] == 'U' {
			digits = 8
		}
		if i+2+digits > len(s) {
			return s, fmt.Errorf("incomplete unicode escape sequence in IRI: %s", s[i:])
		}
		r, err := decodeCodePoint(s[i+2 : i+2+digits])
		if err != nil {
			return s, err
		}
		out.WriteRune(r)
		i += 1 + digits
	}
	return out.String(), nil
}

// decodeCodePoint turns the hex digits of a \u or \U escape into a code point
func decodeCodePoint(hexStr string) (rune, error) {
	codePoint, err := strconv.ParseInt(hexStr, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex digits in unicode escape: %s", hexStr)
	}
	// Surrogates are invalid in UTF-8 strings
	if codePoint >= 0xD800 && codePoint <= 0xDFFF {
		return 0, fmt.Errorf("invalid unicode escape: surrogate code point U+%04X not allowed", codePoint)
	}
	if codePoint > 0x10FFFF {
		return 0, fmt.Errorf("invalid unicode escape: code point U+%X exceeds maximum U+10FFFF", codePoint)
	}
	return rune(codePoint), nil
}
