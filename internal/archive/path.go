package archive

import "strings"

// normalizePath applies the dialect's path normalization before it is
// split into tokens and searched against the string trees. T5/T6 leave
// the path untouched; T7's on-disk name table is keyed by uppercased
// ASCII with leading whitespace (not '/') trimmed off first. Leading or
// repeated '/' separators need no special handling here: splitPathTokens
// discards empty tokens regardless of dialect.
func normalizePath(d Dialect, path string) string {
	if d != T7 {
		return path
	}
	return asciiUpper(strings.TrimLeft(path, " \t\n\v\f\r"))
}

// asciiUpper uppercases only ASCII letters, matching the on-disk table's
// byte-level key encoding — Unicode case folding would diverge from it.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// splitPathTokens splits a normalized path on '/', discarding empty
// tokens so repeated or trailing separators are tolerated.
func splitPathTokens(path string) []string {
	parts := strings.Split(path, "/")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// splitNameExt splits a single path token at its last '.', so the
// extension (when present) includes the leading dot.
func splitNameExt(token string) (name, ext string) {
	idx := strings.LastIndexByte(token, '.')
	if idx < 0 {
		return token, ""
	}
	return token[:idx], token[idx:]
}
