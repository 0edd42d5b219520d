package core

import (
	"strconv"
	"strings"
)

// Token is one decoded segment of a JSON Pointer (RFC 6901) path.
type Token struct {
	Key     string
	Index   int
	IsIndex bool
	Append  bool // the "-" segment, meaning "past the last element"
}

// ParsePointer decodes a JSON Pointer into its segments. The empty path and
// the bare "/" both decode to no segments (the document root).
func ParsePointer(path string) []Token {
	if path == "" || path == "/" {
		return nil
	}

	raw := strings.Split(strings.TrimPrefix(path, "/"), "/")
	tokens := make([]Token, len(raw))
	for i, seg := range raw {
		seg = UnescapeToken(seg)
		if seg == "-" {
			tokens[i] = Token{Key: seg, Append: true}
			continue
		}
		if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 {
			tokens[i] = Token{Key: seg, Index: idx, IsIndex: true}
			continue
		}
		tokens[i] = Token{Key: seg}
	}
	return tokens
}

// EscapeToken applies RFC 6901 escaping to a single path segment.
func EscapeToken(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	key = strings.ReplaceAll(key, "/", "~1")
	return key
}

// UnescapeToken reverses EscapeToken.
func UnescapeToken(key string) string {
	key = strings.ReplaceAll(key, "~1", "/")
	key = strings.ReplaceAll(key, "~0", "~")
	return key
}

// JoinPointer joins a base pointer and an already-escaped segment with a
// single slash, trimming redundant slashes.
func JoinPointer(base, token string) string {
	base = strings.TrimSuffix(base, "/")
	token = strings.TrimPrefix(token, "/")
	return base + "/" + token
}

// JoinIndex joins a base pointer and a list index.
func JoinIndex(base string, i int) string {
	return JoinPointer(base, strconv.Itoa(i))
}
