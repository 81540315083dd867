package postgres

import (
	"strconv"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern builds an ILIKE pattern matching s anywhere.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}

// PrefixPattern builds an ILIKE pattern matching s at the start.
func PrefixPattern(s string) string {
	return EscapeLike(s) + "%"
}

// VectorLiteral renders a pgvector text literal, e.g. "[0.1,0.2]".
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
