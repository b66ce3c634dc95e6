package engine

import "strings"

// preprocessSource rewrites script source into something zygomys accepts:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols that could clash with user variables.
//
//  2. bond-style becomes bond_style. zygomys reads a hyphen inside an
//     identifier as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are copied through untouched.
func preprocessSource(source string) string {
	sc := scanner{src: source}
	sc.out.Grow(len(source) + len(source)/4)
	for sc.pos < len(sc.src) {
		c := sc.src[sc.pos]
		switch {
		case c == '"':
			sc.quoted('"', true)
		case c == '`':
			sc.quoted('`', false)
		case c == ';':
			sc.comment()
		case c == ':' && sc.peek(1) == '=':
			sc.copy(2)
		case c == ':' && isLetter(sc.peek(1)):
			sc.keyword()
		case c == '-' && sc.pos > 0 && isIdentChar(sc.src[sc.pos-1]) && isLetter(sc.peek(1)):
			// A hyphen after a space or paren is a minus sign and stays.
			sc.out.WriteByte('_')
			sc.pos++
		default:
			sc.copy(1)
		}
	}
	return sc.out.String()
}

type scanner struct {
	src string
	pos int
	out strings.Builder
}

// peek returns the byte n past the cursor, or 0 past the end.
func (sc *scanner) peek(n int) byte {
	if sc.pos+n < len(sc.src) {
		return sc.src[sc.pos+n]
	}
	return 0
}

func (sc *scanner) copy(n int) {
	end := min(sc.pos+n, len(sc.src))
	sc.out.WriteString(sc.src[sc.pos:end])
	sc.pos = end
}

// quoted copies a literal delimited by q, including an unterminated one.
func (sc *scanner) quoted(q byte, escapes bool) {
	start := sc.pos
	sc.pos++
	for sc.pos < len(sc.src) && sc.src[sc.pos] != q {
		if escapes && sc.src[sc.pos] == '\\' {
			sc.pos++
		}
		sc.pos++
	}
	sc.pos = min(sc.pos+1, len(sc.src))
	sc.out.WriteString(sc.src[start:sc.pos])
}

func (sc *scanner) comment() {
	for sc.pos < len(sc.src) && sc.src[sc.pos] == ';' {
		sc.pos++
	}
	end := strings.IndexByte(sc.src[sc.pos:], '\n')
	if end < 0 {
		end = len(sc.src) - sc.pos
	}
	sc.out.WriteString("//")
	sc.out.WriteString(sc.src[sc.pos : sc.pos+end])
	sc.pos += end
}

func (sc *scanner) keyword() {
	end := sc.pos + 1
	for end < len(sc.src) && isKWChar(sc.src[end]) {
		end++
	}
	sc.out.WriteByte('"')
	sc.out.WriteString(kwPrefix)
	sc.out.WriteString(sc.src[sc.pos+1 : end])
	sc.out.WriteByte('"')
	sc.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
