package location

import (
	"path"
	"strings"
)

// Prefix is the scheme and host every recognized location carries.
const Prefix = "file://localhost/"

// IsLocation reports whether value is a location URL the relocator can rewrite.
func IsLocation(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Decode returns the bare filename referenced by a location URL.
//
// Values without the recognized prefix are treated as plain paths. Each valid
// %XX escape is decoded on its own; a malformed one is kept as written, so
// any non-empty input yields a final segment.
func Decode(value string) string {
	decoded := Unescape(strings.TrimPrefix(value, Prefix))
	decoded = strings.TrimRight(decoded, `/\`)
	if idx := strings.LastIndexAny(decoded, `/\`); idx >= 0 {
		return decoded[idx+1:]
	}
	return decoded
}

// Encode builds the location URL for filename stored directly under root.
func Encode(root, filename string) string {
	root = strings.ReplaceAll(root, `\`, "/")
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	joined := path.Join(root, filename)
	return Prefix + Escape(strings.TrimPrefix(joined, "/"))
}

// Unescape decodes every %XX sequence with two hex digits and copies all other
// bytes, including stray '%' characters, unchanged. '+' is not a space.
func Unescape(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b = append(b, hi<<4|lo)
				i += 2
				continue
			}
		}
		b = append(b, s[i])
	}
	return string(b)
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes every byte of p except unreserved characters and '/'.
func Escape(p string) string {
	n := 0
	for i := 0; i < len(p); i++ {
		if !keep(p[i]) {
			n++
		}
	}
	if n == 0 {
		return p
	}

	var b strings.Builder
	b.Grow(len(p) + 2*n)
	for i := 0; i < len(p); i++ {
		c := p[i]
		if keep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '~', '/':
		return true
	}
	return false
}
