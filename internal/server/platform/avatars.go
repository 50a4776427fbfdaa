package platform

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"html"
	"net/url"
	"strings"
	"unicode"
)

// Avatars generates initials avatars served by the drive itself.
type Avatars struct {
	Endpoint string
}

// Initials returns the URL of an initials avatar for name.
func (a Avatars) Initials(name string) string {
	return strings.TrimRight(a.Endpoint, "/") + "/avatars/initials?name=" + url.QueryEscape(name)
}

var avatarPalette = []string{"#FA7275", "#56B8FF", "#3DD9B3", "#EEA8FD", "#F9AB72", "#7C8BA1"}

// InitialsOf returns up to two upper-case initials of name.
func InitialsOf(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToUpper(r))
		}
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// RenderInitials draws a size x size SVG with the initials of name on a
// background picked deterministically from the name.
func RenderInitials(name string, size int) []byte {
	if size <= 0 {
		size = 100
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	bg := avatarPalette[h.Sum32()%uint32(len(avatarPalette))]

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, size, size, size, size)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="%s"/>`, bg)
	fmt.Fprintf(&b, `<text x="50%%" y="50%%" dy=".35em" text-anchor="middle" font-family="Helvetica, Arial, sans-serif" font-size="%d" fill="#FFFFFF">%s</text>`,
		size*2/5, html.EscapeString(InitialsOf(name)))
	b.WriteString(`</svg>`)
	return b.Bytes()
}
