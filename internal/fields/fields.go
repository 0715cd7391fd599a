// Package fields expands compact field specifiers into attribute paths and
// aliases them into DynamoDB projection expressions.
package fields

import (
	"fmt"
	"strings"
	"unicode"
)

// AliasPrefix is prepended to every generated attribute name alias.
const AliasPrefix = "#F"

// Split expands a compact field specifier into an ordered list of attribute paths.
//
// Nested fields are written with parentheses and expand to dotted paths:
//
//	Split("id,name,address(street,city)")
//	// []string{"id", "name", "address.street", "address.city"}
//
// Whitespace is ignored and duplicate paths are dropped, keeping the first
// occurrence. An empty specifier returns nil, meaning "all fields".
func Split(spec string) []string {
	spec = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, spec)
	if spec == "" {
		return nil
	}

	p := &parser{src: spec}
	var paths []string
	for p.pos < len(p.src) {
		paths = append(paths, p.list("")...)
		// Stray closing parenthesis at the top level.
		if p.pos < len(p.src) && p.src[p.pos] == ')' {
			p.pos++
		}
	}
	return dedupe(paths)
}

type parser struct {
	src string
	pos int
}

// list parses a comma separated group until a closing parenthesis or the end of input.
func (p *parser) list(prefix string) []string {
	var paths []string
	for p.pos < len(p.src) {
		name := p.name()
		if p.pos < len(p.src) && p.src[p.pos] == '(' {
			p.pos++
			children := p.list(prefix + name + ".")
			if p.pos < len(p.src) && p.src[p.pos] == ')' {
				p.pos++
			}
			if name != "" {
				paths = append(paths, children...)
			}
		} else if name != "" {
			paths = append(paths, prefix+name)
		}

		if p.pos >= len(p.src) {
			break
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			return paths
		}
	}
	return paths
}

func (p *parser) name() string {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(",()", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func dedupe(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	return out
}

// Alias maps every segment of the given attribute paths to an opaque alias so
// that reserved words can be projected. Aliases are assigned in first-seen order
// ("#F0", "#F1", ...) and the returned names map alias to attribute name.
//
// An empty path list returns an empty projection and a nil map.
func Alias(paths []string) (string, map[string]string) {
	if len(paths) == 0 {
		return "", nil
	}

	aliases := make(map[string]string)
	names := make(map[string]string)
	projected := make([]string, 0, len(paths))

	for _, path := range paths {
		segments := strings.Split(path, ".")
		for i, segment := range segments {
			alias, ok := aliases[segment]
			if !ok {
				alias = fmt.Sprintf("%s%d", AliasPrefix, len(aliases))
				aliases[segment] = alias
				names[alias] = segment
			}
			segments[i] = alias
		}
		projected = append(projected, strings.Join(segments, "."))
	}

	return strings.Join(projected, ", "), names
}
