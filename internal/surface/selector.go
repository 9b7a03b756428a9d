package surface

import (
	"fmt"
	"strings"
)

// Selector is a comma separated list of compound selectors. Supported simple
// selectors are tag, "*", "#id", ".class" and attribute tests with the
// operators "=", "~=", "^=", "$=" and "*=". Combinators are not supported.
type Selector struct {
	src    string
	groups []compound
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrTest
}

type attrTest struct {
	name  string
	op    string
	value string
}

// Compile parses a selector list.
func Compile(src string) (Selector, error) {
	sel := Selector{src: strings.TrimSpace(src)}
	if sel.src == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}
	for _, part := range splitTopLevel(sel.src) {
		c, err := parseCompound(strings.TrimSpace(part))
		if err != nil {
			return Selector{}, fmt.Errorf("selector %q: %w", src, err)
		}
		sel.groups = append(sel.groups, c)
	}
	return sel, nil
}

// MustCompile is Compile that panics on error. Meant for package-level patterns.
func MustCompile(src string) Selector {
	sel, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return sel
}

// CompileAll compiles each pattern and joins them into one selector list.
func CompileAll(patterns ...string) (Selector, error) {
	var out Selector
	var srcs []string
	for _, p := range patterns {
		sel, err := Compile(p)
		if err != nil {
			return Selector{}, err
		}
		out.groups = append(out.groups, sel.groups...)
		srcs = append(srcs, sel.src)
	}
	if len(out.groups) == 0 {
		return Selector{}, fmt.Errorf("empty selector")
	}
	out.src = strings.Join(srcs, ", ")
	return out, nil
}

func (s Selector) String() string { return s.src }

// Empty reports whether the selector matches nothing.
func (s Selector) Empty() bool { return len(s.groups) == 0 }

// Match reports whether el matches any group of the list.
func (s Selector) Match(el *Element) bool {
	if el == nil {
		return false
	}
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return s.matchLocked(el)
}

func (s Selector) matchLocked(el *Element) bool {
	for _, g := range s.groups {
		if g.matchLocked(el) {
			return true
		}
	}
	return false
}

func (c compound) matchLocked(el *Element) bool {
	if c.tag != "" && c.tag != el.tag {
		return false
	}
	if c.id != "" && c.id != el.id {
		return false
	}
	for _, cls := range c.classes {
		if !el.hasClassLocked(cls) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := el.attributeLocked(a.name)
		if !ok {
			return false
		}
		if !a.test(v) {
			return false
		}
	}
	return true
}

func (a attrTest) test(v string) bool {
	switch a.op {
	case "":
		return true
	case "=":
		return v == a.value
	case "~=":
		for _, f := range strings.Fields(v) {
			if f == a.value {
				return true
			}
		}
		return false
	case "^=":
		return a.value != "" && strings.HasPrefix(v, a.value)
	case "$=":
		return a.value != "" && strings.HasSuffix(v, a.value)
	case "*=":
		return a.value != "" && strings.Contains(v, a.value)
	}
	return false
}

func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '[':
			depth++
		case ch == ']':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func parseCompound(s string) (compound, error) {
	var c compound
	if s == "" {
		return c, fmt.Errorf("empty compound selector")
	}
	i := 0
	if s[0] == '*' {
		i++
	} else if isIdentChar(s[0]) {
		name, n := readIdent(s[i:])
		c.tag = strings.ToLower(name)
		i += n
	}
	for i < len(s) {
		switch s[i] {
		case '#':
			name, n := readIdent(s[i+1:])
			if n == 0 {
				return c, fmt.Errorf("missing id after '#'")
			}
			c.id = name
			i += n + 1
		case '.':
			name, n := readIdent(s[i+1:])
			if n == 0 {
				return c, fmt.Errorf("missing class after '.'")
			}
			c.classes = append(c.classes, name)
			i += n + 1
		case '[':
			end := closingBracket(s, i)
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute selector")
			}
			a, err := parseAttr(s[i+1 : end])
			if err != nil {
				return c, err
			}
			c.attrs = append(c.attrs, a)
			i = end + 1
		case ' ', '>', '+', '~', '\t':
			return c, fmt.Errorf("combinators are not supported")
		default:
			return c, fmt.Errorf("unexpected %q", s[i])
		}
	}
	return c, nil
}

func closingBracket(s string, open int) int {
	var quote byte
	for i := open + 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ']':
			return i
		}
	}
	return -1
}

func parseAttr(body string) (attrTest, error) {
	body = strings.TrimSpace(body)
	for _, op := range []string{"~=", "^=", "$=", "*=", "="} {
		if idx := strings.Index(body, op); idx >= 0 {
			name := strings.TrimSpace(body[:idx])
			if name == "" {
				return attrTest{}, fmt.Errorf("missing attribute name")
			}
			value := strings.TrimSpace(body[idx+len(op):])
			value = strings.Trim(value, `"'`)
			return attrTest{name: strings.ToLower(name), op: op, value: value}, nil
		}
	}
	if body == "" {
		return attrTest{}, fmt.Errorf("missing attribute name")
	}
	return attrTest{name: strings.ToLower(body)}, nil
}

func readIdent(s string) (string, int) {
	n := 0
	for n < len(s) && isIdentChar(s[n]) {
		n++
	}
	return s[:n], n
}

func isIdentChar(ch byte) bool {
	return ch == '-' || ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}
