package toml

import (
	"fmt"
	"strconv"
	"strings"
)

// pathType classifies what kind of value a document path holds. The
// classification drives every conflict rule: which paths a header may
// traverse, which a dotted key may extend, and which are closed for
// good.
type pathType int

const (
	typeTable pathType = iota
	typeArrayTable
	typeInline
	typeArray
	typeScalar
)

func (t pathType) String() string {
	switch t {
	case typeTable:
		return "table"
	case typeArrayTable:
		return "array of tables"
	case typeInline:
		return "inline table"
	case typeArray:
		return "array"
	default:
		return "value"
	}
}

// childKey derives the registry key for a child of parent. Key parts
// are quoted so that a literal dot inside a key cannot collide with the
// separator.
func childKey(parent, key string) string {
	q := strconv.Quote(key)
	if parent == "" {
		return q
	}
	return parent + "." + q
}

// elemKey derives the registry key for one element of an array of
// tables. The unquoted "#" marker cannot clash with any quoted key.
func elemKey(parent string, idx int) string {
	return fmt.Sprintf("%s.#%d", parent, idx)
}

func isBareKeyString(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBareKeyChar(s[i]) {
			return false
		}
	}
	return true
}

// dottedPath renders a key sequence for error messages, quoting any
// part that is not a bare key.
func dottedPath(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		if isBareKeyString(k) {
			parts[i] = k
		} else {
			parts[i] = strconv.Quote(k)
		}
	}
	return strings.Join(parts, ".")
}

// resolveHeader applies a [table] or [[array.of.tables]] header: it
// walks the key path from the root, materializing implicit tables along
// the way, and repoints the active table.
//
// Intermediate tables created here stay implicit so a later header may
// still define them. Walking through an existing array of tables always
// descends into its most recent element.
func (p *parser) resolveHeader(keys []string, isArray bool) error {
	cur := p.root
	reg := ""
	for _, k := range keys[:len(keys)-1] {
		reg = childKey(reg, k)
		if v, ok := cur[k]; ok {
			switch p.pathTypes[reg] {
			case typeTable:
				cur = v.(map[string]any)
			case typeArrayTable:
				arr := v.([]any)
				reg = elemKey(reg, len(arr)-1)
				cur = arr[len(arr)-1].(map[string]any)
			default:
				return p.errorf("cannot open %s: %q is already a %s", dottedPath(keys), k, p.pathTypes[reg])
			}
		} else {
			m := make(map[string]any)
			cur[k] = m
			p.pathTypes[reg] = typeTable
			p.fromHeader[reg] = true
			cur = m
		}
	}

	last := keys[len(keys)-1]
	reg = childKey(reg, last)

	if isArray {
		if v, ok := cur[last]; ok {
			if p.pathTypes[reg] != typeArrayTable {
				return p.errorf("cannot append to %s: it is already a %s", dottedPath(keys), p.pathTypes[reg])
			}
			arr := v.([]any)
			elem := make(map[string]any)
			cur[last] = append(arr, elem)
			p.current = elem
			p.currentKey = elemKey(reg, len(arr))
		} else {
			elem := make(map[string]any)
			cur[last] = []any{elem}
			p.pathTypes[reg] = typeArrayTable
			p.explicit[reg] = true
			p.fromHeader[reg] = true
			p.current = elem
			p.currentKey = elemKey(reg, 0)
		}
		p.pathTypes[p.currentKey] = typeTable
		p.explicit[p.currentKey] = true
		p.fromHeader[p.currentKey] = true
		return nil
	}

	if v, ok := cur[last]; ok {
		if p.pathTypes[reg] != typeTable {
			return p.errorf("cannot redefine %s: it is already a %s", dottedPath(keys), p.pathTypes[reg])
		}
		if p.explicit[reg] {
			return p.errorf("table %s already defined", dottedPath(keys))
		}
		// Claim a table that existed only implicitly.
		p.current = v.(map[string]any)
	} else {
		m := make(map[string]any)
		cur[last] = m
		p.pathTypes[reg] = typeTable
		p.current = m
	}
	p.explicit[reg] = true
	p.fromHeader[reg] = true
	p.currentKey = reg
	return nil
}

// resolveAssignment writes one key/value statement into the active
// table, materializing tables for dotted-key intermediates. A dotted
// key may extend tables it created itself, but never a table that some
// header defined, and never a closed inline table.
func (p *parser) resolveAssignment(keys []string, val any, vt pathType) error {
	cur := p.current
	reg := p.currentKey
	for _, k := range keys[:len(keys)-1] {
		reg = childKey(reg, k)
		if v, ok := cur[k]; ok {
			switch p.pathTypes[reg] {
			case typeTable:
				if p.fromHeader[reg] {
					return p.errorf("cannot extend table %q: it is defined elsewhere by a header", k)
				}
				cur = v.(map[string]any)
			case typeInline:
				return p.errorf("cannot extend inline table %q: inline tables are closed once parsed", k)
			default:
				return p.errorf("cannot use %q as a table: it is already a %s", k, p.pathTypes[reg])
			}
		} else {
			m := make(map[string]any)
			cur[k] = m
			p.pathTypes[reg] = typeTable
			p.explicit[reg] = true
			cur = m
		}
	}

	last := keys[len(keys)-1]
	reg = childKey(reg, last)
	if _, ok := cur[last]; ok {
		return p.errorf("key %s already defined", dottedPath(keys))
	}
	cur[last] = val
	p.pathTypes[reg] = vt
	p.explicit[reg] = true
	return nil
}
