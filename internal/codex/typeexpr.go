// ABOUTME: Resolves type expressions like "[]Role" or "map[int]Role" to codices
// ABOUTME: Composite parts are built on demand through the registry's memoized builders

package codex

import (
	"fmt"
	"strings"
)

// ParseTypeExpr resolves expr against reg. Besides plain registered names it
// accepts "[]T" for lists and "map[K]V" for mappings, nested to any depth.
func ParseTypeExpr(reg *Registry, expr string) (Codex, error) {
	expr = strings.TrimSpace(expr)

	switch {
	case expr == "":
		return nil, fmt.Errorf("%w: empty type expression", ErrUnknownType)

	case strings.HasPrefix(expr, "[]"):
		elem, err := ParseTypeExpr(reg, expr[2:])
		if err != nil {
			return nil, err
		}
		return reg.List(elem.TypeName())

	case strings.HasPrefix(expr, "map["):
		keyExpr, valueExpr, err := splitMapExpr(expr)
		if err != nil {
			return nil, err
		}
		k, err := ParseTypeExpr(reg, keyExpr)
		if err != nil {
			return nil, err
		}
		v, err := ParseTypeExpr(reg, valueExpr)
		if err != nil {
			return nil, err
		}
		return reg.Mapping(k.TypeName(), v.TypeName())
	}

	return reg.Lookup(expr)
}

// splitMapExpr splits "map[K]V" at the bracket matching "map[".
func splitMapExpr(expr string) (string, string, error) {
	depth := 0
	for i := len("map"); i < len(expr); i++ {
		switch expr[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				key := expr[len("map["):i]
				value := expr[i+1:]
				if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
					return "", "", fmt.Errorf("%w: incomplete map type %q", ErrUnknownType, expr)
				}
				return key, value, nil
			}
		}
	}
	return "", "", fmt.Errorf("%w: unbalanced brackets in %q", ErrUnknownType, expr)
}
