package reactive

import "strings"

// Path is a parsed dot-path expression such as "user.address.city".
// Paths handed out by a System are shared and must not be modified.
type Path []string

func (p Path) String() string {
	return strings.Join(p, ".")
}

// ParsePath splits expr into identifier segments. Surrounding whitespace is
// ignored; empty segments and non-identifier characters are rejected.
func ParsePath(expr string) (Path, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, &PathError{Expr: expr, Index: -1, Err: ErrInvalidPath}
	}
	segments := strings.Split(trimmed, ".")
	for i, seg := range segments {
		if !isIdent(seg) {
			return nil, &PathError{Expr: expr, Segment: seg, Index: i, Err: ErrInvalidPath}
		}
	}
	return Path(segments), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '$':
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Source is anything a path can be walked through.
type Source interface {
	Lookup(key string) (any, bool)
}

// Resolve walks path from root. A missing final key yields nil. Walking
// into a missing or non-object value fails with ErrBrokenPath.
func Resolve(root any, path Path) (any, error) {
	cur := root
	for i, seg := range path {
		src, ok := cur.(Source)
		if !ok || isNilObject(cur) {
			return nil, &PathError{Expr: path.String(), Segment: seg, Index: i, Err: ErrBrokenPath}
		}
		cur, _ = src.Lookup(seg)
	}
	return cur, nil
}

func isNilObject(v any) bool {
	o, ok := v.(*Object)
	return ok && o == nil
}

// Eval parses expr through the path cache and resolves it from root. Reads
// are tracked when an observer is active.
func (rs *System) Eval(root Source, expr string) (any, error) {
	path, err := rs.parsePath(expr)
	if err != nil {
		return nil, err
	}
	return Resolve(root, path)
}
