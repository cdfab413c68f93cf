package reactive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid path expression")
	ErrBrokenPath  = errors.New("broken path")
)

// PathError reports the segment at which a dot path could not be parsed or
// walked. Index is -1 when the expression as a whole is at fault.
type PathError struct {
	Expr    string
	Segment string
	Index   int
	Err     error
}

func (e *PathError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "path %q", e.Expr)
	if e.Index >= 0 {
		fmt.Fprintf(&sb, " at segment %d (%q)", e.Index, e.Segment)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *PathError) Unwrap() error {
	return e.Err
}
