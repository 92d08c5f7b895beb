// Package caller provides small call-stack debugging helpers for use
// in panic recovery paths.
package caller

import (
	"fmt"
	"runtime"
)

// Dump formats the call stack starting at the given skip depth, one
// frame per line, deepest first.
func Dump(skip int) string {
	i := skip
	s := ""
	for {
		_, f, l, ok := runtime.Caller(i)
		if !ok {
			break
		}
		i++
		if s == "" {
			s = fmt.Sprintf("%s:%d\n", f, l)
		} else {
			s += fmt.Sprintf("\t<-%s:%d\n", f, l)
		}
	}
	return s
}
