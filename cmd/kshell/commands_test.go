package main

import (
	"strings"
	"testing"

	"github.com/cynic01/Operating-System-Project/src/defs"
)

func TestErrName(t *testing.T) {
	if got := errName(defs.ENOENT); got != "-6" {
		t.Errorf("errName(ENOENT) = %q, want %q", got, "-6")
	}
}

func TestCreateTableListOutputEmpty(t *testing.T) {
	sessMu.Lock()
	sess = map[defs.Pid_t]*sessionEntry{}
	sessMu.Unlock()

	out := string(createTableListOutput())
	if !strings.Contains(out, "PID") {
		t.Errorf("table output missing header: %q", out)
	}
}
