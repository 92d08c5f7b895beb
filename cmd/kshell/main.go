// Command kshell is a debug shell for the process and thread
// subsystem: exec loads a real ELF binary and hands it to a small
// built-in demo program standing in for the compiled binary's own
// code, and wait, pt-create, pt-join, ps and inspect drive and observe
// it exactly the way a parent process or a debugger would.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cynic01/Operating-System-Project/src/fs"
	"github.com/cynic01/Operating-System-Project/src/mem"
	"github.com/spf13/cobra"
)

func main() {
	root := flag.String("root", ".", "directory rooting the simulated filesystem exec loads binaries from")
	flag.Parse()

	fsys = fs.NewHostFs(*root)
	alloc = mem.NewPool()

	cmd := setupCommands()

	args := flag.Args()
	if len(args) == 0 {
		runRepl(cmd)
		return
	}
	runLine(cmd, args, true)
}

// runRepl is kshell's primary mode: a process and its threads live
// only as long as this one session, so exec, pt-create, wait and
// friends must all run inside a single long-lived invocation.
func runRepl(cmd *cobra.Command) {
	fmt.Println("kshell - process/thread debug shell. type 'help' or 'quit'.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("kshell> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		runLine(cmd, strings.Fields(line), false)
	}
}

func runLine(cmd *cobra.Command, tokens []string, exitOnFail bool) {
	defer func() {
		if r := recover(); r != nil && exitOnFail {
			os.Exit(1)
		}
	}()
	cmd.SetArgs(tokens)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitOnFail {
			os.Exit(1)
		}
	}
}
