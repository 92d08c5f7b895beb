package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/proc"
	"github.com/cynic01/Operating-System-Project/src/syscall"
	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	pidFlag  = "pid"
	tidFlag  = "tid"
	progFlag = "prog"
	nFlag    = "n"
)

var kshellCmd = &cobra.Command{
	Use:   "kshell",
	Short: "A debug shell for driving the process and thread subsystem directly.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// execCmd plays the role of a shell fork+exec: it loads cmdline's
// first token as an ELF binary and hands control to one of kshell's
// built-in demo programs, standing in for the compiled binary itself
// (see proc.UserMain).
var execCmd = &cobra.Command{
	Use:   "exec <path> [args...]",
	Short: "Load and run a binary, printing its pid.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			cmd.Help()
			return
		}
		prog, _ := cmd.Flags().GetString(progFlag)
		n, _ := cmd.Flags().GetInt(nFlag)
		cmdline := args[0]
		for _, a := range args[1:] {
			cmdline += " " + a
		}

		done := make(chan struct{})
		entry := func(ctx context.Context, argv []string) {
			p, _ := proc.CurProc.From(ctx)
			register(p.Pid, p, ctx, done)
			runDemoProgram(ctx, prog, n)
			if prog == demoInteractive {
				<-done
			}
		}

		pid, err := proc.Execute(shellCtx, cmdline, fsys, alloc, os.Stdout, entry)
		if err != 0 {
			outputErrorAndFail(fmt.Sprintf("exec failed: %s", errName(err)))
		}
		output(fmt.Sprintf("pid %d\n", pid))
	},
}

// demoInteractive is the one built-in program that blocks until
// finishCmd signals it, so pt-create/pt-join have a live process to
// act on.
const demoInteractive = "interactive"

func runDemoProgram(ctx context.Context, prog string, n int) {
	p, _ := proc.CurProc.From(ctx)
	switch prog {
	case "compute-e":
		fmt.Fprintf(p.Stdout, "compute_e(%d) = %d\n", n, syscall.ComputeE(n))
	case "practice":
		fmt.Fprintf(p.Stdout, "practice(%d) = %d\n", n, syscall.Practice(n))
	case demoInteractive:
		fmt.Fprintf(p.Stdout, "%s: running, waiting for finish\n", p.Name)
	default:
		fmt.Fprintf(p.Stdout, "%s: unknown demo program %q\n", p.Name, prog)
	}
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the process named by --pid exits, printing its exit code.",
	Run: func(cmd *cobra.Command, args []string) {
		pid, ok := requirePid(cmd)
		if !ok {
			return
		}
		code := proc.Wait(shellCtx, defs.Pid_t(pid))
		output(fmt.Sprintf("exit(%d)\n", code))
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Signal the interactive demo program named by --pid to exit.",
	Run: func(cmd *cobra.Command, args []string) {
		pid, ok := requirePid(cmd)
		if !ok {
			return
		}
		e, ok := lookup(defs.Pid_t(pid))
		if !ok {
			outputErrorAndFail(fmt.Sprintf("no such process: %d", pid))
		}
		close(e.done)
	},
}

// ptCreateCmd spawns a user thread inside a live process, the way a
// real pt_create syscall would, except the body is one of kshell's
// canned demo bodies rather than a pointer into user code.
var ptCreateCmd = &cobra.Command{
	Use:   "pt-create",
	Short: "Start a demo thread inside the process named by --pid.",
	Run: func(cmd *cobra.Command, args []string) {
		pid, ok := requirePid(cmd)
		if !ok {
			return
		}
		e, ok := lookup(defs.Pid_t(pid))
		if !ok {
			outputErrorAndFail(fmt.Sprintf("no such process: %d", pid))
		}
		body := func(ctx context.Context) {
			p, _ := proc.CurProc.From(ctx)
			ut, _ := proc.CurThread.From(ctx)
			fmt.Fprintf(p.Stdout, "%s: thread %d running\n", p.Name, ut.Tid)
		}
		tid, err := proc.PthreadExecute(e.ctx, body)
		if err != 0 {
			outputErrorAndFail(fmt.Sprintf("pt-create failed: %s", errName(err)))
		}
		output(fmt.Sprintf("tid %d\n", tid))
	},
}

var ptJoinCmd = &cobra.Command{
	Use:   "pt-join",
	Short: "Join the thread named by --pid/--tid.",
	Run: func(cmd *cobra.Command, args []string) {
		pid, ok := requirePid(cmd)
		if !ok {
			return
		}
		tid, _ := cmd.Flags().GetInt(tidFlag)
		e, ok := lookup(defs.Pid_t(pid))
		if !ok {
			outputErrorAndFail(fmt.Sprintf("no such process: %d", pid))
		}
		got, err := proc.PthreadJoin(e.ctx, defs.Tid_t(tid))
		if err != 0 {
			outputErrorAndFail(fmt.Sprintf("pt-join failed: %s", errName(err)))
		}
		output(fmt.Sprintf("joined tid %d\n", got))
	},
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List every process exec'd this session.",
	Run: func(cmd *cobra.Command, args []string) {
		output(string(createTableListOutput()))
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the full PCB of the process named by --pid.",
	Run: func(cmd *cobra.Command, args []string) {
		pid, ok := requirePid(cmd)
		if !ok {
			return
		}
		e, ok := lookup(defs.Pid_t(pid))
		if !ok {
			outputErrorAndFail(fmt.Sprintf("no such process: %d", pid))
		}
		output(spew.Sdump(e.p))
	},
}

func requirePid(cmd *cobra.Command) (int, bool) {
	pid, err := cmd.Flags().GetInt(pidFlag)
	if err != nil || pid == 0 {
		cmd.Help()
		return 0, false
	}
	return pid, true
}

func errName(e defs.Err_t) string {
	return strconv.Itoa(int(e))
}

func createTableListOutput() []byte {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"PID", "name", "threads", "exiting", "user ns", "sys ns"})
	for _, e := range allSessions() {
		acct := e.p.Acct.Fetch()
		table.Append([]string{
			strconv.Itoa(int(e.p.Pid)),
			e.p.Name,
			strconv.Itoa(e.p.ThreadCounter),
			strconv.FormatBool(e.p.Exiting),
			strconv.FormatInt(acct.Userns, 10),
			strconv.FormatInt(acct.Sysns, 10),
		})
	}
	table.Render()
	return buf.Bytes()
}

func output(s string) {
	fmt.Print(s)
}

func outputErrorAndFail(msg string) {
	fmt.Println(msg)
	panic(kshellError(msg))
}

// kshellError lets the REPL recover from a failed command instead of
// exiting the whole shell, mirroring how a real shell reports a
// failed builtin and keeps prompting.
type kshellError string

func (k kshellError) Error() string { return string(k) }

func setupCommands() *cobra.Command {
	execCmd.Flags().String(progFlag, demoInteractive, "Demo program to run: compute-e, practice, interactive.")
	execCmd.Flags().Int(nFlag, 10, "Argument to compute-e/practice demo programs.")
	waitCmd.Flags().Int(pidFlag, 0, "Pid to wait on.")
	finishCmd.Flags().Int(pidFlag, 0, "Pid of the interactive demo program to stop.")
	ptCreateCmd.Flags().Int(pidFlag, 0, "Pid to start a thread inside.")
	ptJoinCmd.Flags().Int(pidFlag, 0, "Pid owning the thread.")
	ptJoinCmd.Flags().Int(tidFlag, 0, "Tid to join.")
	inspectCmd.Flags().Int(pidFlag, 0, "Pid to dump.")

	kshellCmd.AddCommand(execCmd)
	kshellCmd.AddCommand(waitCmd)
	kshellCmd.AddCommand(finishCmd)
	kshellCmd.AddCommand(ptCreateCmd)
	kshellCmd.AddCommand(ptJoinCmd)
	kshellCmd.AddCommand(psCmd)
	kshellCmd.AddCommand(inspectCmd)
	return kshellCmd
}
