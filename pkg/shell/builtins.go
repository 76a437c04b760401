package shell

import (
	"fmt"
	"strings"
)

// historyShown is how many entries the history command prints.
const historyShown = 50

// Builtins returns the command table in help order.
func Builtins() []Command {
	return []Command{
		{Name: "help", Usage: "help", Summary: "Show this help", Run: runHelp},
		{Name: "pwd", Usage: "pwd", Summary: "Print working directory", Run: runPwd},
		{Name: "ls", Usage: "ls [-a] [path]", Summary: "List files (add -a to include hidden)", Run: runLs},
		{Name: "cd", Usage: "cd [path]", Summary: "Change directory (confined to the sandbox root)", Run: runCd},
		{Name: "mkdir", Usage: "mkdir <dir>...", Summary: "Create directories with parents", Run: runMkdir},
		{Name: "rm", Usage: "rm [-r] <path>...", Summary: "Remove files; -r for directories", Run: runRm},
		{Name: "touch", Usage: "touch <file>...", Summary: "Create empty file(s) or update mtime", Run: runTouch},
		{Name: "cat", Usage: "cat <file>...", Summary: "Print file(s)", Run: runCat},
		{Name: "echo", Usage: "echo [text...]", Summary: "Print text", Run: runEcho},
		{Name: "cp", Usage: "cp <src> <dst>", Summary: "Copy file or directory (dst may be a directory)", Run: runCp},
		{Name: "mv", Usage: "mv <src> <dst>", Summary: "Move or rename", Run: runMv},
		{Name: "head", Usage: "head [-n N] <file>...", Summary: "First N lines (default 10)", Run: runHead},
		{Name: "tail", Usage: "tail [-n N] <file>...", Summary: "Last N lines (default 10)", Run: runTail},
		{Name: "ps", Usage: "ps", Summary: "Show running processes", Run: runPs},
		{Name: "sysmon", Usage: "sysmon", Summary: "Load and memory snapshot", Run: runSysmon},
		{Name: "df", Usage: "df", Summary: "Disk usage for the sandbox root", Run: runDf},
		{Name: "history", Usage: "history", Summary: "Show recent command history", Run: runHistory},
		{Name: "exit", Usage: "exit", Summary: "Leave the shell", Run: runExit},
		{Name: "quit", Usage: "quit", Summary: "Same as exit", Run: runExit},
	}
}

// HelpText renders the usage table for r.
func HelpText(r *Registry) string {
	var b strings.Builder
	b.WriteString("Built-in commands:\n")
	for _, cmd := range r.Commands() {
		fmt.Fprintf(&b, "  %-22s %s\n", cmd.Usage, cmd.Summary)
	}
	return b.String()
}

func runHelp(env *Env, _ []string) error {
	env.out.WriteString(HelpText(env.session.registry))
	return nil
}

func runPwd(env *Env, _ []string) error {
	env.Println(env.Cwd())
	return nil
}

func runEcho(env *Env, args []string) error {
	env.Println(strings.Join(args, " "))
	return nil
}

func runHistory(env *Env, _ []string) error {
	h := env.session.history
	if h == nil {
		env.Println("history unavailable")
		return nil
	}
	for _, entry := range h.Last(historyShown) {
		env.Printf("%d: %s\n", entry.Index, entry.Line)
	}
	return nil
}

func runExit(*Env, []string) error {
	return ErrExit
}
