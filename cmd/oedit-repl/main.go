// Command oedit-repl is an interactive, liner-backed shell over a single
// omegaedit session: insert/delete/overwrite/undo/redo/save/find, driven
// one line at a time, with persistent line history and line-based
// dispatch.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	omegaedit "github.com/calvinalkan/omegaedit"
	"github.com/calvinalkan/omegaedit/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: oedit-repl <file>")
		os.Exit(2)
	}

	r, err := newREPL(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "oedit-repl: %v\n", err)
		os.Exit(1)
	}
	defer r.session.Close()

	if err := r.run(); err != nil {
		fmt.Fprintf(os.Stderr, "oedit-repl: %v\n", err)
		os.Exit(1)
	}
}

// repl holds one session and the liner state driving it.
type repl struct {
	session     *omegaedit.Session
	line        *liner.State
	historyPath string
}

func newREPL(path string) (*repl, error) {
	cfg, err := config.Load(config.LoadInput{})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	s, err := omegaedit.Open(path, omegaedit.OpenOptions{CheckpointDir: cfg.CheckpointDir})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	historyPath := cfg.HistoryFile
	if historyPath == "" {
		historyPath = defaultHistoryFile()
	}

	return &repl{session: s, historyPath: historyPath}, nil
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".oedit_history")
}

func (r *repl) run() error {
	r.line = liner.NewLiner()
	defer r.line.Close()

	r.line.SetCtrlCAborts(true)
	r.line.SetCompleter(completer)

	if f, err := os.Open(r.historyPath); err == nil {
		_, _ = r.line.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Printf("oedit - editing %s (size=%d)\n", r.session.FilePath(), r.session.ComputedSize())
	fmt.Println("Type 'help' for available commands.")

	for {
		input, err := r.line.Prompt("oedit> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nbye")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		r.line.AppendHistory(input)

		if r.dispatch(input) {
			break
		}
	}

	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	if r.historyPath == "" {
		return
	}

	if f, err := os.Create(r.historyPath); err == nil {
		_, _ = r.line.WriteHistory(f)
		_ = f.Close()
	}
}

// dispatch runs one command line, returning true when the REPL should exit.
func (r *repl) dispatch(input string) bool {
	fields := strings.Fields(input)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "exit", "quit", "q":
		fmt.Println("bye")

		return true

	case "help", "?":
		printHelp()

	case "insert":
		r.cmdInsert(args)

	case "delete", "del":
		r.cmdDelete(args)

	case "overwrite", "ovr":
		r.cmdOverwrite(args)

	case "undo":
		r.cmdUndo()

	case "redo":
		r.cmdRedo()

	case "save":
		r.cmdSave(args)

	case "find":
		r.cmdFind(args)

	case "log":
		r.cmdLog()

	case "info":
		r.cmdInfo()

	default:
		fmt.Printf("unknown command: %s (type 'help')\n", cmd)
	}

	return false
}

func printHelp() {
	fmt.Print(`commands:
  insert OFFSET TEXT       insert TEXT at OFFSET
  delete OFFSET LENGTH     delete LENGTH bytes at OFFSET
  overwrite OFFSET TEXT    overwrite with TEXT starting at OFFSET
  undo                     undo the last change/transaction
  redo                     redo the last undone change/transaction
  save PATH                save the computed stream to PATH
  find PATTERN             forward, case-sensitive search
  log                      print the last change, in 'D'/'I'/'O' form
  info                     print size, change count, undo count
  exit                     quit
`)
}

func (r *repl) cmdInsert(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: insert OFFSET TEXT")

		return
	}

	offset, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("bad offset: %v\n", err)

		return
	}

	serial, err := r.session.InsertBytes(offset, []byte(strings.Join(args[1:], " ")))
	if err != nil {
		fmt.Printf("insert failed: %v\n", err)

		return
	}

	fmt.Printf("serial=%d size=%d\n", serial, r.session.ComputedSize())
}

func (r *repl) cmdDelete(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: delete OFFSET LENGTH")

		return
	}

	offset, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("bad offset: %v\n", err)

		return
	}

	length, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("bad length: %v\n", err)

		return
	}

	serial, err := r.session.Delete(offset, length)
	if err != nil {
		fmt.Printf("delete failed: %v\n", err)

		return
	}

	fmt.Printf("serial=%d size=%d\n", serial, r.session.ComputedSize())
}

func (r *repl) cmdOverwrite(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: overwrite OFFSET TEXT")

		return
	}

	offset, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("bad offset: %v\n", err)

		return
	}

	serial, err := r.session.OverwriteBytes(offset, []byte(strings.Join(args[1:], " ")))
	if err != nil {
		fmt.Printf("overwrite failed: %v\n", err)

		return
	}

	fmt.Printf("serial=%d size=%d\n", serial, r.session.ComputedSize())
}

func (r *repl) cmdUndo() {
	serial, err := r.session.UndoLast()
	if err != nil {
		fmt.Printf("undo failed: %v\n", err)

		return
	}

	fmt.Printf("undone serial=%d\n", serial)
}

func (r *repl) cmdRedo() {
	serial, err := r.session.RedoLast()
	if err != nil {
		fmt.Printf("redo failed: %v\n", err)

		return
	}

	fmt.Printf("redone serial=%d\n", serial)
}

func (r *repl) cmdSave(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: save PATH")

		return
	}

	if err := r.session.Save(0, 0, args[0], omegaedit.SaveFlagsOverwrite); err != nil {
		fmt.Printf("save failed: %v\n", err)

		return
	}

	fmt.Printf("saved to %s\n", args[0])
}

func (r *repl) cmdFind(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: find PATTERN")

		return
	}

	ctx, err := r.session.NewSearchContext([]byte(args[0]), 0, r.session.ComputedSize(), false, false)
	if err != nil {
		fmt.Printf("find failed: %v\n", err)

		return
	}
	defer ctx.DestroyContext()

	n := 0

	for {
		ok, err := ctx.NextMatch(1)
		if err != nil {
			fmt.Printf("find failed: %v\n", err)

			return
		}

		if !ok {
			break
		}

		fmt.Printf("match at %d\n", ctx.MatchOffset())

		n++
	}

	if n == 0 {
		fmt.Println("no matches")
	}
}

func (r *repl) cmdLog() {
	ch := r.session.LastChange()
	if ch == nil {
		fmt.Println("(no changes)")

		return
	}

	fmt.Println(ch)
}

func (r *repl) cmdInfo() {
	fmt.Printf("size=%d changes=%d undo=%d tx=%s checkpoints=%d\n",
		r.session.ComputedSize(), r.session.ChangeCount(), r.session.UndoCount(),
		r.session.TransactionState(), r.session.CheckpointCount())
}

func completer(line string) []string {
	commands := []string{"insert", "delete", "overwrite", "undo", "redo", "save", "find", "log", "info", "help", "exit"}

	var out []string

	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}

	return out
}
