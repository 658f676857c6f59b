// Command oedit is a thin, scriptable front end over the omegaedit
// library: one invocation opens a session, performs a single edit or
// query, optionally saves, and exits.
package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	omegaedit "github.com/calvinalkan/omegaedit"
	"github.com/calvinalkan/omegaedit/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	if len(args) == 0 {
		printUsage(stderr)

		return 2
	}

	sub, rest := args[0], args[1:]

	var err error

	switch sub {
	case "insert":
		err = cmdEdit(rest, stdout, insertOp)
	case "delete":
		err = cmdEdit(rest, stdout, deleteOp)
	case "overwrite":
		err = cmdEdit(rest, stdout, overwriteOp)
	case "find":
		err = cmdFind(rest, stdout)
	case "cat":
		err = cmdCat(rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)

		return 0
	default:
		fmt.Fprintf(stderr, "oedit: unknown command %q\n", sub)
		printUsage(stderr)

		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "oedit: %v\n", err)

		return 1
	}

	return 0
}

func printUsage(w *os.File) {
	fmt.Fprint(w, `usage: oedit <command> [options]

commands:
  insert    -f FILE -o OFFSET -b BYTES [--save PATH]
  delete    -f FILE -o OFFSET -l LENGTH [--save PATH]
  overwrite -f FILE -o OFFSET -b BYTES [--save PATH]
  find      -f FILE -p PATTERN [--reverse] [--ignore-case]
  cat       -f FILE [-o OFFSET] [-l LENGTH]
`)
}

type editKind int

const (
	insertOp editKind = iota
	deleteOp
	overwriteOp
)

func cmdEdit(args []string, stdout *os.File, kind editKind) error {
	var helpBuf bytes.Buffer

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(&helpBuf)

	file := fs.StringP("file", "f", "", "file to edit")
	offset := fs.Int64P("offset", "o", 0, "byte offset")
	length := fs.Int64P("length", "l", 0, "byte length (delete only)")
	bytesFlag := fs.StringP("bytes", "b", "", "bytes to insert/overwrite, as-is")
	savePath := fs.String("save", "", "destination to save the result to")
	checkpointDir := fs.String("checkpoint-dir", "", "override checkpoint directory")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, helpBuf.String())
	}

	if *file == "" {
		return errMissingFlag("--file")
	}

	cfg, err := config.Load(config.LoadInput{CheckpointDirFlag: *checkpointDir})
	if err != nil {
		return err
	}

	s, err := omegaedit.Open(*file, omegaedit.OpenOptions{CheckpointDir: cfg.CheckpointDir})
	if err != nil {
		return fmt.Errorf("open %s: %w", *file, err)
	}
	defer s.Close()

	var serial int64

	switch kind {
	case insertOp:
		serial, err = s.InsertBytes(*offset, []byte(*bytesFlag))
	case deleteOp:
		serial, err = s.Delete(*offset, *length)
	case overwriteOp:
		serial, err = s.OverwriteBytes(*offset, []byte(*bytesFlag))
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "serial=%d size=%d\n", serial, s.ComputedSize())

	if *savePath != "" {
		flags := saveFlagsFor(cfg.SaveFlags)
		if err := s.Save(0, 0, *savePath, flags); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}

	return nil
}

func saveFlagsFor(name string) omegaedit.SaveFlags {
	switch name {
	case "overwrite":
		return omegaedit.SaveFlagsOverwrite
	case "force":
		return omegaedit.SaveFlagsForceOverwrite
	default:
		return omegaedit.SaveFlagsNone
	}
}

func cmdFind(args []string, stdout *os.File) error {
	var helpBuf bytes.Buffer

	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	fs.SetOutput(&helpBuf)

	file := fs.StringP("file", "f", "", "file to search")
	pattern := fs.StringP("pattern", "p", "", "pattern to search for")
	reverse := fs.Bool("reverse", false, "search backward")
	ignoreCase := fs.Bool("ignore-case", false, "case-insensitive search")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, helpBuf.String())
	}

	if *file == "" || *pattern == "" {
		return errMissingFlag("--file and --pattern")
	}

	s, err := omegaedit.Open(*file, omegaedit.OpenOptions{})
	if err != nil {
		return fmt.Errorf("open %s: %w", *file, err)
	}
	defer s.Close()

	ctx, err := s.NewSearchContext([]byte(*pattern), 0, s.ComputedSize(), *ignoreCase, *reverse)
	if err != nil {
		return err
	}
	defer ctx.DestroyContext()

	found := false

	for {
		ok, err := ctx.NextMatch(1)
		if err != nil {
			return err
		}

		if !ok {
			break
		}

		found = true

		fmt.Fprintf(stdout, "%d\n", ctx.MatchOffset())
	}

	if !found {
		fmt.Fprintln(stdout, "no matches")
	}

	return nil
}

func cmdCat(args []string, stdout *os.File) error {
	var helpBuf bytes.Buffer

	fs := flag.NewFlagSet("cat", flag.ContinueOnError)
	fs.SetOutput(&helpBuf)

	file := fs.StringP("file", "f", "", "file to read")
	offset := fs.Int64P("offset", "o", 0, "byte offset")
	length := fs.Int64P("length", "l", 0, "byte length, 0 means to EOF")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, helpBuf.String())
	}

	if *file == "" {
		return errMissingFlag("--file")
	}

	s, err := omegaedit.Open(*file, omegaedit.OpenOptions{})
	if err != nil {
		return fmt.Errorf("open %s: %w", *file, err)
	}
	defer s.Close()

	capacity := *length
	if capacity <= 0 {
		capacity = s.ComputedSize() - *offset
	}

	if capacity < 0 {
		capacity = 0
	}

	v, err := s.CreateViewport(*offset, capacity, false, omegaedit.ViewportEvtNone, nil, nil)
	if err != nil {
		return err
	}
	defer v.Destroy()

	data, err := v.GetData()
	if err != nil {
		return err
	}

	_, err = stdout.Write(data)

	return err
}

func errMissingFlag(name string) error {
	return fmt.Errorf("missing required flag: %s", strings.TrimSpace(name))
}
