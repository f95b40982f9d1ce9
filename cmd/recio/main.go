// Command recio operates on a recio store on disk: put, get, update,
// delete, compact, and stat subcommands against a single store path.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/dgrecio/recio"
)

type command struct {
	usage string
	short string
	run   func(args []string) error
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("recio: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmds := commands()
	c, ok := cmds[os.Args[1]]
	if !ok {
		log.Printf("unknown command %q", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err := c.run(os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: recio <command> [flags]")
	for name, c := range commands() {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, c.short)
	}
}

func commands() map[string]command {
	return map[string]command{
		"put":     {usage: "put <store> <file>", short: "store a file's contents under a new recid", run: runPut},
		"get":     {usage: "get <store> <recid>", short: "print the record at recid to stdout", run: runGet},
		"update":  {usage: "update <store> <recid> <file>", short: "replace the record at recid", run: runUpdate},
		"delete":  {usage: "delete <store> <recid>", short: "delete the record at recid", run: runDelete},
		"compact": {usage: "compact <store>", short: "rewrite the store into a dense copy", run: runCompact},
		"stat":    {usage: "stat <store>", short: "print size and free-space statistics", run: runStat},
	}
}

func openStore(path string, fs *flag.FlagSet) (*recio.Store, error) {
	readOnly := fs.Lookup("read-only") != nil && fs.Lookup("read-only").Value.String() == "true"
	opts := recio.DefaultOptions()
	opts.ReadOnly = readOnly
	return recio.Open(recio.NewFileVolumeFactory(path, readOnly), opts)
}

func runPut(args []string) error {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: recio put <store> <file>")
	}
	data, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	s, err := openStore(fs.Arg(0), fs)
	if err != nil {
		return err
	}
	defer s.Close()

	recid, err := s.PutRaw(data)
	if err != nil {
		return err
	}
	if err := s.Commit(); err != nil {
		return err
	}
	fmt.Println(recid)
	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	readOnly := fs.Bool("read-only", true, "open the store read-only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: recio get <store> <recid>")
	}
	recid, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid recid %q: %w", fs.Arg(1), err)
	}

	opts := recio.DefaultOptions()
	opts.ReadOnly = *readOnly
	s, err := recio.Open(recio.NewFileVolumeFactory(fs.Arg(0), *readOnly), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.GetRaw(recid)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: recio update <store> <recid> <file>")
	}
	recid, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid recid %q: %w", fs.Arg(1), err)
	}
	data, err := os.ReadFile(fs.Arg(2))
	if err != nil {
		return err
	}
	s, err := openStore(fs.Arg(0), fs)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.UpdateRaw(recid, data); err != nil {
		return err
	}
	return s.Commit()
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: recio delete <store> <recid>")
	}
	recid, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid recid %q: %w", fs.Arg(1), err)
	}
	s, err := openStore(fs.Arg(0), fs)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(recid); err != nil {
		return err
	}
	return s.Commit()
}

func runCompact(args []string) error {
	fs := flag.NewFlagSet("compact", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: recio compact <store>")
	}
	s, err := openStore(fs.Arg(0), fs)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Compact()
}

func runStat(args []string) error {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: recio stat <store>")
	}
	s, err := recio.Open(recio.NewFileVolumeFactory(fs.Arg(0), true), recio.Options{ReadOnly: true})
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.CalculateStatistics()
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}
