package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/internal/term"
	apperrors "github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/errors"
)

// termctl evaluates term orderings locally.
//
// Usage:
//
//	termctl compare [-order lexicographic|reverse_weight|prefix] [-r N] QUERY[:WEIGHT] QUERY[:WEIGHT]
//	termctl prefix  -r N QUERY[:WEIGHT]
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "compare":
		err = cmdCompare(args[1:], stdout, stderr)
	case "prefix":
		err = cmdPrefix(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		printUsage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if apperrors.IsArgumentError(err) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		return 1
	}
	return 0
}

func cmdCompare(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(stderr)
	order := fs.String("order", "lexicographic", "ordering: lexicographic, reverse_weight or prefix")
	r := fs.Int("r", -1, "prefix length for -order prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: compare takes exactly two terms", apperrors.ErrInvalidArgument)
	}

	left, err := parseTerm(fs.Arg(0))
	if err != nil {
		return err
	}
	right, err := parseTerm(fs.Arg(1))
	if err != nil {
		return err
	}

	var result int
	switch *order {
	case "lexicographic":
		result, err = left.Compare(right)
	case "reverse_weight":
		result, err = left.CompareByReverseWeight(right)
	case "prefix":
		result, err = left.CompareByPrefix(right, *r)
	default:
		return fmt.Errorf("%w: unknown order %q", apperrors.ErrInvalidArgument, *order)
	}
	if err != nil {
		return err
	}

	rel := "="
	switch {
	case result < 0:
		rel = "<"
	case result > 0:
		rel = ">"
	}
	fmt.Fprintf(stdout, "%q %s %q\t(%s, result %d)\n", left.Query(), rel, right.Query(), *order, result)
	return nil
}

func cmdPrefix(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("prefix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	r := fs.Int("r", -1, "number of characters to keep")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: prefix takes exactly one term", apperrors.ErrInvalidArgument)
	}
	t, err := parseTerm(fs.Arg(0))
	if err != nil {
		return err
	}
	prefix, err := t.QueryPrefix(*r)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, prefix)
	return nil
}

// parseTerm reads QUERY or QUERY:WEIGHT. The suffix after the last colon is
// only taken as the weight when it is an integer, so queries may contain
// colons.
func parseTerm(s string) (*term.Term, error) {
	query, weight := s, int64(0)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		if w, err := strconv.ParseInt(s[i+1:], 10, 64); err == nil {
			query, weight = s[:i], w
		}
	}
	return term.New(query, weight)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: termctl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  compare  Compare two terms under one ordering")
	fmt.Fprintln(w, "  prefix   Print the first r characters of a term's query")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, `  termctl compare app:1 apple:1`)
	fmt.Fprintln(w, `  termctl compare -order reverse_weight a:10 b:5`)
	fmt.Fprintln(w, `  termctl compare -order prefix -r 3 apple:1 application:1`)
	fmt.Fprintln(w, `  termctl prefix -r 10 hi`)
}
