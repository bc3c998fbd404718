// Command xmlevents prints the event stream of an XML document, one
// event per line. It reads the named file, or stdin when no file is
// given, and exits non-zero on parse errors.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/sax"
	"github.com/jacoelho/sax/pkg/xmlevent"
	"github.com/jacoelho/sax/pkg/xmltoken"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xmlevents", flag.ContinueOnError)
	fs.SetOutput(stderr)
	contentOnly := fs.Bool("content-only", false, "print flattened character data only")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: xmlevents [flags] [document.xml]\n\n")
		fmt.Fprintln(stderr, "Prints the XML event stream of a document, one event per line.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		fmt.Fprintln(stderr, "error: at most one document argument is allowed")
		fs.Usage()
		return 2
	}

	var err error
	if len(remaining) == 1 {
		_, err = sax.ParseFile(remaining[0], func(c *xmlevent.Cursor) (struct{}, error) {
			return struct{}{}, dump(c, stdout, *contentOnly)
		})
	} else {
		_, err = sax.ParseReader(stdin, func(c *xmlevent.Cursor) (struct{}, error) {
			return struct{}{}, dump(c, stdout, *contentOnly)
		})
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func dump(c *xmlevent.Cursor, out io.Writer, contentOnly bool) error {
	for {
		ev, ok, err := c.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if contentOnly {
			switch ev.Kind {
			case xmlevent.KindContent:
				if _, err := io.WriteString(out, xmltoken.Flatten([]xmltoken.Fragment{ev.Fragment})); err != nil {
					return err
				}
			case xmlevent.KindCDATA:
				if _, err := io.WriteString(out, ev.Text); err != nil {
					return err
				}
			}
			continue
		}
		if _, err := fmt.Fprintln(out, ev.String()); err != nil {
			return err
		}
	}
}
