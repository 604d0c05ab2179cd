package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sol-blockview/internal/logic/inspect"
)

var (
	blockFile     = flag.String("f", "", "block file (protobuf or protojson)")
	kind          = flag.String("kind", inspect.KindConfirmed, "block kind: confirmed | geyser")
	format        = flag.String("format", inspect.FormatProto, "file format: proto | json")
	slot          = flag.Uint64("slot", 0, "slot number, required for confirmed blocks")
	compiledOnly  = flag.Bool("compiled-only", false, "only list top-level instructions")
	includeFailed = flag.Bool("include-failed", false, "include failed transactions")
	showAccounts  = flag.Bool("accounts", false, "print the resolved account list of each transaction")
)

func main() {
	flag.Parse()
	if *blockFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*blockFile)
	if err != nil {
		fatal(err)
	}
	block, err := inspect.LoadBlock(data, *kind, *format, *slot)
	if err != nil {
		fatal(err)
	}

	summary := inspect.Summarize(block, inspect.Options{
		CompiledOnly:  *compiledOnly,
		IncludeFailed: *includeFailed,
		ShowAccounts:  *showAccounts,
	})

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(summary); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "inspect:", err)
	os.Exit(1)
}
