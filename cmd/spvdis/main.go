// Command spvdis prints a SPIR-V module in the .spvasm text format.
//
// Usage:
//
//	spvdis [-o out.spvasm] <module.spv>
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gogpu/shaderd/spirv"
)

var output = flag.String("o", "", "output file (default: stdout)")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: spvdis [options] <module.spv>\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m, err := spirv.Parse(data)
	if err != nil {
		var perr *spirv.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", flag.Arg(0), perr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	out := os.Stdout
	if *output != "" {
		out, err = os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	w := bufio.NewWriter(out)
	err = spirv.Disassemble(w, m)
	if err == nil {
		err = w.Flush()
	}
	if err == nil && out != os.Stdout {
		err = out.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}
