// Command jexpr is a small CLI front-end over the jexpr query engine: it
// reads input data (JSON by default, YAML with -yaml) from stdin or a
// file, evaluates a query against it, and prints the result in the same
// or the other format.
//
// Usage:
//
//	jexpr '$.products[price > 100].name' < catalog.json
//	jexpr -yaml -out-yaml '$.products' < catalog.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sandrolain/jexpr"
	"github.com/sandrolain/jexpr/pkg/codec"
)

func main() {
	var (
		inputFile = flag.String("in", "", "input data file (default: stdin)")
		inYAML    = flag.Bool("yaml", false, "parse input as YAML instead of JSON")
		outYAML   = flag.Bool("out-yaml", false, "print the result as YAML instead of JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <query>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	query := flag.Arg(0)

	raw, err := readInput(*inputFile)
	if err != nil {
		fatalf("read input: %v", err)
	}

	data, err := decodeInput(raw, *inYAML)
	if err != nil {
		fatalf("decode input: %v", err)
	}

	result, err := jexpr.Eval(query, data)
	if err != nil {
		fatalf("eval: %v", err)
	}

	out, err := encodeOutput(result, *outYAML)
	if err != nil {
		fatalf("encode output: %v", err)
	}
	os.Stdout.Write(out)
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func decodeInput(raw []byte, asYAML bool) (interface{}, error) {
	if asYAML {
		return codec.DecodeYAML(raw)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeOutput(v interface{}, asYAML bool) ([]byte, error) {
	if asYAML {
		return codec.EncodeYAML(v)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "jexpr: "+format+"\n", args...)
	os.Exit(1)
}
