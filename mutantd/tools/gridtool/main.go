// gridtool classifies a dna grid read from a json or yaml file, or given
// inline as its comma separated key.
//
//	gridtool -f grid.json | -k ROW,ROW,... [-p PATTERN] [-n LIMIT] [-s] [-d]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ntons/mutant/mutantd/internal/dna"
	"github.com/ntons/mutant/mutantd/internal/util"
)

type gridFile struct {
	Dna dna.Grid `json:"dna"`
}

type options struct {
	file      string
	key       string
	pattern   string
	limit     int
	sequences bool
	diagnose  bool
}

func loadGrid(opts *options) (dna.Grid, error) {
	switch {
	case opts.file != "" && opts.key != "":
		return nil, errors.New("grid file and key are exclusive")
	case opts.key != "":
		return dna.ParseKey(opts.key), nil
	case opts.file != "":
		var f gridFile
		if err := util.LoadFromFile(opts.file, &f); err != nil {
			return nil, fmt.Errorf("failed to load grid: %w", err)
		}
		return f.Dna, nil
	default:
		return nil, errors.New("require grid file or key")
	}
}

func run(opts *options, w io.Writer) (err error) {
	g, err := loadGrid(opts)
	if err != nil {
		return
	}
	seqs, err := dna.Sequences(g)
	if err != nil {
		return
	}
	cl, err := dna.Classify(g)
	if err != nil {
		return
	}
	fmt.Fprintln(w, cl)
	if opts.sequences {
		for _, seq := range seqs {
			fmt.Fprintln(w, seq)
		}
	}
	if opts.pattern == "" && !opts.diagnose {
		return
	}
	idx, err := dna.BuildIndex(seqs)
	if err != nil {
		return
	}
	if opts.diagnose {
		fmt.Fprintf(w, "key: %s\nsequences: %d\nnodes: %d\n",
			dna.Key(g), len(seqs), idx.Nodes())
	}
	if opts.pattern != "" {
		b, err := json.Marshal(idx.Query(opts.pattern, opts.limit))
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(w, string(b))
	}
	return
}

func main() {
	opts := &options{}
	flag.StringVar(&opts.file, "f", "", "grid [f]ile, json or yaml")
	flag.StringVar(&opts.key, "k", "", "grid [k]ey, rows joined by commas")
	flag.StringVar(&opts.pattern, "p", "", "query [p]attern")
	flag.IntVar(&opts.limit, "n", -1, "query result limit, negative for [n]o limit")
	flag.BoolVar(&opts.sequences, "s", false, "print [s]equences")
	flag.BoolVar(&opts.diagnose, "d", false, "print index [d]iagnostics")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
