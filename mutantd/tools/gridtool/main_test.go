package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ntons/mutant/mutantd/internal/dna"
)

func writeGrid(t *testing.T, name, content string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fp, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fp
}

func TestRun(t *testing.T) {
	fp := writeGrid(t, "grid.json", `{"dna":["AAAA","CCCC","TTTT","GGGG"]}`)
	var out bytes.Buffer
	if err := run(&options{file: fp, pattern: "CCCC", limit: -1}, &out); err != nil {
		t.Fatal(err)
	}
	want := "MUTANT\n{\"tags\":[4],\"total\":1}\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRunYamlSequences(t *testing.T) {
	fp := writeGrid(t, "grid.yaml", "dna:\n- AAAA\n- CGTC\n- GTCG\n- TCGT\n")
	var out bytes.Buffer
	if err := run(&options{file: fp, sequences: true}, &out); err != nil {
		t.Fatal(err)
	}
	seqs, _ := dna.Sequences(dna.Grid{"AAAA", "CGTC", "GTCG", "TCGT"})
	want := "HUMAN\n"
	for _, seq := range seqs {
		want += seq + "\n"
	}
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRunInvalid(t *testing.T) {
	fp := writeGrid(t, "grid.json", `{"dna":["ACG","ACG","ACG"]}`)
	err := run(&options{file: fp}, &bytes.Buffer{})
	if !errors.Is(err, dna.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err = run(&options{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error without file")
	}
	if err = run(&options{file: fp, key: "AAAA,CCCC,TTTT,GGGG"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error with both file and key")
	}
	if err = run(&options{key: "AAAA,CCCC,TTT,GGGG"}, &bytes.Buffer{}); !errors.Is(err, dna.ErrInvalidInput) {
		t.Fatalf("expected invalid input from key, got %v", err)
	}
}

func TestRunKeyDiagnose(t *testing.T) {
	key := "AAAA,CCCC,TTTT,GGGG"
	var out bytes.Buffer
	if err := run(&options{key: key, diagnose: true, pattern: "TTTT", limit: -1}, &out); err != nil {
		t.Fatal(err)
	}
	seqs, _ := dna.Sequences(dna.ParseKey(key))
	idx, err := dna.BuildIndex(seqs)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("MUTANT\nkey: %s\nsequences: %d\nnodes: %d\n{\"tags\":[6],\"total\":1}\n",
		key, len(seqs), idx.Nodes())
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if len(seqs) != 10 || idx.Nodes() < 2 {
		t.Fatalf("unexpected diagnostics: %d sequences, %d nodes", len(seqs), idx.Nodes())
	}
}
