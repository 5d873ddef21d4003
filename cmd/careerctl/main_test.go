package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := out.String(); got != "careerctl version: dev\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"ingest", "source"},
		{"ingest", "all"},
		{"ingest", "seeds"},
		{"jobs", "list"},
		{"resume", "upload"},
		{"resume", "list"},
		{"resume", "graph"},
		{"resume", "score"},
		{"resume", "ollama-status"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil {
			t.Errorf("%s: %v", strings.Join(path, " "), err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("%s resolved to %q", strings.Join(path, " "), cmd.Name())
		}
	}
}

func TestIngestSourceRequiresArg(t *testing.T) {
	rootCmd.SetArgs([]string{"ingest", "source"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an argument error")
	}
}
