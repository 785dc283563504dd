package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRunEndToEndInverter wires the full pipeline over demoDesign (spec.md
// §8 scenario S2) through the same run() entry point main() uses.
func TestRunEndToEndInverter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-verilog_file", "design.v", "-utilization", "0.1"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "HPWL")
}

func TestRunEndToEndGreedyLegalizer(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-verilog_file", "design.v", "-utilization", "0.1", "-legalizer", "greedy"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "HPWL")
}

func TestRunRequiresVerilogFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.True(t, strings.Contains(stderr.String(), "-verilog_file"))
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-verilog_file", "design.v", "-strategy", "bogus"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown strategy")
}

func TestRunRejectsUnknownLegalizer(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-verilog_file", "design.v", "-legalizer", "bogus"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown legalizer")
}
