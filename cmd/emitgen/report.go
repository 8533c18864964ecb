// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// emitResult summarizes one graph's emission outcome, for both the
// single-graph and batch CLI paths.
type emitResult struct {
	Source   string
	Bytes    int
	Duration time.Duration
	Err      error
}

// printEmitResult renders one result line: a green/red status marker, the
// source path, and either a byte count or the diagnostic.
func printEmitResult(w io.Writer, r emitResult) {
	if r.Err == nil {
		fmt.Fprintf(w, "%s %s %s\n",
			okStyle.Render("OK"), r.Source,
			dimStyle.Render(fmt.Sprintf("(%s, %s)", humanize.Bytes(uint64(r.Bytes)), r.Duration.Round(time.Microsecond))))
		return
	}
	fmt.Fprintf(w, "%s %s\n", failStyle.Render("FAIL"), r.Source)
	if d, ok := ir.AsDiagnostic(r.Err); ok {
		fmt.Fprintf(w, "  %s\n", color.RedString(d.Error()))
		return
	}
	fmt.Fprintf(w, "  %s\n", color.RedString(r.Err.Error()))
}

// printBatchSummary renders the closing tally line for a batch run.
func printBatchSummary(w io.Writer, results []emitResult) {
	var ok, failed int
	var totalBytes uint64
	for _, r := range results {
		if r.Err == nil {
			ok++
			totalBytes += uint64(r.Bytes)
			continue
		}
		failed++
	}
	summary := fmt.Sprintf("%d ok, %d failed, %s generated", ok, failed, humanize.Bytes(totalBytes))
	if failed > 0 {
		fmt.Fprintln(w, failStyle.Render(summary))
		return
	}
	fmt.Fprintln(w, okStyle.Render(summary))
}
