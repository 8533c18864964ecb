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
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Emit generated source for every *.msgpack graph descriptor in dir",
	Long: "Each graph descriptor is an independent emission: batch concurrency " +
		"fans out across graphs, never within one graph's single-threaded emission (§5).",
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("out", "o", ".", "output directory for generated source files")
	batchCmd.Flags().String("config", "", "path to emitgen.toml")
	batchCmd.Flags().Int("jobs", 0, "max concurrent emissions (0: use config, default 1)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	sources, err := filepath.Glob(filepath.Join(dir, "*.msgpack"))
	if err != nil {
		return fmt.Errorf("glob %s: %w", dir, err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no *.msgpack files found in %s", dir)
	}

	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	if jobs <= 0 {
		jobs = 1
		if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			jobs = cfg.Batch.Jobs
		}
	}

	bar := progressbar.NewOptions(len(sources),
		progressbar.OptionSetDescription("emitting"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionClearOnFinish(),
	)

	// Results are written to disjoint indices by each goroutine, matching
	// the index-owns-slot pattern used for parallel per-file work in the
	// wider corpus — no mutex needed (vovakirdan-surge/internal/driver/parallel.go).
	results := make([]emitResult, len(sources))

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(sources)))

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = emitOne(source, outDir)
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch emission: %w", err)
	}

	for _, r := range results {
		printEmitResult(cmd.OutOrStdout(), r)
	}
	printBatchSummary(cmd.OutOrStdout(), results)

	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%d of %d emissions failed", countFailures(results), len(results))
		}
	}
	return nil
}

// emitOne runs one graph's decode+EmitGraph+write as a single independent
// unit of batch work; it never shares an EmissionContext with any other
// graph in the batch.
func emitOne(source, outDir string) emitResult {
	start := time.Now()

	f, err := os.Open(source)
	if err != nil {
		return emitResult{Source: source, Err: fmt.Errorf("open %s: %w", source, err)}
	}
	defer f.Close()

	graph, err := ir.DecodeGraph(f)
	if err != nil {
		return emitResult{Source: source, Err: fmt.Errorf("decode %s: %w", source, err)}
	}

	var buf countingWriter
	if err := EmitGraph(graph, &buf); err != nil {
		return emitResult{Source: source, Duration: time.Since(start), Err: err}
	}

	outPath := filepath.Join(outDir, stemOf(source)+".zig")
	if err := os.WriteFile(outPath, buf.data, 0o644); err != nil {
		return emitResult{Source: source, Err: fmt.Errorf("write %s: %w", outPath, err)}
	}

	klog.V(1).InfoS("batch emit complete", "source", source, "out", outPath, "bytes", buf.n)
	return emitResult{Source: source, Bytes: buf.n, Duration: time.Since(start)}
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func countFailures(results []emitResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
