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
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

var emitCmd = &cobra.Command{
	Use:   "emit <graph.msgpack>",
	Short: "Emit generated source for a single graph descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmit,
}

func init() {
	emitCmd.Flags().StringP("out", "o", "", "output source file (default: stdout)")
	emitCmd.Flags().String("config", "", "path to emitgen.toml; overrides the descriptor's embedded config")
	emitCmd.Flags().Bool("dynamic", false, "force dynamic=on, overriding config/descriptor")
	emitCmd.Flags().Bool("comm", false, "force comm=on, overriding config/descriptor")
	emitCmd.Flags().Bool("log", false, "force log=on, overriding config/descriptor")
}

func runEmit(cmd *cobra.Command, args []string) error {
	start := time.Now()
	source := args[0]

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer in.Close()

	graph, err := ir.DecodeGraph(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", source, err)
	}

	if err := applyConfigOverrides(cmd, graph); err != nil {
		return err
	}

	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}

	var buf countingWriter
	err = EmitGraph(graph, &buf)
	result := emitResult{Source: source, Bytes: buf.n, Duration: time.Since(start), Err: err}
	printEmitResult(cmd.OutOrStdout(), result)
	if err != nil {
		return err
	}

	if _, werr := out.Write(buf.data); werr != nil {
		return fmt.Errorf("write %s: %w", outPath, werr)
	}
	klog.V(1).InfoS("emit complete", "source", source, "bytes", buf.n)
	return nil
}

// applyConfigOverrides layers --config (lowest priority after the
// descriptor's own embedded EmitterConfig) and then the individual
// --dynamic/--comm/--log flags (highest priority) onto graph.Config.
func applyConfigOverrides(cmd *cobra.Command, graph *ir.Graph) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		graph.Config = cfg.emitterConfig()
	}

	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"dynamic", &graph.Config.Dynamic},
		{"comm", &graph.Config.Comm},
		{"log", &graph.Config.Log},
	} {
		if cmd.Flags().Changed(flag.name) {
			v, err := cmd.Flags().GetBool(flag.name)
			if err != nil {
				return err
			}
			*flag.dst = v
		}
	}
	return nil
}

// countingWriter buffers emitted bytes so the CLI can report a size and
// still write the file only after EmitGraph fully succeeds.
type countingWriter struct {
	data []byte
	n    int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	w.n += len(p)
	return len(p), nil
}
