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

// Command emitgen is the ahead-of-time ONNX-to-source operator-dispatch
// and kernel-emission engine's CLI: it decodes a graph descriptor and
// drives the dispatcher over every node, one emission at a time or in a
// concurrent batch.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var rootCmd = &cobra.Command{
	Use:   "emitgen",
	Short: "AOT operator-dispatch and kernel-emission engine for ONNX graphs",
	Long: "emitgen consumes a normalized per-node ONNX graph descriptor and emits, " +
		"for each supported operator, a correctly-typed kernel invocation against " +
		"an external tensor math runtime.",
}

func main() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)
	defer klog.Flush()

	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(batchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
