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
	"bytes"
	"fmt"
	"io"

	"k8s.io/klog/v2"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

// EmitGraph drives the Dispatcher (component E) over every node of
// graph, in node-visit order (§5: "ordering of emitted statements is
// therefore deterministic and equals node-visit order"), and writes a
// complete source file to w.
//
// On any diagnostic, the caller should discard whatever EmitGraph wrote:
// per §7 ("The output sink is left in an indeterminate state; the
// caller discards it"), EmitGraph itself buffers internally and never
// writes a partial file to w — it returns the error instead.
func EmitGraph(graph *ir.Graph, w io.Writer) error {
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)

	klog.V(1).InfoS("emission start", "run", ctx.RunID, "nodes", len(graph.Nodes))

	buf.WriteString("// Code generated by emitgen. DO NOT EDIT.\n\n")
	buf.WriteString("const tensor_math = @import(\"tensor_math.zig\");\n")
	buf.WriteString("const param_lib = @import(\"param_lib.zig\");\n\n")
	buf.WriteString("pub fn predict(allocator: Allocator, log_function: ?LogFn) !void {\n")

	for _, node := range graph.Nodes {
		if err := Dispatch(ctx, node); err != nil {
			klog.V(1).InfoS("emission failed", "run", ctx.RunID, "node", nodeName(node), "err", err)
			return fmt.Errorf("emit node %s (%s): %w", nodeName(node), node.OpType, err)
		}
	}

	buf.WriteString("}\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write generated source: %w", err)
	}
	klog.V(1).InfoS("emission complete", "run", ctx.RunID, "bytes", buf.Len())
	return nil
}
