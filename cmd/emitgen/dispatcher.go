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
	"strings"

	"k8s.io/klog/v2"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

// KernelCall is the call-site an operator emitter produces: a kernel
// name and its already-materialized textual arguments. Dispatch renders
// it with the common fallible-suffix (§4.F) so every emitted call
// composes into one complete fallible statement.
type KernelCall struct {
	Kernel string
	Args   []string
}

// EmitterFunc is the signature every operator emitter in the registry
// (component D) implements. A nil *KernelCall with a nil error means the
// emitter already wrote everything it needed directly (Constant's
// hoisted-tensor comment or inline literal, LogSoftmax's unimplemented
// stub) and Dispatch
// must not append a fallible-suffixed call.
type EmitterFunc func(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error)

// registry is the Operator Emitter Registry (component D). Populated by
// RegisterEmitter calls in the operators_*.go files' init() functions.
var registry = map[string]EmitterFunc{}

// RegisterEmitter adds an emitter for opType. Panics on duplicate
// registration, which can only happen from a programming error in this
// package (there is exactly one emitter per operator by construction).
func RegisterEmitter(opType string, fn EmitterFunc) {
	if _, exists := registry[opType]; exists {
		panic("emitgen: duplicate emitter registered for " + opType)
	}
	registry[opType] = fn
}

// Dispatch implements component E for a single node: it emits the
// preamble, looks up the node's operator in the registry, and either
// emits the unreachable fallback stub (unknown operator — the single
// soft failure mode, §7) or calls the emitter and appends the common
// fallible-suffix to its kernel call.
func Dispatch(ctx *EmissionContext, node *ir.ReadyNode) error {
	klog.V(2).InfoS("dispatch", "run", ctx.RunID, "op", node.OpType, "node", nodeName(node))

	if err := emitPreamble(ctx, node); err != nil {
		return err
	}

	emitter, ok := registry[node.OpType]
	if !ok {
		emitUnsupportedStub(ctx, node)
		return nil
	}

	call, err := emitter(ctx, node)
	if err != nil {
		return err
	}
	if call == nil {
		// Constant (every value form) and LogSoftmax (unimplemented
		// stub) are the two emitters allowed to skip the kernel call.
		return nil
	}

	ctx.writef("tensor_math.%s(%s) catch |err| return err;\n", call.Kernel, strings.Join(call.Args, ", "))
	return nil
}

// emitPreamble writes the operator comment block, the log hook, and the
// dynamic-allocation prologue, in that order, per §4.F.
func emitPreamble(ctx *EmissionContext, node *ir.ReadyNode) error {
	cfg := ctx.Graph.Config

	if cfg.Comm {
		emitCommentBlock(ctx, node)
	}
	if cfg.Log {
		ctx.writef("if (log_function) |log_fn| log_fn(%q);\n", node.OpType)
	}
	if cfg.Dynamic {
		for _, out := range node.Outputs {
			if err := emitDynamicAlloc(ctx, node, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitDynamicAlloc emits one output's allocation + scoped release, per
// §4.F / §8 property 4: exactly one allocation, and — unless this
// output is the network's designated return value — exactly one
// deferred release.
func emitDynamicAlloc(ctx *EmissionContext, node *ir.ReadyNode, out *ir.ReadyTensor) error {
	dtype, err := ctx.Resolver.ResolveType(node, out)
	if err != nil {
		return err
	}
	id := ctx.Resolver.Identifier(out)
	shapeLit, err := UsizeArray(out.Shape)
	if err != nil {
		return fmt.Errorf("node %s output %s: %w", nodeName(node), out.Name, err)
	}

	ctx.writef("const shape_%s: []const usize = %s;\n", id, shapeLit)
	ctx.writef("var tensor_%s = try allocator.allocTensor(%s, shape_%s);\n", id, zigTypeToken(dtype), id)
	if out.Name != ctx.Graph.NetworkOutput {
		ctx.writef("defer allocator.free(tensor_%s);\n", id)
	}
	return nil
}

// emitCommentBlock emits the human-readable operator comment (§4.F),
// naming the operator and its sanitized input/output identifiers.
func emitCommentBlock(ctx *EmissionContext, node *ir.ReadyNode) {
	var ins, outs []string
	for _, t := range node.Inputs {
		if t == nil {
			ins = append(ins, "_")
			continue
		}
		ins = append(ins, ctx.Resolver.Identifier(t))
	}
	for _, t := range node.Outputs {
		outs = append(outs, ctx.Resolver.Identifier(t))
	}
	ctx.writef("// %s: %s -> %s\n", node.OpType, strings.Join(ins, ", "), strings.Join(outs, ", "))
}

// emitUnsupportedStub emits the runtime-unreachable marker for an
// operator not present in the registry (§4.D "Unsupported operator
// policy", §8 property 6): emission continues, no kernel is invoked.
func emitUnsupportedStub(ctx *EmissionContext, node *ir.ReadyNode) {
	ctx.writef("unreachable; // unsupported operator: %s (node %s)\n", node.OpType, nodeName(node))
}

// zigTypeToken maps a DType to the scalar type token used in the
// generated Zig source (allocator/tensor_math call sites).
func zigTypeToken(d ir.DType) string {
	switch d {
	case ir.F16:
		return "f16"
	case ir.F32:
		return "f32"
	case ir.F64:
		return "f64"
	case ir.I8:
		return "i8"
	case ir.U8:
		return "u8"
	case ir.I16:
		return "i16"
	case ir.I32:
		return "i32"
	case ir.I64:
		return "i64"
	case ir.BOOL:
		return "bool"
	default:
		return "u8" // STRING / UNDEFINED: opaque byte representation
	}
}
