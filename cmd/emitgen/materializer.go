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
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"github.com/x448/float16"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

// EmissionContext is handed to every emitter as a pointer, one context
// per emission run shared by all of that run's emitters; it is not copied
// per emitter. There is no process-wide mutable state for the tensor map,
// network-output name, or config. It bundles the read-only
// graph, the sink the dispatcher writes to, and the per-run scratch
// state (sanitizer, temp-name counter, run id for log correlation).
type EmissionContext struct {
	Graph    *ir.Graph
	Resolver *Resolver
	Writer   io.Writer
	RunID    uuid.UUID

	tempSeq int
}

// NewEmissionContext creates a context for one emission run over graph.
func NewEmissionContext(graph *ir.Graph, w io.Writer) *EmissionContext {
	return &EmissionContext{
		Graph:    graph,
		Resolver: NewResolver(),
		Writer:   w,
		RunID:    uuid.New(),
	}
}

// freshTemp returns a unique local name for a scratch arena conversion,
// scoped to this emission run. Every node is emitted straight into the
// body of the generated predict function with no per-node block, so the
// Zig `defer` that frees the local runs when predict returns, not before
// the next node.
func (ctx *EmissionContext) freshTemp(prefix string) string {
	ctx.tempSeq++
	return prefix + "_" + strconv.Itoa(ctx.tempSeq)
}

func (ctx *EmissionContext) writef(format string, args ...any) {
	fmt.Fprintf(ctx.Writer, format, args...)
}

// TensorPointer materializes the *tensor pointer* argument form (§4.C).
func (ctx *EmissionContext) TensorPointer(t *ir.ReadyTensor) string {
	return ctx.Resolver.Address(t, Pointer)
}

// TensorValue materializes a value-read argument form.
func (ctx *EmissionContext) TensorValue(t *ir.ReadyTensor) string {
	return ctx.Resolver.Address(t, Value)
}

// NullOrPointer materializes the *null-or-pointer* argument form for an
// optional input: the literal null marker if t is nil, else a pointer.
func (ctx *EmissionContext) NullOrPointer(t *ir.ReadyTensor) string {
	if t == nil {
		return "null"
	}
	return ctx.TensorPointer(t)
}

// UsizeArray materializes the *compile-time usize array* argument form
// from an attribute int-list. A nil slice and an empty-but-present slice
// both render as "present but empty" per §4.C, using the explicit
// empty-slice marker `&[_]usize{}` rather than an omitted argument.
func UsizeArray(vals []int64) (string, error) {
	if len(vals) == 0 {
		return "&[_]usize{}", nil
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		u, err := safecast.Conv[uint64](v)
		if err != nil {
			return "", fmt.Errorf("usize array element %d (%d): %w", i, v, err)
		}
		parts[i] = strconv.FormatUint(u, 10)
	}
	return "&[_]usize{" + strings.Join(parts, ", ") + "}", nil
}

// IsizeArray is UsizeArray's signed counterpart, used for pad/slice
// offsets that may be negative (ONNX allows negative Slice starts/ends).
func IsizeArray(vals []int64) string {
	if len(vals) == 0 {
		return "&[_]isize{}"
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "&[_]isize{" + strings.Join(parts, ", ") + "}"
}

// ScalarLiteral materializes the *scalar literal* argument form for an
// attribute that maps directly to a kernel argument (epsilon, alpha,
// axis, ...).
func ScalarLiteral(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Float16Literal materializes an F16 scalar as a Zig float16 literal
// built from its bit pattern, going through x448/float16 rather than a
// hand-rolled bit-twiddle so the rounding behavior matches a well-tested
// implementation.
func Float16Literal(f float64) string {
	bits := float16.Fromfloat32(float32(f)).Bits()
	return fmt.Sprintf("@bitCast(@as(u16, 0x%04x))", bits)
}

// RuntimeSlice is the result of materializing the *runtime-built slice*
// argument form (§4.C): a local variable name, the acquire statement
// that builds it from a tensor's data buffer, and the paired release
// statement that must be emitted once, at the end of the node's emission
// window (the acquire/release counts must match per §8's round-trip
// property).
type RuntimeSlice struct {
	VarName string
	Acquire string
	Release string
}

// BuildIntSlice emits a runtime conversion of src's int64 data into a
// local []isize, guarded by a deferred release — the materialization
// Reshape.shape, Split.split (from input), Slice's starts/ends/axes/
// steps, and ReduceMean's axes (from input) all need when their
// argument comes from tensor data rather than an attribute.
//
// The source dtype is always taken from the resolved ReadyTensor, never
// assumed to be float: the teacher's own Split emitter has a known bug
// where a float-typed conversion (`@intFromFloat`) is applied to an
// int64 split-size tensor (see SPEC_FULL.md); this never reproduces it.
func (ctx *EmissionContext) BuildIntSlice(node *ir.ReadyNode, src *ir.ReadyTensor, namePrefix string) (*RuntimeSlice, error) {
	dtype, err := ctx.Resolver.ResolveType(node, src)
	if err != nil {
		return nil, err
	}

	n := src.ElementCount()
	varName := ctx.freshTemp(namePrefix)
	srcExpr := ctx.TensorValue(src)

	var convExpr string
	switch dtype {
	case ir.I64, ir.I32, ir.I16, ir.I8:
		convExpr = fmt.Sprintf("@intCast(%s.data[i])", srcExpr)
	case ir.U8, ir.BOOL:
		convExpr = fmt.Sprintf("@intCast(%s.data[i])", srcExpr)
	default:
		return nil, ir.NewDiagnostic(ir.KindAttributeTypeMismatch, nodeName(node), src.Name).
			WithOp(node.OpType).
			WithExpectedActual("integer tensor", dtype.String()).
			WithDetail("runtime-built slice source must be an integer tensor, not %s", dtype)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "const %s = try allocator.alloc(isize, %d);\n", varName, n)
	fmt.Fprintf(&b, "for (0..%d) |i| %s[i] = %s;\n", n, varName, convExpr)

	return &RuntimeSlice{
		VarName: varName,
		Acquire: b.String(),
		Release: fmt.Sprintf("defer allocator.free(%s);\n", varName),
	}, nil
}

func nodeName(n *ir.ReadyNode) string {
	if n == nil || n.Proto == nil {
		return "<unknown>"
	}
	return n.Proto.Name
}
