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
	"gonum.org/v1/gonum/floats"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

// call is a small constructor to keep the 44 operator emitters in
// operators_*.go terse and uniform.
func call(kernel string, args ...string) (*KernelCall, error) {
	return &KernelCall{Kernel: kernel, Args: args}, nil
}

// requireInput returns node.Inputs[idx], or a TensorNotFound diagnostic
// naming the node, the input's label and its 0-based positional slot if it
// is absent — every emitter in this package uses this for its mandatory
// positional inputs rather than indexing node.Inputs directly.
func requireInput(node *ir.ReadyNode, idx int, label string) (*ir.ReadyTensor, error) {
	t := InputAt(node, idx)
	if t == nil {
		return nil, ir.NewDiagnostic(ir.KindTensorNotFound, nodeName(node), label).
			WithOp(node.OpType).
			WithDetail("required input %q (position %d) is absent", label, idx)
	}
	return t, nil
}

// requireNonZeroShape rejects a tensor whose static shape carries a
// zero-sized dimension wherever an operator needs a non-degenerate
// output (Conv, Resize, Reshape's destination): this is §4.G's
// InvalidShape ("zero-dimension tensor where shape required"). The
// element-count product runs through gonum/floats; this is the only
// gonum call site, and every other shape count (ReadyTensor.ElementCount)
// is a native int64 loop.
func requireNonZeroShape(node *ir.ReadyNode, t *ir.ReadyTensor) error {
	if len(t.Shape) == 0 {
		return nil
	}
	dims := make([]float64, len(t.Shape))
	for i, d := range t.Shape {
		dims[i] = float64(d)
	}
	if floats.Prod(dims) == 0 {
		return ir.NewDiagnostic(ir.KindInvalidShape, nodeName(node), t.Name).
			WithOp(node.OpType).WithDetail("shape %v carries a zero-sized dimension", t.Shape)
	}
	return nil
}

// requireOutput is requireInput's counterpart for outputs, which §3
// guarantees are "always present, never optional" — this only guards
// against a malformed node with fewer outputs than the operator needs.
func requireOutput(node *ir.ReadyNode, idx int, label string) (*ir.ReadyTensor, error) {
	if idx < 0 || idx >= len(node.Outputs) {
		return nil, ir.NewDiagnostic(ir.KindTensorNotFound, nodeName(node), label).
			WithOp(node.OpType).
			WithDetail("required output %q (position %d) is absent", label, idx)
	}
	return node.Outputs[idx], nil
}

// --- Add, Sub, Mul, Div: binary, typed T x T -> T, broadcasting ---

func init() {
	RegisterEmitter("Add", emitBinary("add"))
	RegisterEmitter("Sub", emitBinary("sub"))
	RegisterEmitter("Mul", emitBinary("mul"))
	RegisterEmitter("Div", emitBinary("div"))
}

func emitBinary(kernel string) EmitterFunc {
	return func(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
		a, err := requireInput(node, 0, "A")
		if err != nil {
			return nil, err
		}
		b, err := requireInput(node, 1, "B")
		if err != nil {
			return nil, err
		}
		y, err := requireOutput(node, 0, "Y")
		if err != nil {
			return nil, err
		}
		return call(kernel, ctx.TensorPointer(a), ctx.TensorPointer(b), ctx.TensorPointer(y))
	}
}

// --- Sum, Mean: variadic elementwise across n inputs ---

func init() {
	RegisterEmitter("Sum", emitVariadic("sum"))
	RegisterEmitter("Mean", emitVariadic("mean"))
}

func emitVariadic(kernel string) EmitterFunc {
	return func(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
		inputs := PresentInputs(node)
		if len(inputs) == 0 {
			return nil, ir.NewDiagnostic(ir.KindEmptyInputList, nodeName(node), "").
				WithOp(node.OpType).WithDetail("variadic operator received zero inputs")
		}
		y, err := requireOutput(node, 0, "Y")
		if err != nil {
			return nil, err
		}
		args := make([]string, 0, len(inputs)+1)
		for _, in := range inputs {
			args = append(args, ctx.TensorPointer(in))
		}
		args = append(args, ctx.TensorPointer(y))
		return call(kernel, args...)
	}
}

// --- Unary elementwise family (Relu, Sigmoid, Tanh, Floor, Ceil, Sqrt,
//     Neg, Identity), plus Softmax/LogSoftmax and the parametric unaries
//     (LeakyRelu, Elu, Gelu) ---

func init() {
	for opType, kernel := range map[string]string{
		"Relu": "relu", "Sigmoid": "sigmoid", "Tanh": "tanh",
		"Floor": "floor", "Ceil": "ceil", "Sqrt": "sqrt",
		"Neg": "neg", "Identity": "identity",
	} {
		RegisterEmitter(opType, emitUnary(kernel))
	}
	RegisterEmitter("Softmax", emitSoftmax)
	RegisterEmitter("LogSoftmax", emitLogSoftmaxStub)
	RegisterEmitter("LeakyRelu", emitAlphaUnary("leaky_relu", 0.01))
	RegisterEmitter("Elu", emitAlphaUnary("elu", 1.0))
	RegisterEmitter("Gelu", emitGelu)
}

func emitUnary(kernel string) EmitterFunc {
	return func(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
		x, err := requireInput(node, 0, "X")
		if err != nil {
			return nil, err
		}
		y, err := requireOutput(node, 0, "Y")
		if err != nil {
			return nil, err
		}
		return call(kernel, ctx.TensorPointer(x), ctx.TensorPointer(y))
	}
}

func emitSoftmax(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	x, err := requireInput(node, 0, "X")
	if err != nil {
		return nil, err
	}
	y, err := requireOutput(node, 0, "Y")
	if err != nil {
		return nil, err
	}
	axis, err := ExtractInt(node, "axis", -1, false)
	if err != nil {
		return nil, err
	}
	return call("softmax", ctx.TensorPointer(x), ctx.TensorPointer(y), ScalarLiteral(axis))
}

// emitLogSoftmaxStub implements the explicit "currently unimplemented"
// note in §4.D's table: a comment stub, no kernel call.
func emitLogSoftmaxStub(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	ctx.writef("// LogSoftmax not implemented: node %s emits no kernel call\n", nodeName(node))
	return nil, nil
}

func emitAlphaUnary(kernel string, def float64) EmitterFunc {
	return func(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
		x, err := requireInput(node, 0, "X")
		if err != nil {
			return nil, err
		}
		y, err := requireOutput(node, 0, "Y")
		if err != nil {
			return nil, err
		}
		alpha, err := ExtractFloat(node, "alpha", def, false)
		if err != nil {
			return nil, err
		}
		return call(kernel, ctx.TensorPointer(x), ctx.TensorPointer(y), ScalarLiteral(alpha))
	}
}

func emitGelu(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	x, err := requireInput(node, 0, "X")
	if err != nil {
		return nil, err
	}
	y, err := requireOutput(node, 0, "Y")
	if err != nil {
		return nil, err
	}
	approximate, err := ExtractString(node, "approximate", "none", false)
	if err != nil {
		return nil, err
	}
	if approximate != "none" && approximate != "tanh" {
		return nil, ir.NewDiagnostic(ir.KindUnsupportedMode, nodeName(node), "").
			WithOp("Gelu").WithAttr("approximate").
			WithExpectedActual("none|tanh", approximate)
	}
	return call("gelu", ctx.TensorPointer(x), ctx.TensorPointer(y), ScalarLiteral(approximate))
}
