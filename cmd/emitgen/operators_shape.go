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

import "github.com/onnx-aot/emitgen/cmd/emitgen/ir"

func init() {
	RegisterEmitter("Reshape", emitReshape)
	RegisterEmitter("Squeeze", emitSqueeze)
	RegisterEmitter("Unsqueeze", emitUnsqueeze)
	RegisterEmitter("Flatten", emitFlatten)
	RegisterEmitter("Transpose", emitTranspose)
	RegisterEmitter("Shape", emitShape)
	RegisterEmitter("Slice", emitSlice)
	RegisterEmitter("Split", emitSplit)
	RegisterEmitter("Concat", emitConcat)
	RegisterEmitter("Gather", emitGather)
	RegisterEmitter("ReduceMean", emitReduceMean)
}

// emitReshape prefers the shape attribute (pre-opset-5 style some graphs
// still carry) over the shape input; without the attribute the shape
// comes from the shape input's runtime data (§4.D, S2), and with neither
// present emission fails with TensorNotFound.
func emitReshape(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	reshaped, err := requireOutput(node, 0, "reshaped")
	if err != nil {
		return nil, err
	}
	if err := requireNonZeroShape(node, reshaped); err != nil {
		return nil, err
	}
	allowzero, err := ExtractInt(node, "allowzero", 0, false)
	if err != nil {
		return nil, err
	}

	if HasAttr(node, "shape") {
		shape, err := ExtractInts(node, "shape", nil, true)
		if err != nil {
			return nil, err
		}
		shapeLit := IsizeArray(shape)
		return call("reshape", ctx.TensorPointer(data), ctx.TensorPointer(reshaped), shapeLit, ScalarLiteral(allowzero != 0))
	}

	shapeTensor := InputAt(node, 1)
	if shapeTensor == nil {
		return nil, ir.NewDiagnostic(ir.KindTensorNotFound, nodeName(node), "shape").
			WithOp("Reshape").WithDetail("neither a shape attribute nor a shape input is present")
	}
	slice, err := ctx.BuildIntSlice(node, shapeTensor, "reshape_shape")
	if err != nil {
		return nil, err
	}
	ctx.writef("%s", slice.Acquire)
	defer ctx.writef("%s", slice.Release)
	return call("reshape", ctx.TensorPointer(data), ctx.TensorPointer(reshaped), slice.VarName, ScalarLiteral(allowzero != 0))
}

// axesFromAttrOrInput is the shared pattern behind Squeeze/Unsqueeze/
// ReduceMean: an axes list that may come from an (opset-dependent)
// optional input, falling back to an attribute.
func axesFromAttrOrInput(ctx *EmissionContext, node *ir.ReadyNode, inputIdx int, attrDefault []int64, attrRequired bool) (string, func(), error) {
	if t := InputAt(node, inputIdx); t != nil {
		slice, err := ctx.BuildIntSlice(node, t, "axes")
		if err != nil {
			return "", nil, err
		}
		ctx.writef("%s", slice.Acquire)
		return slice.VarName, func() { ctx.writef("%s", slice.Release) }, nil
	}
	axes, err := ExtractInts(node, "axes", attrDefault, attrRequired)
	if err != nil {
		return "", nil, err
	}
	return IsizeArray(axes), func() {}, nil
}

func emitSqueeze(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	squeezed, err := requireOutput(node, 0, "squeezed")
	if err != nil {
		return nil, err
	}
	if InputAt(node, 1) == nil && !HasAttr(node, "axes") {
		return call("squeeze", ctx.TensorPointer(data), ctx.TensorPointer(squeezed), "null")
	}
	axesLit, release, err := axesFromAttrOrInput(ctx, node, 1, nil, false)
	if err != nil {
		return nil, err
	}
	defer release()
	return call("squeeze", ctx.TensorPointer(data), ctx.TensorPointer(squeezed), axesLit)
}

func emitUnsqueeze(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	expanded, err := requireOutput(node, 0, "expanded")
	if err != nil {
		return nil, err
	}
	// Opset < 13 carries axes only as an attribute; opset >= 13 moves it
	// to input 1. A required attribute default keeps the <13 path honest
	// about a genuinely missing axes list.
	axesLit, release, err := axesFromAttrOrInput(ctx, node, 1, nil, InputAt(node, 1) == nil)
	if err != nil {
		return nil, err
	}
	defer release()
	return call("unsqueeze", ctx.TensorPointer(data), ctx.TensorPointer(expanded), axesLit)
}

func emitFlatten(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	input, err := requireInput(node, 0, "input")
	if err != nil {
		return nil, err
	}
	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}
	axis, err := ExtractInt(node, "axis", 1, false)
	if err != nil {
		return nil, err
	}
	return call("flatten", ctx.TensorPointer(input), ctx.TensorPointer(output), ScalarLiteral(axis))
}

// emitTranspose defaults perm to the reversed-axes permutation when absent
// (§4.D): the input's static rank is already in hand at emit time, so the
// default is materialized here rather than pushed onto tensor_math as an
// empty-and-ambiguous argument.
func emitTranspose(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	transposed, err := requireOutput(node, 0, "transposed")
	if err != nil {
		return nil, err
	}
	perm, err := ExtractInts(node, "perm", nil, false)
	if err != nil {
		return nil, err
	}
	if len(perm) == 0 {
		perm = reverseAxes(len(data.Shape))
	}
	permLit, err := UsizeArray(perm)
	if err != nil {
		return nil, err
	}
	return call("transpose", ctx.TensorPointer(data), ctx.TensorPointer(transposed), permLit)
}

// reverseAxes is ONNX Transpose's documented perm default: the input's
// axes in reverse order.
func reverseAxes(rank int) []int64 {
	perm := make([]int64, rank)
	for i := range perm {
		perm[i] = int64(rank - 1 - i)
	}
	return perm
}

func emitShape(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	shapeOut, err := requireOutput(node, 0, "shape")
	if err != nil {
		return nil, err
	}
	start, err := ExtractInt(node, "start", 0, false)
	if err != nil {
		return nil, err
	}
	// end has no ONNX default (unset means "through the last axis"); the
	// runtime represents that as a nil-sentinel, which we can't express
	// as an INT default since absence itself is the signal.
	var endLit string
	if HasAttr(node, "end") {
		end, err := ExtractInt(node, "end", 0, true)
		if err != nil {
			return nil, err
		}
		endLit = ScalarLiteral(end)
	} else {
		endLit = "null"
	}
	return call("shape", ctx.TensorPointer(data), ctx.TensorPointer(shapeOut), ScalarLiteral(start), endLit)
}

// emitSlice materializes starts/ends always from input data (ONNX Slice
// has carried its offsets as inputs since opset 10); axes/steps are
// optional and default to the identity selection.
func emitSlice(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	starts, err := requireInput(node, 1, "starts")
	if err != nil {
		return nil, err
	}
	ends, err := requireInput(node, 2, "ends")
	if err != nil {
		return nil, err
	}
	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}

	startsSlice, err := ctx.BuildIntSlice(node, starts, "slice_starts")
	if err != nil {
		return nil, err
	}
	endsSlice, err := ctx.BuildIntSlice(node, ends, "slice_ends")
	if err != nil {
		return nil, err
	}
	ctx.writef("%s%s", startsSlice.Acquire, endsSlice.Acquire)
	defer ctx.writef("%s%s", startsSlice.Release, endsSlice.Release)

	axesArg, releaseAxes := "null", func() {}
	if axes := InputAt(node, 3); axes != nil {
		s, err := ctx.BuildIntSlice(node, axes, "slice_axes")
		if err != nil {
			return nil, err
		}
		ctx.writef("%s", s.Acquire)
		axesArg = s.VarName
		releaseAxes = func() { ctx.writef("%s", s.Release) }
	}
	defer releaseAxes()

	stepsArg, releaseSteps := "null", func() {}
	if steps := InputAt(node, 4); steps != nil {
		s, err := ctx.BuildIntSlice(node, steps, "slice_steps")
		if err != nil {
			return nil, err
		}
		ctx.writef("%s", s.Acquire)
		stepsArg = s.VarName
		releaseSteps = func() { ctx.writef("%s", s.Release) }
	}
	defer releaseSteps()

	return call("slice", ctx.TensorPointer(data), ctx.TensorPointer(output),
		startsSlice.VarName, endsSlice.VarName, axesArg, stepsArg)
}

// emitSplit resolves split sizes from (priority order per §4.D): the
// split input tensor, then the deprecated split attribute, then an even
// division across the output count — never via a float-typed conversion
// of an int64 tensor (the known teacher bug documented in materializer.go).
func emitSplit(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "input")
	if err != nil {
		return nil, err
	}
	axis, err := ExtractInt(node, "axis", 0, false)
	if err != nil {
		return nil, err
	}

	outPointers := make([]string, len(node.Outputs))
	for i, out := range node.Outputs {
		outPointers[i] = ctx.TensorPointer(out)
	}

	if split := InputAt(node, 1); split != nil {
		slice, err := ctx.BuildIntSlice(node, split, "split_sizes")
		if err != nil {
			return nil, err
		}
		ctx.writef("%s", slice.Acquire)
		defer ctx.writef("%s", slice.Release)
		args := append([]string{ctx.TensorPointer(data), slice.VarName, ScalarLiteral(axis)}, outPointers...)
		return call("split", args...)
	}

	if HasAttr(node, "split") {
		sizes, err := ExtractInts(node, "split", nil, true)
		if err != nil {
			return nil, err
		}
		sizesLit, err := UsizeArray(sizes)
		if err != nil {
			return nil, err
		}
		args := append([]string{ctx.TensorPointer(data), sizesLit, ScalarLiteral(axis)}, outPointers...)
		return call("split", args...)
	}

	n := int64(len(node.Outputs))
	if n == 0 {
		return nil, ir.NewDiagnostic(ir.KindEmptyInputList, nodeName(node), "").
			WithOp("Split").WithDetail("no outputs to divide input evenly across")
	}
	args := append([]string{ctx.TensorPointer(data), "null", ScalarLiteral(axis), ScalarLiteral(n)}, outPointers...)
	return call("split_even", args...)
}

// emitConcat special-cases axis=0 with ragged input ranks (§4.D): the
// uniform-rank kernel assumes every input shares rank, so a genuinely
// ragged axis-0 concat needs the tolerant kernel instead.
func emitConcat(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	inputs := PresentInputs(node)
	if len(inputs) == 0 {
		return nil, ir.NewDiagnostic(ir.KindEmptyInputList, nodeName(node), "").
			WithOp("Concat").WithDetail("variadic operator received zero inputs")
	}
	output, err := requireOutput(node, 0, "concat_result")
	if err != nil {
		return nil, err
	}
	axis, err := ExtractInt(node, "axis", 0, true)
	if err != nil {
		return nil, err
	}

	ragged := false
	if axis == 0 {
		rank := len(inputs[0].Shape)
		for _, in := range inputs[1:] {
			if len(in.Shape) != rank {
				ragged = true
				break
			}
		}
	}

	kernel := "concat"
	if ragged {
		kernel = "concat_ragged_axis0"
	}
	args := make([]string, 0, len(inputs)+2)
	for _, in := range inputs {
		args = append(args, ctx.TensorPointer(in))
	}
	args = append(args, ctx.TensorPointer(output), ScalarLiteral(axis))
	return call(kernel, args...)
}

func emitGather(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	indices, err := requireInput(node, 1, "indices")
	if err != nil {
		return nil, err
	}
	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}
	axis, err := ExtractInt(node, "axis", 0, false)
	if err != nil {
		return nil, err
	}

	idxSlice, err := ctx.BuildIntSlice(node, indices, "gather_indices")
	if err != nil {
		return nil, err
	}
	ctx.writef("%s", idxSlice.Acquire)
	defer ctx.writef("%s", idxSlice.Release)

	return call("gather", ctx.TensorPointer(data), idxSlice.VarName, ctx.TensorPointer(output), ScalarLiteral(axis))
}

func emitReduceMean(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	reduced, err := requireOutput(node, 0, "reduced")
	if err != nil {
		return nil, err
	}
	keepdims, err := ExtractInt(node, "keepdims", 1, false)
	if err != nil {
		return nil, err
	}
	noopWithEmptyAxes, err := ExtractInt(node, "noop_with_empty_axes", 0, false)
	if err != nil {
		return nil, err
	}
	axesLit, release, err := axesFromAttrOrInput(ctx, node, 1, nil, false)
	if err != nil {
		return nil, err
	}
	defer release()

	return call("reduce_mean", ctx.TensorPointer(data), ctx.TensorPointer(reduced),
		axesLit, ScalarLiteral(keepdims != 0), ScalarLiteral(noopWithEmptyAxes != 0))
}

