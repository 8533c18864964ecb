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
	"strconv"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

func init() {
	RegisterEmitter("Pad", emitPad)
	RegisterEmitter("Resize", emitResize)
	RegisterEmitter("Constant", emitConstant)
	RegisterEmitter("Cast", emitCast)
	RegisterEmitter("OneHot", emitOneHot)
	RegisterEmitter("DynamicQuantizeLinear", emitDynamicQuantizeLinear)
	RegisterEmitter("Clip", emitClip)
}

// emitPad requires `pads` to be an initializer (§4.D): a pads tensor whose
// values are not known at emission time cannot be turned into a
// compile-time shape literal, which is an InvalidShape failure here
// (decided per the Open Question this leaves otherwise unresolved).
func emitPad(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	data, err := requireInput(node, 0, "data")
	if err != nil {
		return nil, err
	}
	padsTensor, err := requireInput(node, 1, "pads")
	if err != nil {
		return nil, err
	}
	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}

	if padsTensor.Category != ir.INITIALIZER {
		return nil, ir.NewDiagnostic(ir.KindInvalidShape, nodeName(node), padsTensor.Name).
			WithOp("Pad").WithDetail("pads must be an initializer; got category %s", padsTensor.Category)
	}
	if padsTensor.Proto == nil || len(padsTensor.Proto.Int64Data) == 0 {
		return nil, ir.NewDiagnostic(ir.KindInvalidShape, nodeName(node), padsTensor.Name).
			WithOp("Pad").WithDetail("pads initializer carries no decoded int64 data")
	}
	padsLit, err := UsizeArray(padsTensor.Proto.Int64Data)
	if err != nil {
		return nil, err
	}

	mode, err := ExtractString(node, "mode", "constant", false)
	if err != nil {
		return nil, err
	}
	switch mode {
	case "constant", "reflect", "edge", "wrap":
	default:
		return nil, ir.NewDiagnostic(ir.KindUnsupportedMode, nodeName(node), "").
			WithOp("Pad").WithAttr("mode").
			WithExpectedActual("constant|reflect|edge|wrap", mode)
	}

	constValue := ctx.NullOrPointer(InputAt(node, 2))
	axes := ctx.NullOrPointer(InputAt(node, 3))

	return call("pad", ctx.TensorPointer(data), ctx.TensorPointer(output),
		padsLit, strconv.Quote(mode), constValue, axes)
}

// emitResize threads roi/scales/sizes as null-or-pointer since all three
// are optional (§4.D).
func emitResize(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	x, err := requireInput(node, 0, "X")
	if err != nil {
		return nil, err
	}
	y, err := requireOutput(node, 0, "Y")
	if err != nil {
		return nil, err
	}
	if err := requireNonZeroShape(node, y); err != nil {
		return nil, err
	}

	antialias, err := ExtractInt(node, "antialias", 0, false)
	if err != nil {
		return nil, err
	}
	axes, err := ExtractInts(node, "axes", nil, false)
	if err != nil {
		return nil, err
	}
	coordMode, err := ExtractString(node, "coordinate_transformation_mode", "half_pixel", false)
	if err != nil {
		return nil, err
	}
	cubicCoeffA, err := ExtractFloat(node, "cubic_coeff_a", -0.75, false)
	if err != nil {
		return nil, err
	}
	excludeOutside, err := ExtractInt(node, "exclude_outside", 0, false)
	if err != nil {
		return nil, err
	}
	extrapolationValue, err := ExtractFloat(node, "extrapolation_value", 0.0, false)
	if err != nil {
		return nil, err
	}
	keepAspect, err := ExtractString(node, "keep_aspect_ratio_policy", "stretch", false)
	if err != nil {
		return nil, err
	}
	mode, err := ExtractString(node, "mode", "nearest", false)
	if err != nil {
		return nil, err
	}
	nearestMode, err := ExtractString(node, "nearest_mode", "round_prefer_floor", false)
	if err != nil {
		return nil, err
	}

	axesLit, err := UsizeArray(axes)
	if err != nil {
		return nil, err
	}
	roi := ctx.NullOrPointer(InputAt(node, 1))
	scales := ctx.NullOrPointer(InputAt(node, 2))
	sizes := ctx.NullOrPointer(InputAt(node, 3))

	return call("resize",
		ctx.TensorPointer(x), roi, scales, sizes, ctx.TensorPointer(y),
		ScalarLiteral(antialias != 0), axesLit,
		strconv.Quote(coordMode), ScalarLiteral(cubicCoeffA),
		ScalarLiteral(excludeOutside != 0), ScalarLiteral(extrapolationValue),
		strconv.Quote(keepAspect), strconv.Quote(mode), strconv.Quote(nearestMode))
}

// emitConstant implements the three-way split §4.D and §9 describe: a
// hoisted TENSOR value is already materialized in param_lib by an
// external pre-pass and only gets a comment here; scalar/1-D numeric
// values are materialized inline with no runtime call; string constants
// get a zero-placeholder with an explanatory comment. Exactly one of the
// eight value* attributes must be present.
func emitConstant(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	present := 0
	var which string
	for _, name := range []string{"value", "sparse_value", "value_float", "value_floats", "value_int", "value_ints", "value_string", "value_strings"} {
		if HasAttr(node, name) {
			present++
			which = name
		}
	}
	if present == 0 {
		return nil, ir.AttributeMissing(node, "value*")
	}
	if present > 1 {
		return nil, ir.NewDiagnostic(ir.KindAttributeTypeMismatch, nodeName(node), "").
			WithOp("Constant").WithAttr("value").
			WithExpectedActual("exactly one value* attribute", "multiple").
			WithDetail("exactly one value* attribute is allowed, found %d", present)
	}

	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}
	id := ctx.Resolver.Identifier(output)

	switch which {
	case "value", "sparse_value":
		ctx.writef("// Constant %s: %s hoisted to param_lib.tensor_%s by the weight pre-pass\n", nodeName(node), which, id)
		return nil, nil
	case "value_float":
		v, err := ExtractFloat(node, "value_float", 0, true)
		if err != nil {
			return nil, err
		}
		ctx.writef("const tensor_%s: f32 = %s;\n", id, ScalarLiteral(v))
		return nil, nil
	case "value_int":
		v, err := ExtractInt(node, "value_int", 0, true)
		if err != nil {
			return nil, err
		}
		ctx.writef("const tensor_%s: i64 = %s;\n", id, ScalarLiteral(v))
		return nil, nil
	case "value_floats":
		v, err := ExtractFloats(node, "value_floats", nil, true)
		if err != nil {
			return nil, err
		}
		lit := make([]string, len(v))
		for i, f := range v {
			lit[i] = ScalarLiteral(f)
		}
		ctx.writef("const tensor_%s = [_]f32{%s};\n", id, joinComma(lit))
		return nil, nil
	case "value_ints":
		v, err := ExtractInts(node, "value_ints", nil, true)
		if err != nil {
			return nil, err
		}
		ctx.writef("const tensor_%s = %s;\n", id, IsizeArray(v))
		return nil, nil
	default: // value_string, value_strings
		ctx.writef("// Constant %s: %s is a string constant; emitting a zero placeholder\n", nodeName(node), which)
		ctx.writef("const tensor_%s: u8 = 0;\n", id)
		return nil, nil
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// emitCast resolves the source type via the Name & Type Resolver and the
// target type from the `to` attribute, which carries the ONNX TensorProto
// DataType enum value (not an ir.DType — the mapping is the emitter's job).
func emitCast(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	input, err := requireInput(node, 0, "input")
	if err != nil {
		return nil, err
	}
	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}

	srcType, err := ctx.Resolver.ResolveType(node, input)
	if err != nil {
		return nil, err
	}
	to, err := ExtractInt(node, "to", 0, true)
	if err != nil {
		return nil, err
	}
	dstType := onnxElemTypeToDType(to)
	if dstType == ir.UNDEFINED {
		return nil, ir.NewDiagnostic(ir.KindAttributeTypeMismatch, nodeName(node), "").
			WithOp("Cast").WithAttr("to").WithDetail("unrecognized ONNX elem_type %d", to)
	}

	return call("cast", ctx.TensorPointer(input), ctx.TensorPointer(output),
		strconv.Quote(srcType.String()), strconv.Quote(dstType.String()))
}

// onnxElemTypeToDType maps the ONNX TensorProto.DataType enum (as carried
// literally by the `to` attribute) to our closed DType set.
func onnxElemTypeToDType(onnxType int64) ir.DType {
	switch onnxType {
	case 1:
		return ir.F32
	case 2:
		return ir.U8
	case 3:
		return ir.I8
	case 5:
		return ir.I16
	case 6:
		return ir.I32
	case 7:
		return ir.I64
	case 9:
		return ir.BOOL
	case 10:
		return ir.F16
	case 11:
		return ir.F64
	case 8:
		return ir.STRING
	default:
		return ir.UNDEFINED
	}
}

// emitOneHot reads depth as a scalar from the depth tensor's data[0]
// rather than threading it as a runtime pointer (§4.D): depth must be
// known to size the output's new axis at emission time.
func emitOneHot(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	indices, err := requireInput(node, 0, "indices")
	if err != nil {
		return nil, err
	}
	depthTensor, err := requireInput(node, 1, "depth")
	if err != nil {
		return nil, err
	}
	values, err := requireInput(node, 2, "values")
	if err != nil {
		return nil, err
	}
	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}

	if depthTensor.Proto == nil || len(depthTensor.Proto.Int64Data) == 0 {
		return nil, ir.NewDiagnostic(ir.KindInvalidShape, nodeName(node), depthTensor.Name).
			WithOp("OneHot").WithDetail("depth tensor carries no decoded scalar data")
	}
	depth := depthTensor.Proto.Int64Data[0]

	axis, err := ExtractInt(node, "axis", -1, false)
	if err != nil {
		return nil, err
	}
	valuesType, err := ctx.Resolver.ResolveType(node, values)
	if err != nil {
		return nil, err
	}

	idxSlice, err := ctx.BuildIntSlice(node, indices, "onehot_indices")
	if err != nil {
		return nil, err
	}
	ctx.writef("%s", idxSlice.Acquire)
	defer ctx.writef("%s", idxSlice.Release)

	return call("one_hot", idxSlice.VarName, ScalarLiteral(depth), ctx.TensorPointer(values),
		ctx.TensorPointer(output), ScalarLiteral(axis), strconv.Quote(valuesType.String()))
}

// emitDynamicQuantizeLinear is output-arity 3: the quantized tensor plus
// its derived scale and zero-point (§4.D).
func emitDynamicQuantizeLinear(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	x, err := requireInput(node, 0, "x")
	if err != nil {
		return nil, err
	}
	y, err := requireOutput(node, 0, "y")
	if err != nil {
		return nil, err
	}
	yScale, err := requireOutput(node, 1, "y_scale")
	if err != nil {
		return nil, err
	}
	yZeroPoint, err := requireOutput(node, 2, "y_zero_point")
	if err != nil {
		return nil, err
	}
	return call("dynamic_quantize_linear",
		ctx.TensorPointer(x), ctx.TensorPointer(y), ctx.TensorPointer(yScale), ctx.TensorPointer(yZeroPoint))
}

func emitClip(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	input, err := requireInput(node, 0, "input")
	if err != nil {
		return nil, err
	}
	output, err := requireOutput(node, 0, "output")
	if err != nil {
		return nil, err
	}
	min := ctx.NullOrPointer(InputAt(node, 1))
	max := ctx.NullOrPointer(InputAt(node, 2))
	return call("clip", ctx.TensorPointer(input), ctx.TensorPointer(output), min, max)
}
