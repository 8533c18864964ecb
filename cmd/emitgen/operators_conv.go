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
	RegisterEmitter("Conv", emitConv(false))
	RegisterEmitter("ConvInteger", emitConv(true))
	RegisterEmitter("MaxPool", emitPool("maxpool", true))
	RegisterEmitter("AveragePool", emitPool("avgpool", false))
	RegisterEmitter("BatchNormalization", emitBatchNormalization)
}

// spatialRank derives the number of spatial dimensions from an explicit
// kernel_shape attribute if present, else from the weight tensor's shape
// (W is [out_channels, in_channels/group, *kernel_shape]).
func spatialRank(node *ir.ReadyNode, w *ir.ReadyTensor, kernelShape []int64) int {
	if len(kernelShape) > 0 {
		return len(kernelShape)
	}
	if len(w.Shape) > 2 {
		return len(w.Shape) - 2
	}
	return 2
}

func ones(n int) []int64 {
	v := make([]int64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func zeros(n int) []int64 {
	return make([]int64, n)
}

// emitConv handles both Conv and ConvInteger (§4.D): the latter adds two
// optional zero-point inputs and accumulates in i32, but shares every
// attribute rule with Conv.
func emitConv(integer bool) EmitterFunc {
	return func(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
		opName := "Conv"
		if integer {
			opName = "ConvInteger"
		}

		x, err := requireInput(node, 0, "X")
		if err != nil {
			return nil, err
		}
		w, err := requireInput(node, 1, "W")
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

		autoPad, err := ExtractString(node, "auto_pad", "NOTSET", false)
		if err != nil {
			return nil, err
		}
		switch autoPad {
		case "NOTSET", "SAME_UPPER", "SAME_LOWER", "VALID":
		default:
			return nil, ir.NewDiagnostic(ir.KindUnsupportedMode, nodeName(node), "").
				WithOp(opName).WithAttr("auto_pad").
				WithExpectedActual("NOTSET|SAME_UPPER|SAME_LOWER|VALID", autoPad)
		}

		kernelShape, err := ExtractInts(node, "kernel_shape", nil, false)
		if err != nil {
			return nil, err
		}
		rank := spatialRank(node, w, kernelShape)

		dilations, err := ExtractInts(node, "dilations", ones(rank), false)
		if err != nil {
			return nil, err
		}
		pads, err := ExtractInts(node, "pads", zeros(2*rank), false)
		if err != nil {
			return nil, err
		}
		group, err := ExtractInt(node, "group", 1, false)
		if err != nil {
			return nil, err
		}
		// strides has no default: absence is fatal (§4.D).
		strides, err := ExtractInts(node, "strides", nil, true)
		if err != nil {
			return nil, err
		}

		stridesLit, err := UsizeArray(strides)
		if err != nil {
			return nil, err
		}
		dilationsLit, err := UsizeArray(dilations)
		if err != nil {
			return nil, err
		}
		padsLit, err := UsizeArray(pads)
		if err != nil {
			return nil, err
		}

		if integer {
			xZp := ctx.NullOrPointer(InputAt(node, 2))
			wZp := ctx.NullOrPointer(InputAt(node, 3))
			return call("conv_integer",
				ctx.TensorPointer(x), ctx.TensorPointer(w), xZp, wZp, ctx.TensorPointer(y),
				stridesLit, padsLit, dilationsLit, ScalarLiteral(group))
		}

		bias := ctx.NullOrPointer(InputAt(node, 2))
		return call("conv",
			ctx.TensorPointer(x), ctx.TensorPointer(w), bias, ctx.TensorPointer(y),
			stridesLit, padsLit, dilationsLit, ScalarLiteral(group))
	}
}

// emitPool handles MaxPool and AveragePool: both require kernel_shape,
// strides, and pads explicitly (§4.D: "emission fails if absent").
func emitPool(kernel string, isMax bool) EmitterFunc {
	return func(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
		x, err := requireInput(node, 0, "X")
		if err != nil {
			return nil, err
		}
		y, err := requireOutput(node, 0, "Y")
		if err != nil {
			return nil, err
		}

		kernelShape, err := ExtractInts(node, "kernel_shape", nil, true)
		if err != nil {
			return nil, err
		}
		strides, err := ExtractInts(node, "strides", nil, true)
		if err != nil {
			return nil, err
		}
		pads, err := ExtractInts(node, "pads", nil, true)
		if err != nil {
			return nil, err
		}
		dilations, err := ExtractInts(node, "dilations", ones(len(kernelShape)), false)
		if err != nil {
			return nil, err
		}
		_, err = ExtractString(node, "auto_pad", "NOTSET", false)
		if err != nil {
			return nil, err
		}

		kernelLit, err := UsizeArray(kernelShape)
		if err != nil {
			return nil, err
		}
		stridesLit, err := UsizeArray(strides)
		if err != nil {
			return nil, err
		}
		padsLit, err := UsizeArray(pads)
		if err != nil {
			return nil, err
		}
		dilationsLit, err := UsizeArray(dilations)
		if err != nil {
			return nil, err
		}

		args := []string{ctx.TensorPointer(x), ctx.TensorPointer(y), kernelLit, stridesLit, padsLit, dilationsLit}
		if isMax {
			storageOrder, err := ExtractInt(node, "storage_order", 0, false)
			if err != nil {
				return nil, err
			}
			ceilMode, err := ExtractInt(node, "ceil_mode", 0, false)
			if err != nil {
				return nil, err
			}
			args = append(args, ScalarLiteral(storageOrder), ScalarLiteral(ceilMode))
		} else {
			countIncludePad, err := ExtractInt(node, "count_include_pad", 0, false)
			if err != nil {
				return nil, err
			}
			args = append(args, ScalarLiteral(countIncludePad))
		}
		return call(kernel, args...)
	}
}

// emitBatchNormalization rejects training_mode!=0 outright (§4.D, S6): the
// runtime only supports the inference-time formula.
func emitBatchNormalization(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	x, err := requireInput(node, 0, "X")
	if err != nil {
		return nil, err
	}
	scale, err := requireInput(node, 1, "scale")
	if err != nil {
		return nil, err
	}
	bias, err := requireInput(node, 2, "B")
	if err != nil {
		return nil, err
	}
	mean, err := requireInput(node, 3, "input_mean")
	if err != nil {
		return nil, err
	}
	variance, err := requireInput(node, 4, "input_var")
	if err != nil {
		return nil, err
	}
	y, err := requireOutput(node, 0, "Y")
	if err != nil {
		return nil, err
	}

	trainingMode, err := ExtractInt(node, "training_mode", 0, false)
	if err != nil {
		return nil, err
	}
	if trainingMode != 0 {
		return nil, ir.NewDiagnostic(ir.KindTrainingNotSupported, nodeName(node), "").
			WithOp("BatchNormalization").
			WithDetail("training_mode=%d is not supported by the inference-only runtime", trainingMode)
	}

	epsilon, err := ExtractFloat(node, "epsilon", 1e-5, false)
	if err != nil {
		return nil, err
	}

	return call("batch_normalization",
		ctx.TensorPointer(x), ctx.TensorPointer(scale), ctx.TensorPointer(bias),
		ctx.TensorPointer(mean), ctx.TensorPointer(variance), ctx.TensorPointer(y),
		ScalarLiteral(epsilon))
}
