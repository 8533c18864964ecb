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

// cacheLineBytes is the threshold §4.D's MatMul note and S5 are stated
// against: "last-dim width of B × element size ≥ cache-line size".
const cacheLineBytes = 64

func init() {
	RegisterEmitter("MatMul", emitMatMul)
	RegisterEmitter("Gemm", emitGemm)
}

// emitMatMul picks the blocked kernel when B's last dimension occupies at
// least one cache line, else the naive kernel (§4.D, S5).
func emitMatMul(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
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

	dtype, err := ctx.Resolver.ResolveType(node, b)
	if err != nil {
		return nil, err
	}
	if len(b.Shape) == 0 {
		return nil, ir.NewDiagnostic(ir.KindInvalidShape, nodeName(node), b.Name).
			WithOp("MatMul").WithDetail("B has zero rank; last-dim width is undefined")
	}
	lastDim := b.Shape[len(b.Shape)-1]

	kernel := "matmul_naive"
	if lastDim*int64(dtype.ByteWidth()) >= cacheLineBytes {
		kernel = "matmul_blocked"
	}
	return call(kernel, ctx.TensorPointer(a), ctx.TensorPointer(b), ctx.TensorPointer(y))
}

// emitGemm implements Y = alpha*op(A)*op(B) + beta*C, C optional (§4.D).
func emitGemm(ctx *EmissionContext, node *ir.ReadyNode) (*KernelCall, error) {
	a, err := requireInput(node, 0, "A")
	if err != nil {
		return nil, err
	}
	b, err := requireInput(node, 1, "B")
	if err != nil {
		return nil, err
	}
	c := InputAt(node, 2)
	y, err := requireOutput(node, 0, "Y")
	if err != nil {
		return nil, err
	}

	alpha, err := ExtractFloat(node, "alpha", 1.0, false)
	if err != nil {
		return nil, err
	}
	beta, err := ExtractFloat(node, "beta", 1.0, false)
	if err != nil {
		return nil, err
	}
	transA, err := ExtractInt(node, "transA", 0, false)
	if err != nil {
		return nil, err
	}
	transB, err := ExtractInt(node, "transB", 0, false)
	if err != nil {
		return nil, err
	}

	return call("gemm",
		ctx.TensorPointer(a), ctx.TensorPointer(b), ctx.NullOrPointer(c), ctx.TensorPointer(y),
		ScalarLiteral(alpha), ScalarLiteral(beta),
		ScalarLiteral(transA != 0), ScalarLiteral(transB != 0))
}
