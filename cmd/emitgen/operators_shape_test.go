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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

func TestConcatRaggedAxis0(t *testing.T) {
	a := &ir.ReadyTensor{Name: "A", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{2, 3}}
	b := &ir.ReadyTensor{Name: "B", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{2}}
	out := &ir.ReadyTensor{Name: "C", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{5}}
	node := &ir.ReadyNode{
		OpType:  "Concat",
		Proto:   &ir.NodeProtoRef{Name: "cat1", Attributes: []ir.Attribute{intAttr("axis", 0)}},
		Inputs:  []*ir.ReadyTensor{a, b},
		Outputs: []*ir.ReadyTensor{out},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	require.NoError(t, Dispatch(ctx, node))
	assert.Contains(t, buf.String(), "tensor_math.concat_ragged_axis0(")
}

func TestConcatUniformRank(t *testing.T) {
	a := &ir.ReadyTensor{Name: "A", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{2, 3}}
	b := &ir.ReadyTensor{Name: "B", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{2, 3}}
	out := &ir.ReadyTensor{Name: "C", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{2, 6}}
	node := &ir.ReadyNode{
		OpType:  "Concat",
		Proto:   &ir.NodeProtoRef{Name: "cat2", Attributes: []ir.Attribute{intAttr("axis", 1)}},
		Inputs:  []*ir.ReadyTensor{a, b},
		Outputs: []*ir.ReadyTensor{out},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	require.NoError(t, Dispatch(ctx, node))
	out2 := buf.String()
	assert.Contains(t, out2, "tensor_math.concat(")
	assert.NotContains(t, out2, "concat_ragged_axis0")
}

func TestSplitEvenDivision(t *testing.T) {
	data := &ir.ReadyTensor{Name: "X", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{6}}
	o1 := &ir.ReadyTensor{Name: "O1", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{3}}
	o2 := &ir.ReadyTensor{Name: "O2", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{3}}
	node := &ir.ReadyNode{
		OpType:  "Split",
		Proto:   &ir.NodeProtoRef{Name: "split1", Attributes: []ir.Attribute{intAttr("axis", 0)}},
		Inputs:  []*ir.ReadyTensor{data},
		Outputs: []*ir.ReadyTensor{o1, o2},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	require.NoError(t, Dispatch(ctx, node))
	out := buf.String()
	assert.Contains(t, out, "tensor_math.split_even(")
	assert.Contains(t, out, "&tensor_O1")
	assert.Contains(t, out, "&tensor_O2")
}

func TestTransposeDefaultPerm(t *testing.T) {
	data := &ir.ReadyTensor{Name: "X", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{2, 3, 4}}
	out := &ir.ReadyTensor{Name: "Y", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{4, 3, 2}}
	node := &ir.ReadyNode{
		OpType:  "Transpose",
		Proto:   &ir.NodeProtoRef{Name: "t1"},
		Inputs:  []*ir.ReadyTensor{data},
		Outputs: []*ir.ReadyTensor{out},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	require.NoError(t, Dispatch(ctx, node))
	out2 := buf.String()
	assert.Contains(t, out2, "tensor_math.transpose(")
	assert.Contains(t, out2, "&[_]usize{2, 1, 0}")
}
