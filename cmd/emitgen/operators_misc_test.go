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

func TestPadRejectsNonInitializerPads(t *testing.T) {
	data := &ir.ReadyTensor{Name: "X", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{4}}
	pads := &ir.ReadyTensor{Name: "P", Category: ir.ACTIVATION, DType: ir.I64, Shape: []int64{2}}
	out := &ir.ReadyTensor{Name: "Y", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{6}}
	node := &ir.ReadyNode{
		OpType:  "Pad",
		Proto:   &ir.NodeProtoRef{Name: "pad1"},
		Inputs:  []*ir.ReadyTensor{data, pads},
		Outputs: []*ir.ReadyTensor{out},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	err := Dispatch(ctx, node)
	require.Error(t, err)
	diag, ok := ir.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, ir.KindInvalidShape, diag.Kind)
}

func TestPadWithInitializerPads(t *testing.T) {
	data := &ir.ReadyTensor{Name: "X", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{4}}
	pads := &ir.ReadyTensor{
		Name: "P", Category: ir.INITIALIZER, DType: ir.I64, Shape: []int64{2},
		Proto: &ir.TensorProtoRef{DataType: ir.I64, Int64Data: []int64{1, 1}},
	}
	out := &ir.ReadyTensor{Name: "Y", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{6}}
	node := &ir.ReadyNode{
		OpType:  "Pad",
		Proto:   &ir.NodeProtoRef{Name: "pad2"},
		Inputs:  []*ir.ReadyTensor{data, pads},
		Outputs: []*ir.ReadyTensor{out},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	require.NoError(t, Dispatch(ctx, node))
	assert.Contains(t, buf.String(), "tensor_math.pad(")
}

func TestConstantMultipleValueAttrsFails(t *testing.T) {
	out := &ir.ReadyTensor{Name: "C", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{1}}
	node := &ir.ReadyNode{
		OpType: "Constant",
		Proto: &ir.NodeProtoRef{Name: "const1", Attributes: []ir.Attribute{
			{Name: "value_int", Kind: ir.AttrInt, Int: 1},
			{Name: "value_float", Kind: ir.AttrFloat, Float: 1.0},
		}},
		Outputs: []*ir.ReadyTensor{out},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	err := Dispatch(ctx, node)
	require.Error(t, err)
	diag, ok := ir.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, ir.KindAttributeTypeMismatch, diag.Kind)
}

func TestConstantScalarIntInlined(t *testing.T) {
	out := &ir.ReadyTensor{Name: "C", Category: ir.ACTIVATION, DType: ir.I64, Shape: []int64{1}}
	node := &ir.ReadyNode{
		OpType: "Constant",
		Proto: &ir.NodeProtoRef{Name: "const2", Attributes: []ir.Attribute{
			{Name: "value_int", Kind: ir.AttrInt, Int: 42},
		}},
		Outputs: []*ir.ReadyTensor{out},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	require.NoError(t, Dispatch(ctx, node))
	out2 := buf.String()
	assert.Contains(t, out2, "const tensor_C: i64 = 42;")
	assert.NotContains(t, out2, "tensor_math.")
}

func TestDynamicQuantizeLinearThreeOutputs(t *testing.T) {
	x := &ir.ReadyTensor{Name: "X", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{4}}
	y := &ir.ReadyTensor{Name: "Y", Category: ir.ACTIVATION, DType: ir.U8, Shape: []int64{4}}
	scale := &ir.ReadyTensor{Name: "YS", Category: ir.ACTIVATION, DType: ir.F32, Shape: []int64{1}}
	zp := &ir.ReadyTensor{Name: "YZ", Category: ir.ACTIVATION, DType: ir.U8, Shape: []int64{1}}
	node := &ir.ReadyNode{
		OpType:  "DynamicQuantizeLinear",
		Proto:   &ir.NodeProtoRef{Name: "dql1"},
		Inputs:  []*ir.ReadyTensor{x},
		Outputs: []*ir.ReadyTensor{y, scale, zp},
	}
	graph := newTestGraph(node)
	var buf bytes.Buffer
	ctx := NewEmissionContext(graph, &buf)
	require.NoError(t, Dispatch(ctx, node))
	out := buf.String()
	assert.Contains(t, out, "&tensor_Y")
	assert.Contains(t, out, "&tensor_YS")
	assert.Contains(t, out, "&tensor_YZ")
}
