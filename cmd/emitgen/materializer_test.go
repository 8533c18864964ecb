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

func TestUsizeArrayEmptyIsExplicitMarker(t *testing.T) {
	lit, err := UsizeArray(nil)
	require.NoError(t, err)
	assert.Equal(t, "&[_]usize{}", lit)

	lit, err = UsizeArray([]int64{3, 3})
	require.NoError(t, err)
	assert.Equal(t, "&[_]usize{3, 3}", lit)
}

func TestIsizeArrayAllowsNegative(t *testing.T) {
	assert.Equal(t, "&[_]isize{-1, 2}", IsizeArray([]int64{-1, 2}))
	assert.Equal(t, "&[_]isize{}", IsizeArray(nil))
}

func TestNullOrPointer(t *testing.T) {
	graph := &ir.Graph{Tensors: ir.GlobalTensorMap{}}
	ctx := NewEmissionContext(graph, &bytes.Buffer{})

	assert.Equal(t, "null", ctx.NullOrPointer(nil))

	present := &ir.ReadyTensor{Name: "C", Category: ir.ACTIVATION}
	assert.Equal(t, "&tensor_C", ctx.NullOrPointer(present))
}

func TestBuildIntSliceRejectsNonIntegerSource(t *testing.T) {
	graph := &ir.Graph{Tensors: ir.GlobalTensorMap{}}
	ctx := NewEmissionContext(graph, &bytes.Buffer{})
	node := &ir.ReadyNode{OpType: "Reshape", Proto: &ir.NodeProtoRef{Name: "n1"}}

	floatTensor := &ir.ReadyTensor{Name: "S", DType: ir.F32, Shape: []int64{2}}
	_, err := ctx.BuildIntSlice(node, floatTensor, "shape")
	require.Error(t, err)
	diag, ok := ir.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, ir.KindAttributeTypeMismatch, diag.Kind)
}

func TestBuildIntSliceEmitsMatchedAcquireRelease(t *testing.T) {
	graph := &ir.Graph{Tensors: ir.GlobalTensorMap{}}
	ctx := NewEmissionContext(graph, &bytes.Buffer{})
	node := &ir.ReadyNode{OpType: "Reshape", Proto: &ir.NodeProtoRef{Name: "n1"}}

	intTensor := &ir.ReadyTensor{Name: "S", DType: ir.I64, Shape: []int64{2}}
	slice, err := ctx.BuildIntSlice(node, intTensor, "shape")
	require.NoError(t, err)
	assert.Contains(t, slice.Acquire, "allocator.alloc(isize, 2)")
	assert.Contains(t, slice.Release, "allocator.free("+slice.VarName+")")
}
