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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

func TestAddressFormsByCategory(t *testing.T) {
	r := NewResolver()

	weight := &ir.ReadyTensor{Name: "W", Category: ir.INITIALIZER}
	assert.Equal(t, "@const_ref(param_lib.tensor_W)", r.Address(weight, Pointer))
	assert.Equal(t, "param_lib.tensor_W", r.Address(weight, Value))

	act := &ir.ReadyTensor{Name: "Y", Category: ir.ACTIVATION}
	assert.Equal(t, "&tensor_Y", r.Address(act, Pointer))
	assert.Equal(t, "tensor_Y", r.Address(act, Value))
}

func TestResolveTypePriority(t *testing.T) {
	r := NewResolver()
	node := &ir.ReadyNode{OpType: "Relu", Proto: &ir.NodeProtoRef{Name: "n1"}}

	explicit := &ir.ReadyTensor{Name: "X", DType: ir.F32}
	dt, err := r.ResolveType(node, explicit)
	require.NoError(t, err)
	assert.Equal(t, ir.F32, dt)

	fromProto := &ir.ReadyTensor{Name: "Y", DType: ir.UNDEFINED, Proto: &ir.TensorProtoRef{DataType: ir.I64}}
	dt, err = r.ResolveType(node, fromProto)
	require.NoError(t, err)
	assert.Equal(t, ir.I64, dt)

	neither := &ir.ReadyTensor{Name: "Z", DType: ir.UNDEFINED}
	_, err = r.ResolveType(node, neither)
	require.Error(t, err)
	diag, ok := ir.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, ir.KindMissingTypeInformation, diag.Kind)
	assert.Equal(t, "Z", diag.Tensor)
}

func TestPresentInputsFiltersNil(t *testing.T) {
	a := &ir.ReadyTensor{Name: "A"}
	c := &ir.ReadyTensor{Name: "C"}
	node := &ir.ReadyNode{Inputs: []*ir.ReadyTensor{a, nil, c}}

	got := PresentInputs(node)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "C", got[1].Name)
}

func TestInputAtOutOfRangeOrAbsent(t *testing.T) {
	a := &ir.ReadyTensor{Name: "A"}
	node := &ir.ReadyNode{Inputs: []*ir.ReadyTensor{a, nil}}

	assert.Equal(t, a, InputAt(node, 0))
	assert.Nil(t, InputAt(node, 1))
	assert.Nil(t, InputAt(node, 5))
	assert.Nil(t, InputAt(node, -1))
}
