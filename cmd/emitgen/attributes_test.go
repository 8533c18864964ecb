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

func nodeWithAttrs(attrs ...ir.Attribute) *ir.ReadyNode {
	return &ir.ReadyNode{
		OpType: "Test",
		Proto:  &ir.NodeProtoRef{Name: "n1", Attributes: attrs},
	}
}

func TestExtractIntPresent(t *testing.T) {
	node := nodeWithAttrs(intAttr("axis", 2))
	v, err := ExtractInt(node, "axis", 0, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestExtractIntAbsentOptionalReturnsDefault(t *testing.T) {
	node := nodeWithAttrs()
	v, err := ExtractInt(node, "axis", -1, false)
	require.NoError(t, err)
	assert.EqualValues(t, -1, v)
}

func TestExtractIntAbsentRequiredFails(t *testing.T) {
	node := nodeWithAttrs()
	_, err := ExtractInt(node, "strides", 0, true)
	require.Error(t, err)
	diag, ok := ir.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, ir.KindAttributeMissing, diag.Kind)
	assert.Equal(t, "strides", diag.Attr)
}

func TestExtractAttrTypeMismatch(t *testing.T) {
	node := nodeWithAttrs(ir.Attribute{Name: "axis", Kind: ir.AttrString, Str: "oops"})
	_, err := ExtractInt(node, "axis", 0, false)
	require.Error(t, err)
	diag, ok := ir.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, ir.KindAttributeTypeMismatch, diag.Kind)
	assert.Equal(t, "INT", diag.Expected)
	assert.Equal(t, "STRING", diag.Actual)
}

func TestExtractIntsPresentButEmptyDiffersFromAbsent(t *testing.T) {
	present := nodeWithAttrs(intsAttr("pads", []int64{}))
	v, err := ExtractInts(present, "pads", []int64{1, 1}, false)
	require.NoError(t, err)
	assert.Empty(t, v)

	absent := nodeWithAttrs()
	v2, err := ExtractInts(absent, "pads", []int64{1, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1}, v2)
}

func TestHasAttr(t *testing.T) {
	node := nodeWithAttrs(intAttr("axis", 0))
	assert.True(t, HasAttr(node, "axis"))
	assert.False(t, HasAttr(node, "missing"))
}
