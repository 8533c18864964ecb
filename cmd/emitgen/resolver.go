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
	"github.com/samber/lo"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

// AddressForm selects which of the two textual forms §4.A describes is
// produced for a tensor: Pointer for call sites needing a mutable-looking
// handle, Value for call sites that read the tensor's value directly.
type AddressForm int

const (
	Pointer AddressForm = iota
	Value
)

// Resolver implements component A: it maps a ReadyTensor to its address
// form and resolves its element type, never defaulting silently to F32.
// It owns the Sanitizer so that the same tensor name always resolves to
// the same identifier within one emission run.
type Resolver struct {
	san *Sanitizer
}

// NewResolver creates a Resolver with a fresh, run-scoped Sanitizer.
func NewResolver() *Resolver {
	return &Resolver{san: NewSanitizer()}
}

// Identifier returns the sanitized Zig identifier for a tensor's name,
// without the "tensor_" prefix or any addressing decoration.
func (r *Resolver) Identifier(t *ir.ReadyTensor) string {
	return r.san.Sanitize(t.Name)
}

// Address returns the textual address form for t, per the four address
// rules enumerated in §4.A.
func (r *Resolver) Address(t *ir.ReadyTensor, form AddressForm) string {
	id := r.Identifier(t)
	switch t.Category {
	case ir.INITIALIZER:
		if form == Pointer {
			return "@const_ref(param_lib.tensor_" + id + ")"
		}
		return "param_lib.tensor_" + id
	default: // INPUT, ACTIVATION, OUTPUT
		if form == Pointer {
			return "&tensor_" + id
		}
		return "tensor_" + id
	}
}

// ResolveType implements the type-resolution priority of §4.A: the
// tensor's own DType first, then its TensorProto's data_type, then a
// MissingTypeInformation diagnostic. It never falls back to F32.
func (r *Resolver) ResolveType(node *ir.ReadyNode, t *ir.ReadyTensor) (ir.DType, error) {
	if t.DType != ir.UNDEFINED {
		return t.DType, nil
	}
	if t.Proto != nil && t.Proto.DataType != ir.UNDEFINED {
		return t.Proto.DataType, nil
	}
	return ir.UNDEFINED, ir.MissingType(node, t.Name)
}

// PresentInputs returns the subset of node.Inputs that are non-nil,
// i.e. the positional inputs the ONNX graph actually supplied.
func PresentInputs(node *ir.ReadyNode) []*ir.ReadyTensor {
	return lo.Filter(node.Inputs, func(t *ir.ReadyTensor, _ int) bool { return t != nil })
}

// InputAt returns node.Inputs[i] if it is both in range and present,
// else nil — the uniform way every emitter checks for an optional input.
func InputAt(node *ir.ReadyNode, i int) *ir.ReadyTensor {
	if i < 0 || i >= len(node.Inputs) {
		return nil
	}
	return node.Inputs[i]
}
