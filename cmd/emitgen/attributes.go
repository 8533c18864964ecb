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

// AttrSpec declares one attribute an operator emitter recognizes: its
// name, its expected ONNX attribute-type tag, its default value (used
// when Required is false and the attribute is absent), and whether its
// absence is fatal (§4.B).
type AttrSpec struct {
	Name     string
	Kind     ir.AttrKind
	Default  any
	Required bool
}

// ExtractAttr reads the attribute spec.Name from node, enforcing
// spec.Kind. Per §4.B: a present attribute of the wrong kind is always
// an AttributeTypeMismatch (required or not); an absent required
// attribute is AttributeMissing; an absent optional attribute returns
// spec.Default. Unknown attributes (not named by any spec) are simply
// never looked up here, which is how "unknown attributes are ignored"
// falls out of this design.
func ExtractAttr(node *ir.ReadyNode, spec AttrSpec) (any, error) {
	attr := node.Proto.FindAttribute(spec.Name)
	if attr == nil {
		if spec.Required {
			return nil, ir.AttributeMissing(node, spec.Name)
		}
		return spec.Default, nil
	}
	if attr.Kind != spec.Kind {
		return nil, ir.AttributeTypeMismatch(node, spec.Name, spec.Kind, attr.Kind)
	}
	switch spec.Kind {
	case ir.AttrInt:
		return attr.Int, nil
	case ir.AttrFloat:
		return attr.Float, nil
	case ir.AttrString:
		return attr.Str, nil
	case ir.AttrInts:
		return attr.Ints, nil
	case ir.AttrFloats:
		return attr.Floats, nil
	case ir.AttrStrings:
		return attr.Strings, nil
	case ir.AttrTensor, ir.AttrSparseTensor:
		return attr.Tensor, nil
	default:
		return nil, ir.AttributeTypeMismatch(node, spec.Name, spec.Kind, attr.Kind)
	}
}

// ExtractInt is ExtractAttr specialized to AttrInt.
func ExtractInt(node *ir.ReadyNode, name string, def int64, required bool) (int64, error) {
	v, err := ExtractAttr(node, AttrSpec{Name: name, Kind: ir.AttrInt, Default: def, Required: required})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// ExtractFloat is ExtractAttr specialized to AttrFloat.
func ExtractFloat(node *ir.ReadyNode, name string, def float64, required bool) (float64, error) {
	v, err := ExtractAttr(node, AttrSpec{Name: name, Kind: ir.AttrFloat, Default: def, Required: required})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// ExtractString is ExtractAttr specialized to AttrString.
func ExtractString(node *ir.ReadyNode, name, def string, required bool) (string, error) {
	v, err := ExtractAttr(node, AttrSpec{Name: name, Kind: ir.AttrString, Default: def, Required: required})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ExtractInts is ExtractAttr specialized to AttrInts. A present-but-empty
// list is distinct from an absent one: callers get ([]int64{}, nil) for
// the former and (def, nil) for the latter (§4.C's "present but empty").
func ExtractInts(node *ir.ReadyNode, name string, def []int64, required bool) ([]int64, error) {
	v, err := ExtractAttr(node, AttrSpec{Name: name, Kind: ir.AttrInts, Default: def, Required: required})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return def, nil
	}
	return v.([]int64), nil
}

// ExtractFloats is ExtractAttr specialized to AttrFloats.
func ExtractFloats(node *ir.ReadyNode, name string, def []float64, required bool) ([]float64, error) {
	v, err := ExtractAttr(node, AttrSpec{Name: name, Kind: ir.AttrFloats, Default: def, Required: required})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return def, nil
	}
	return v.([]float64), nil
}

// HasAttr reports whether node carries an attribute named name at all,
// regardless of type — used where an emitter branches on presence before
// deciding which source (attribute vs. input tensor) to read an argument
// from (e.g. Reshape.shape, Split.split).
func HasAttr(node *ir.ReadyNode, name string) bool {
	return node.Proto.FindAttribute(name) != nil
}
