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

// Package ir is the normalized intermediate representation the emitter
// consumes: tensors, nodes, and the attribute values attached to a node
// by the (out-of-scope) ONNX protobuf parser.
package ir

import "fmt"

// DType is the closed set of element-type tokens the emitter recognizes.
type DType int

const (
	UNDEFINED DType = iota
	F16
	F32
	F64
	I8
	U8
	I16
	I32
	I64
	BOOL
	STRING
)

func (d DType) String() string {
	switch d {
	case F16:
		return "F16"
	case F32:
		return "F32"
	case F64:
		return "F64"
	case I8:
		return "I8"
	case U8:
		return "U8"
	case I16:
		return "I16"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case BOOL:
		return "BOOL"
	case STRING:
		return "STRING"
	case UNDEFINED:
		return "UNDEFINED"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// ByteWidth returns the size in bytes of one element, used by the MatMul
// blocked-vs-naive kernel selection (§4.D). STRING and UNDEFINED have no
// fixed width and return 0.
func (d DType) ByteWidth() int {
	switch d {
	case F16, I16:
		return 2
	case F32, I32:
		return 4
	case F64, I64:
		return 8
	case I8, U8, BOOL:
		return 1
	default:
		return 0
	}
}

// Category is the addressing class of a tensor (§3/§4.A).
type Category int

const (
	INITIALIZER Category = iota
	INPUT
	ACTIVATION
	OUTPUT
)

func (c Category) String() string {
	switch c {
	case INITIALIZER:
		return "INITIALIZER"
	case INPUT:
		return "INPUT"
	case ACTIVATION:
		return "ACTIVATION"
	case OUTPUT:
		return "OUTPUT"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// TensorProtoRef is the minimal view of an ONNX TensorProto the emitter
// needs: its authoritative element type (when ReadyTensor.DType is
// UNDEFINED) and, for INITIALIZER tensors, the raw data backing Constant
// materialization.
type TensorProtoRef struct {
	DataType DType
	Dims     []int64
	RawData  []byte

	// Int64Data / FloatData hold decoded scalar/1-D data for small
	// tensors (shape operands, Constant scalars) so the Argument
	// Materializer never has to re-decode RawData by hand.
	Int64Data []int64
	FloatData []float64
}

// ReadyTensor is the normalized view of a tensor at emit time (§3).
type ReadyTensor struct {
	Name     string
	Category Category
	DType    DType
	Shape    []int64
	Proto    *TensorProtoRef
}

// ElementCount returns the product of Shape, or 0 if Shape is empty.
func (t *ReadyTensor) ElementCount() int64 {
	if len(t.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// AttrKind is the ONNX attribute-type tag of an Attribute (§4.B).
type AttrKind int

const (
	AttrInt AttrKind = iota
	AttrFloat
	AttrString
	AttrInts
	AttrFloats
	AttrTensor
	AttrSparseTensor
	AttrStrings
)

func (k AttrKind) String() string {
	switch k {
	case AttrInt:
		return "INT"
	case AttrFloat:
		return "FLOAT"
	case AttrString:
		return "STRING"
	case AttrInts:
		return "INTS"
	case AttrFloats:
		return "FLOATS"
	case AttrTensor:
		return "TENSOR"
	case AttrSparseTensor:
		return "SPARSE_TENSOR"
	case AttrStrings:
		return "STRINGS"
	default:
		return fmt.Sprintf("AttrKind(%d)", int(k))
	}
}

// Attribute carries exactly one of its typed fields, selected by Kind.
type Attribute struct {
	Name    string
	Kind    AttrKind
	Int     int64
	Float   float64
	Str     string
	Ints    []int64
	Floats  []float64
	Strings []string
	Tensor  *TensorProtoRef
}

// NodeProtoRef is the minimal view of an ONNX NodeProto the emitter needs.
type NodeProtoRef struct {
	Name       string
	Attributes []Attribute
}

// FindAttribute returns the attribute named name, or nil if absent.
func (p *NodeProtoRef) FindAttribute(name string) *Attribute {
	for i := range p.Attributes {
		if p.Attributes[i].Name == name {
			return &p.Attributes[i]
		}
	}
	return nil
}

// ReadyNode is a single graph node with its inputs/outputs already
// resolved to ReadyTensor handles (§3). A nil entry in Inputs means the
// corresponding positional input is absent (ONNX optional input).
type ReadyNode struct {
	OpType  string
	Proto   *NodeProtoRef
	Inputs  []*ReadyTensor
	Outputs []*ReadyTensor
}

// GlobalTensorMap is the only legal way to resolve a tensor by name (§3).
type GlobalTensorMap map[string]*ReadyTensor

// Lookup returns the tensor named name, or a TensorNotFound diagnostic.
func (m GlobalTensorMap) Lookup(node *ReadyNode, name string) (*ReadyTensor, error) {
	if t, ok := m[name]; ok {
		return t, nil
	}
	return nil, NewDiagnostic(KindTensorNotFound, nodeName(node), name).
		WithDetail("referenced tensor %q is not present in the global tensor map", name)
}

func nodeName(n *ReadyNode) string {
	if n == nil || n.Proto == nil {
		return "<unknown>"
	}
	return n.Proto.Name
}

// EmitterConfig is the fully enumerated set of recognized emission knobs (§3).
type EmitterConfig struct {
	Dynamic bool
	Comm    bool
	Log     bool
}

// Graph bundles everything the dispatcher needs to emit a full forward
// pass: the tensor map, the topologically-ordered node list, the name of
// the tensor that is the network's return value, and the config knobs.
type Graph struct {
	Tensors       GlobalTensorMap
	Nodes         []*ReadyNode
	NetworkOutput string
	Config        EmitterConfig
}
