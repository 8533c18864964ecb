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

package ir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// wireTensor and wireNode are the on-disk shapes of a ReadyTensor/ReadyNode
// graph descriptor. The upstream ONNX loader (§6, out of scope for this
// core) is expected to emit one of these; emitgen's CLI is simply the
// first concrete consumer of that boundary.
type wireTensorProto struct {
	DataType  DType
	Dims      []int64
	RawData   []byte
	Int64Data []int64
	FloatData []float64
}

type wireTensor struct {
	Name     string
	Category Category
	DType    DType
	Shape    []int64
	Proto    *wireTensorProto
}

type wireAttribute struct {
	Name    string
	Kind    AttrKind
	Int     int64
	Float   float64
	Str     string
	Ints    []int64
	Floats  []float64
	Strings []string
	Tensor  *wireTensorProto
}

type wireNode struct {
	OpType     string
	Name       string
	Attributes []wireAttribute
	// Inputs holds tensor names; an empty string marks an absent optional
	// positional input, matching ONNX's "missing input" convention.
	Inputs  []string
	Outputs []string
}

// GraphDescriptor is the MessagePack wire shape of a full graph: every
// tensor referenced by any node, the node list in topological order, the
// network's designated output tensor, and the emitter config knobs.
type GraphDescriptor struct {
	Tensors       []wireTensor
	Nodes         []wireNode
	NetworkOutput string
	Config        EmitterConfig
}

// DecodeGraph reads a MessagePack-encoded GraphDescriptor from r and
// builds the GlobalTensorMap + ReadyNode list the dispatcher consumes.
func DecodeGraph(r io.Reader) (*Graph, error) {
	var desc GraphDescriptor
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode graph descriptor: %w", err)
	}

	tensors := make(GlobalTensorMap, len(desc.Tensors))
	for _, wt := range desc.Tensors {
		rt := &ReadyTensor{
			Name:     wt.Name,
			Category: wt.Category,
			DType:    wt.DType,
			Shape:    wt.Shape,
		}
		if wt.Proto != nil {
			rt.Proto = &TensorProtoRef{
				DataType:  wt.Proto.DataType,
				Dims:      wt.Proto.Dims,
				RawData:   wt.Proto.RawData,
				Int64Data: wt.Proto.Int64Data,
				FloatData: wt.Proto.FloatData,
			}
		}
		tensors[wt.Name] = rt
	}

	nodes := make([]*ReadyNode, 0, len(desc.Nodes))
	for _, wn := range desc.Nodes {
		proto := &NodeProtoRef{Name: wn.Name}
		for _, wa := range wn.Attributes {
			attr := Attribute{
				Name: wa.Name, Kind: wa.Kind,
				Int: wa.Int, Float: wa.Float, Str: wa.Str,
				Ints: wa.Ints, Floats: wa.Floats, Strings: wa.Strings,
			}
			if wa.Tensor != nil {
				attr.Tensor = &TensorProtoRef{
					DataType:  wa.Tensor.DataType,
					Dims:      wa.Tensor.Dims,
					RawData:   wa.Tensor.RawData,
					Int64Data: wa.Tensor.Int64Data,
					FloatData: wa.Tensor.FloatData,
				}
			}
			proto.Attributes = append(proto.Attributes, attr)
		}

		node := &ReadyNode{OpType: wn.OpType, Proto: proto}
		for _, name := range wn.Inputs {
			if name == "" {
				node.Inputs = append(node.Inputs, nil)
				continue
			}
			t, ok := tensors[name]
			if !ok {
				return nil, NewDiagnostic(KindTensorNotFound, wn.Name, name).
					WithOp(wn.OpType).
					WithDetail("input tensor %q not found while decoding graph", name)
			}
			node.Inputs = append(node.Inputs, t)
		}
		for _, name := range wn.Outputs {
			t, ok := tensors[name]
			if !ok {
				return nil, NewDiagnostic(KindTensorNotFound, wn.Name, name).
					WithOp(wn.OpType).
					WithDetail("output tensor %q not found while decoding graph", name)
			}
			node.Outputs = append(node.Outputs, t)
		}
		nodes = append(nodes, node)
	}

	return &Graph{
		Tensors:       tensors,
		Nodes:         nodes,
		NetworkOutput: desc.NetworkOutput,
		Config:        desc.Config,
	}, nil
}

// EncodeGraph writes g back out as a MessagePack GraphDescriptor. Its
// only caller in this module is the encode/decode round-trip test.
func EncodeGraph(w io.Writer, g *Graph) error {
	desc := GraphDescriptor{NetworkOutput: g.NetworkOutput, Config: g.Config}
	for _, t := range g.Tensors {
		wt := wireTensor{Name: t.Name, Category: t.Category, DType: t.DType, Shape: t.Shape}
		if t.Proto != nil {
			wt.Proto = &wireTensorProto{
				DataType: t.Proto.DataType, Dims: t.Proto.Dims, RawData: t.Proto.RawData,
				Int64Data: t.Proto.Int64Data, FloatData: t.Proto.FloatData,
			}
		}
		desc.Tensors = append(desc.Tensors, wt)
	}
	for _, n := range g.Nodes {
		wn := wireNode{OpType: n.OpType, Name: nodeName(n)}
		for _, a := range n.Proto.Attributes {
			wa := wireAttribute{
				Name: a.Name, Kind: a.Kind, Int: a.Int, Float: a.Float, Str: a.Str,
				Ints: a.Ints, Floats: a.Floats, Strings: a.Strings,
			}
			if a.Tensor != nil {
				wa.Tensor = &wireTensorProto{
					DataType: a.Tensor.DataType, Dims: a.Tensor.Dims, RawData: a.Tensor.RawData,
					Int64Data: a.Tensor.Int64Data, FloatData: a.Tensor.FloatData,
				}
			}
			wn.Attributes = append(wn.Attributes, wa)
		}
		for _, in := range n.Inputs {
			if in == nil {
				wn.Inputs = append(wn.Inputs, "")
				continue
			}
			wn.Inputs = append(wn.Inputs, in.Name)
		}
		for _, out := range n.Outputs {
			wn.Outputs = append(wn.Outputs, out.Name)
		}
		desc.Nodes = append(desc.Nodes, wn)
	}

	enc := msgpack.NewEncoder(w)
	return enc.Encode(&desc)
}
