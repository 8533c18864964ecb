package ir

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeGraphRoundTrip(t *testing.T) {
	g := &Graph{
		Tensors: GlobalTensorMap{
			"X": {Name: "X", Category: ACTIVATION, DType: F32, Shape: []int64{1, 1, 5, 5}},
			"W": {Name: "W", Category: INITIALIZER, DType: F32, Shape: []int64{1, 1, 3, 3}},
			"Y": {Name: "Y", Category: ACTIVATION, DType: F32, Shape: []int64{1, 1, 3, 3}},
		},
		Nodes: []*ReadyNode{
			{
				OpType: "Conv",
				Proto: &NodeProtoRef{Name: "conv1", Attributes: []Attribute{
					{Name: "strides", Kind: AttrInts, Ints: []int64{1, 1}},
				}},
				Inputs:  []*ReadyTensor{{Name: "X"}, {Name: "W"}, nil},
				Outputs: []*ReadyTensor{{Name: "Y"}},
			},
		},
		NetworkOutput: "Y",
		Config:        EmitterConfig{Dynamic: true, Comm: true},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeGraph(&buf, g))

	got, err := DecodeGraph(&buf)
	require.NoError(t, err)

	require.Equal(t, "Y", got.NetworkOutput)
	require.Equal(t, g.Config, got.Config)
	require.Len(t, got.Nodes, 1)

	node := got.Nodes[0]
	require.Equal(t, "Conv", node.OpType)
	require.Equal(t, "conv1", node.Proto.Name)
	require.Len(t, node.Inputs, 3)
	require.Nil(t, node.Inputs[2])
	require.Equal(t, "X", node.Inputs[0].Name)

	strides := node.Proto.FindAttribute("strides")
	require.NotNil(t, strides)
	if diff := cmp.Diff([]int64{1, 1}, strides.Ints); diff != "" {
		t.Fatalf("strides mismatch (-want +got):\n%s", diff)
	}
}
