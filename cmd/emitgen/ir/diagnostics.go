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

	"github.com/pkg/errors"
)

// Kind is the closed taxonomy of emission-time errors (§4.G).
type Kind int

const (
	KindTensorNotFound Kind = iota
	KindMissingTypeInformation
	KindAttributeTypeMismatch
	KindAttributeMissing
	KindEmptyInputList
	KindInvalidShape
	KindTrainingNotSupported
	KindUnsupportedMode
)

func (k Kind) String() string {
	switch k {
	case KindTensorNotFound:
		return "TensorNotFound"
	case KindMissingTypeInformation:
		return "MissingTypeInformation"
	case KindAttributeTypeMismatch:
		return "AttributeTypeMismatch"
	case KindAttributeMissing:
		return "AttributeMissing"
	case KindEmptyInputList:
		return "EmptyInputList"
	case KindInvalidShape:
		return "InvalidShape"
	case KindTrainingNotSupported:
		return "TrainingNotSupported"
	case KindUnsupportedMode:
		return "UnsupportedMode"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Diagnostic is the single error shape every emission failure takes
// (§7: "a single diagnostic naming (kind, operator, node name, tensor
// name if applicable, expected-vs-actual where applicable)").
type Diagnostic struct {
	Kind     Kind
	Op       string // operator type, e.g. "Conv"
	Node     string // NodeProto.Name of the failing node
	Tensor   string // tensor name, if applicable
	Attr     string // attribute name, if applicable
	Expected string
	Actual   string
	detail   string
	cause    error
}

// NewDiagnostic builds a bare Diagnostic, already wrapped with a stack
// trace via pkg/errors so the CLI can print where in the emitter it was
// raised, not just its (kind, node, tensor) triple.
func NewDiagnostic(kind Kind, node, tensor string) *Diagnostic {
	d := &Diagnostic{Kind: kind, Node: node, Tensor: tensor}
	d.cause = errors.WithStack(d)
	return d
}

// WithOp sets the operator type and returns the receiver for chaining.
func (d *Diagnostic) WithOp(op string) *Diagnostic {
	d.Op = op
	return d
}

// WithAttr sets the attribute name and returns the receiver for chaining.
func (d *Diagnostic) WithAttr(attr string) *Diagnostic {
	d.Attr = attr
	return d
}

// WithExpectedActual sets the expected/actual pair and returns the receiver.
func (d *Diagnostic) WithExpectedActual(expected, actual string) *Diagnostic {
	d.Expected = expected
	d.Actual = actual
	return d
}

// WithDetail attaches a human-readable explanation and returns the receiver.
func (d *Diagnostic) WithDetail(format string, args ...any) *Diagnostic {
	d.detail = fmt.Sprintf(format, args...)
	return d
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("%s(op=%s, node=%s", d.Kind, d.Op, d.Node)
	if d.Tensor != "" {
		msg += fmt.Sprintf(", tensor=%s", d.Tensor)
	}
	if d.Attr != "" {
		msg += fmt.Sprintf(", attr=%s", d.Attr)
	}
	if d.Expected != "" || d.Actual != "" {
		msg += fmt.Sprintf(", expected=%q, actual=%q", d.Expected, d.Actual)
	}
	msg += ")"
	if d.detail != "" {
		msg += ": " + d.detail
	}
	return msg
}

// Stack returns the pkg/errors stack trace captured when this Diagnostic
// was constructed, formatted for CLI diagnostics output.
func (d *Diagnostic) Stack() string {
	return fmt.Sprintf("%+v", d.cause)
}

// AsDiagnostic unwraps err (which may be wrapped by errors.Wrap/WithStack
// anywhere up the chain) back to its *Diagnostic, if any.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// MissingType builds a MissingTypeInformation diagnostic (§4.A: "The
// resolver MUST NOT default silently to F32; diagnostic messages must
// name the tensor and the parent node").
func MissingType(node *ReadyNode, tensor string) *Diagnostic {
	return NewDiagnostic(KindMissingTypeInformation, nodeName(node), tensor).
		WithOp(node.OpType).
		WithDetail("tensor %q has neither a resolved dtype nor a TensorProto data_type", tensor)
}

// AttributeMissing builds an AttributeMissing diagnostic.
func AttributeMissing(node *ReadyNode, attr string) *Diagnostic {
	return NewDiagnostic(KindAttributeMissing, nodeName(node), "").
		WithOp(node.OpType).WithAttr(attr).
		WithDetail("required attribute %q is absent", attr)
}

// AttributeTypeMismatch builds an AttributeTypeMismatch diagnostic.
func AttributeTypeMismatch(node *ReadyNode, attr string, expected, actual AttrKind) *Diagnostic {
	return NewDiagnostic(KindAttributeTypeMismatch, nodeName(node), "").
		WithOp(node.OpType).WithAttr(attr).
		WithExpectedActual(expected.String(), actual.String())
}
