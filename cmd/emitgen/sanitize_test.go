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
)

func TestSanitizeIdentifierLegalChars(t *testing.T) {
	s := NewSanitizer()
	assert.Equal(t, "conv1_output", s.Sanitize("conv1/output"))
	assert.Equal(t, "_123", s.Sanitize("123"))
}

func TestSanitizeIsDeterministicPerName(t *testing.T) {
	s := NewSanitizer()
	first := s.Sanitize("layer.0.weight")
	second := s.Sanitize("layer.0.weight")
	assert.Equal(t, first, second)
}

func TestSanitizeDisambiguatesCollisions(t *testing.T) {
	s := NewSanitizer()
	a := s.Sanitize("layer/0")
	b := s.Sanitize("layer.0")
	assert.NotEqual(t, a, b, "two distinct names that fold to the same base must not collide")
}

func TestSanitizeFoldsDiacritics(t *testing.T) {
	s := NewSanitizer()
	got := s.Sanitize("Conv_é")
	assert.Equal(t, "Conv_e", got)
}
