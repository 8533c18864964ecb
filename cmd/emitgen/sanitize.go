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
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes s (NFD), drops combining marks, and
// recomposes (NFC) so a name like "Conv_é" folds to "Conv_e" instead of
// being mangled rune-by-rune by the ASCII fold below.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitizer produces the identifier-legal, deterministic, collision-free
// transform of ONNX tensor names required by §4.A. Collision-freedom is
// scoped to one Sanitizer instance (one emission run / one EmissionContext).
type Sanitizer struct {
	seen map[string]string // sanitized -> original, to detect collisions
	next map[string]int    // sanitized base -> next disambiguating suffix
}

// NewSanitizer creates an empty Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{seen: make(map[string]string), next: make(map[string]int)}
}

// Sanitize returns the identifier-legal form of name. Calling it twice
// with the same name returns the same result; calling it with two
// different names that fold to the same identifier returns a
// disambiguated second result so addressing stays collision-free.
func (s *Sanitizer) Sanitize(name string) string {
	base := sanitizeBase(name)

	if prior, ok := s.seen[base]; ok && prior == name {
		return base
	}
	if owner, taken := s.firstOwner(base); !taken || owner == name {
		s.seen[base] = name
		return base
	}

	for i := 1; i <= s.next[base]; i++ {
		if candidate := base + "_" + itoa(i); s.seen[candidate] == name {
			return candidate
		}
	}

	n := s.next[base]
	for {
		n++
		candidate := base + "_" + itoa(n)
		if _, exists := s.seenCandidate(candidate); !exists {
			s.next[base] = n
			s.seen[candidate] = name
			return candidate
		}
	}
}

func (s *Sanitizer) firstOwner(base string) (string, bool) {
	owner, ok := s.seen[base]
	return owner, ok
}

func (s *Sanitizer) seenCandidate(candidate string) (string, bool) {
	owner, ok := s.seen[candidate]
	return owner, ok
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// sanitizeBase applies the diacritic fold then maps every rune outside
// [A-Za-z0-9_] to '_', and prefixes with '_' if the result would not
// start with a letter or underscore (Zig identifiers cannot start with
// a digit).
func sanitizeBase(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil || folded == "" {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
