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
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/onnx-aot/emitgen/cmd/emitgen/ir"
)

// fileConfig is the on-disk shape of an emitgen.toml: the emission knobs
// of ir.EmitterConfig, plus batch-mode settings that have no ir.Graph
// analog (they govern the CLI, not a single emission).
type fileConfig struct {
	Emit struct {
		Dynamic bool `toml:"dynamic"`
		Comm    bool `toml:"comm"`
		Log     bool `toml:"log"`
	} `toml:"emit"`
	Batch struct {
		Jobs      int    `toml:"jobs"`
		OutputDir string `toml:"output_dir"`
	} `toml:"batch"`
}

// loadConfig decodes path into a fileConfig, defaulting Batch.Jobs to 1
// when unset or non-positive so an unconfigured batch run is still
// sequential rather than silently unbounded.
func loadConfig(path string) (*fileConfig, error) {
	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Batch.Jobs <= 0 {
		cfg.Batch.Jobs = 1
	}
	return &cfg, nil
}

// emitterConfig projects fileConfig down to the ir.EmitterConfig the
// generator actually consumes.
func (c *fileConfig) emitterConfig() ir.EmitterConfig {
	return ir.EmitterConfig{
		Dynamic: c.Emit.Dynamic,
		Comm:    c.Emit.Comm,
		Log:     c.Emit.Log,
	}
}
