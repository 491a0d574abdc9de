// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config names and documents combinations of zarchive's compile-time
// knobs (spec §6): endianness, pointer width, alignment, and whether
// validation/pooling are linked in.
//
// The knobs themselves are fixed per build by Go build tags (see
// endian_*.go and offset_width*.go at the module root) and can never be
// chosen at runtime — a single binary is compiled against exactly one
// configuration, matching the source design's compile-time-only knobs.
// This package exists for tooling that needs to talk *about* those
// choices: cmd/zdump reports which profile a buffer is expected to match,
// and tests enumerate named profiles to document the test matrix the
// corresponding build-tag combinations are exercised under.
package config

import (
	"fmt"
	"io"

	"github.com/archivelab/zarchive"
	"gopkg.in/yaml.v3"
)

// Profile names one compile-time configuration a zarchive binary might be
// built under.
type Profile struct {
	Name string `yaml:"name"`

	// Endianness is one of "native", "little", "big", matching the
	// nativeendian/bigendian build tags (little is the default, untagged
	// build).
	Endianness string `yaml:"endianness"`

	// PointerWidth is one of 16, 32, 64, matching the pointerwidth16/
	// pointerwidth64 build tags (32 is the default).
	PointerWidth int `yaml:"pointer_width"`

	// Alignment is "natural" or "packed". Packed mode is not implemented
	// by this module (see DESIGN.md); it is named here so profiles can
	// document the gap rather than silently omitting the knob.
	Alignment string `yaml:"alignment"`

	// Validation reports whether access is expected to go through
	// Access/AccessPos (true) or the unchecked path only (false).
	Validation bool `yaml:"validation"`

	// Pooling reports whether shared pointers are expected to be
	// deduplicated at serialize and deserialize time.
	Pooling bool `yaml:"pooling"`
}

// BuildTags returns the Go build tags that would select this profile,
// e.g. []string{"bigendian", "pointerwidth64"}. Defaults (little-endian,
// 32-bit) need no tag.
func (p Profile) BuildTags() []string {
	var tags []string
	switch p.Endianness {
	case "big":
		tags = append(tags, "bigendian")
	case "native":
		tags = append(tags, "nativeendian")
	}
	switch p.PointerWidth {
	case 16:
		tags = append(tags, "pointerwidth16")
	case 64:
		tags = append(tags, "pointerwidth64")
	}
	return tags
}

// Validate reports whether p names a combination this module actually
// implements, independent of whether the current binary happens to be
// built that way.
func (p Profile) Validate() error {
	switch p.Endianness {
	case "native", "little", "big":
	default:
		return fmt.Errorf("config: unknown endianness %q", p.Endianness)
	}
	switch p.PointerWidth {
	case 16, 32, 64:
	default:
		return fmt.Errorf("config: unsupported pointer width %d", p.PointerWidth)
	}
	if p.Alignment == "packed" {
		return fmt.Errorf("config: packed alignment is not implemented (see DESIGN.md)")
	}
	if p.Alignment != "natural" && p.Alignment != "" {
		return fmt.Errorf("config: unknown alignment %q", p.Alignment)
	}
	return nil
}

// Current is the profile the running binary was actually compiled under,
// derived from the endian_*.go/offset_width*.go build-tag selections.
var Current = Profile{
	Name:         "current",
	Endianness:   zarchive.EndianName,
	PointerWidth: zarchive.OffsetWidth,
	Alignment:    "natural",
	Validation:   true,
	Pooling:      true,
}

// LoadProfiles parses a YAML document listing named configuration
// profiles, in the style of the teacher's test-fixture YAML matrices: a
// top-level list of profile definitions used to drive a test or tool over
// every configuration it cares about.
func LoadProfiles(r io.Reader) ([]Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: reading profiles: %w", err)
	}

	var profiles []Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("config: parsing profiles: %w", err)
	}
	for i, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("config: profile %d (%s): %w", i, p.Name, err)
		}
	}
	return profiles, nil
}
