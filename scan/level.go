// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package scan

import (
	"os"
	"strings"

	"golang.org/x/sys/cpu"
)

// Level describes which vector kernels may be used.
type Level uint8

const (
	// Only the scalar table kernel.
	LevelNone Level = iota

	// 128-bit kernels (SSE4.2).
	LevelSSE42

	// 256-bit kernels (AVX2) in addition to
	// the 128-bit ones.
	LevelAVX2
)

const levelEnvVar = "VESCAPE_SIMD_LEVEL"

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelSSE42:
		return "sse4.2"
	case LevelAVX2:
		return "avx2"
	default:
		return "unknown"
	}
}

// levelFromCPUFeatures determines the highest level
// the CPU supports.
func levelFromCPUFeatures() Level {
	if cpu.X86.HasAVX2 && cpu.X86.HasSSE42 {
		return LevelAVX2
	}
	if cpu.X86.HasSSE42 {
		return LevelSSE42
	}
	return LevelNone
}

// DetectLevel detects the level to use based on
// both CPU features and the VESCAPE_SIMD_LEVEL
// environment variable, which can only lower the
// detected level.
func DetectLevel() Level {
	val, _ := os.LookupEnv(levelEnvVar)
	detected := levelFromCPUFeatures()

	var env Level
	switch strings.ToLower(val) {
	default:
		return detected
	case "none", "disabled", "scalar":
		env = LevelNone
	case "sse", "sse4.2", "sse42":
		env = LevelSSE42
	case "avx", "avx2":
		env = LevelAVX2
	}
	if env <= detected {
		return env
	}
	return detected
}
