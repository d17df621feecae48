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
	"testing"
)

func TestDetectLevelOverride(t *testing.T) {
	detected := levelFromCPUFeatures()
	t.Setenv(levelEnvVar, "none")
	if l := DetectLevel(); l != LevelNone {
		t.Errorf("none: got %s", l)
	}
	t.Setenv(levelEnvVar, "AVX2")
	if l := DetectLevel(); l > detected {
		t.Errorf("env raised level to %s above detected %s", l, detected)
	}
	t.Setenv(levelEnvVar, "sse")
	if l := DetectLevel(); l > LevelSSE42 {
		t.Errorf("sse: got %s", l)
	}
	t.Setenv(levelEnvVar, "bogus")
	if l := DetectLevel(); l != detected {
		t.Errorf("unknown value: got %s, want %s", l, detected)
	}
}
