// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package version

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr error
	}{
		{in: "1", want: Version{Major: 1, Precision: 1}},
		{in: "0.17", want: Version{Minor: 17, Precision: 2}},
		{in: "v0.17.0", want: Version{Minor: 17, Precision: 3}},
		{in: "0.21.1-rc1", want: Version{Minor: 21, Patch: 1, Precision: 3, Extras: "-rc1"}},
		{in: "1.2.3+build.5", want: Version{Major: 1, Minor: 2, Patch: 3, Precision: 3, Extras: "+build.5"}},
		{in: "", wantErr: ErrEmptyVersion},
		{in: "1.2.3.4", wantErr: ErrTooManyComponents},
		{in: "1..2", wantErr: ErrNonNumeric},
		{in: "a.b", wantErr: ErrNonNumeric},
		{in: "1.-2", wantErr: ErrNonNumeric},
		{in: "build:", wantErr: ErrNonNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseVersion(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	v, err := Extract("0.17.0 build: 1a2b3c from: kopia/kopia\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.String() != "0.17.0" {
		t.Errorf("Extract() = %s, want 0.17.0", v)
	}

	v, err = Extract("kopia version v0.21.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != NewVersion(0, 21, 1) {
		t.Errorf("Extract() = %+v, want 0.21.1", v)
	}

	if _, err = Extract("Repository status: OK"); !errors.Is(err, ErrNoVersion) {
		t.Errorf("Extract() error = %v, want ErrNoVersion", err)
	}

	// a lone major number is not enough to be trusted
	if _, err = Extract("exit 1"); !errors.Is(err, ErrNoVersion) {
		t.Errorf("Extract() error = %v, want ErrNoVersion", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.17.0", "0.17.0", 0},
		{"0.16.9", "0.17.0", -1},
		{"0.18.0", "0.17.5", 1},
		{"1.0", "0.99.99", 1},
		{"0.17", "0.17.9", 0},
		{"0.17.1", "0.17", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			a := MustParseVersion(tt.a)
			b := MustParseVersion(tt.b)
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
			if got := a.EqualsOrNewer(b); got != (tt.want >= 0) {
				t.Errorf("EqualsOrNewer() = %v, want %v", got, tt.want >= 0)
			}
		})
	}
}

func TestMustParseVersionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseVersion did not panic")
		}
	}()
	MustParseVersion("nope")
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Version
		want string
	}{
		{Version{Major: 1, Precision: 1}, "1"},
		{Version{Major: 1, Minor: 2, Precision: 2}, "1.2"},
		{NewVersion(1, 2, 3), "1.2.3"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
