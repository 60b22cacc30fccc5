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

package kopia

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// userNameSeparator ends the user name in a rendered SourceKey.
	userNameSeparator = '@'
	// hostSeparator ends the host in a rendered SourceKey.
	hostSeparator = ':'
)

// Source identifies where a snapshot was taken from.
type Source struct {
	Host     string `json:"host" yaml:"host"`
	UserName string `json:"userName" yaml:"userName"`
	Path     string `json:"path" yaml:"path"`
}

// SourceKey is the canonical "user@host:path" rendering of a Source.
// Two sources share a key only when all three fields are byte-identical.
type SourceKey struct {
	value string
}

// NewSourceKey wraps an already rendered key without validation.
// Use Source.Render for untrusted input.
func NewSourceKey(value string) SourceKey {
	return SourceKey{value: value}
}

// String returns the rendered key.
func (k SourceKey) String() string {
	return k.value
}

// Quoted returns the key as an escaped, double-quoted string.
func (k SourceKey) Quoted() string {
	return strconv.Quote(k.value)
}

// Compare orders keys bytewise.
func (k SourceKey) Compare(other SourceKey) int {
	return strings.Compare(k.value, other.value)
}

// MarshalText implements encoding.TextMarshaler so keys can be used in
// JSON and YAML maps.
func (k SourceKey) MarshalText() ([]byte, error) {
	return []byte(k.value), nil
}

// Render converts the source into its canonical key.
//
// The user name may not contain '@' and the host may not contain ':', since
// those characters delimit the fields in the rendered form. The user name is
// checked first.
func (s Source) Render() (SourceKey, error) {
	if strings.ContainsRune(s.UserName, userNameSeparator) {
		return SourceKey{}, &SourceError{
			Field:       FieldUserName,
			Value:       s.UserName,
			InvalidChar: userNameSeparator,
			Source:      s,
		}
	}
	if strings.ContainsRune(s.Host, hostSeparator) {
		return SourceKey{}, &SourceError{
			Field:       FieldHost,
			Value:       s.Host,
			InvalidChar: hostSeparator,
			Source:      s,
		}
	}

	return SourceKey{value: s.UserName + string(userNameSeparator) + s.Host + string(hostSeparator) + s.Path}, nil
}

// SourceField names the Source field that failed validation.
type SourceField string

const (
	FieldUserName SourceField = "userName"
	FieldHost     SourceField = "host"
)

// SourceError reports a Source that cannot be rendered unambiguously.
type SourceError struct {
	Field       SourceField
	Value       string
	InvalidChar rune
	Source      Source
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	var field string
	switch e.Field {
	case FieldUserName:
		field = "user name"
	case FieldHost:
		field = "host"
	default:
		field = string(e.Field)
	}
	return fmt.Sprintf("invalid char %q in %s %q in %+v", e.InvalidChar, field, e.Value, e.Source)
}

// InvalidUserName returns the offending user name, if that is what failed.
func (e *SourceError) InvalidUserName() (string, bool) {
	if e.Field != FieldUserName {
		return "", false
	}
	return e.Value, true
}

// InvalidHost returns the offending host, if that is what failed.
func (e *SourceError) InvalidHost() (string, bool) {
	if e.Field != FieldHost {
		return "", false
	}
	return e.Value, true
}
