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

package metrics

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
)

// ContentType is the media type of the text written by Write.
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// Render returns the exposition text for inv as of now.
func Render(inv *kopia.Inventory, now time.Time) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = Write(&b, inv, now)
	return b.String()
}

// Write renders every present catalog metric to w. Blocks are separated by
// a blank line and appear in catalog order.
func Write(w io.Writer, inv *kopia.Inventory, now time.Time) error {
	bw := bufio.NewWriter(w)
	first := true
	for _, d := range Catalog {
		series := d.Compute(inv, now)
		if !d.Present(series) {
			continue
		}
		if !first {
			bw.WriteByte('\n')
		}
		first = false
		writeBlock(bw, d, series)
	}
	return bw.Flush()
}

func writeBlock(w *bufio.Writer, d Descriptor, series Series) {
	w.WriteString("# HELP " + d.Name + " " + d.Help + "\n")
	w.WriteString("# TYPE " + d.Name + " " + string(d.Type) + "\n")
	for _, s := range series {
		w.WriteString(d.Name)
		if len(s.Labels) > 0 {
			w.WriteByte('{')
			for i, l := range s.Labels {
				if i > 0 {
					w.WriteByte(',')
				}
				w.WriteString(l.Name)
				w.WriteByte('=')
				w.WriteString(strconv.Quote(l.Value))
			}
			w.WriteByte('}')
		}
		w.WriteByte(' ')
		w.WriteString(s.Value.String())
		w.WriteByte('\n')
	}
}
