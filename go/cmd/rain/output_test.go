// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rainlanguage/rain.interpreter/go/eval"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/rainlanguage/rain.interpreter/go/trace"
)

func TestEncodings(t *testing.T) {
	data := []byte{0x01, 0xab, 'r', 'a', 'i', 'n'}
	tests := map[string]string{
		"binary": string(data),
		"hex":    "0x01ab7261696e",
		"utf8":   "\x01�rain",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			if got := string(encodings[name](data)); got != want {
				t.Errorf("unexpected output, wanted %q, got %q", want, got)
			}
		})
	}
	if want := []string{"binary", "hex", "utf8"}; !slices.Equal(encodingNames(), want) {
		t.Errorf("unexpected encoding names %v", encodingNames())
	}
}

func TestWriteOutput_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	if err := writeOutput(path, []byte("0x01")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(got) != "0x01" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestFormatTable(t *testing.T) {
	results := eval.EvalResults{{Traces: []trace.SourceTrace{
		{ParentSource: 1, Source: 1, Stack: words(1, 2)},
		{ParentSource: 1, Source: 2, Stack: words(3)},
	}}}
	want := "1.0,1.1,1.2.0\n2,1,3\n"
	if got := string(formatTable(results)); got != want {
		t.Errorf("unexpected table, wanted %q, got %q", want, got)
	}
}

func words(values ...uint64) []rain.Word {
	res := make([]rain.Word, len(values))
	for i, v := range values {
		res[i] = rain.NewWord(v)
	}
	return res
}
