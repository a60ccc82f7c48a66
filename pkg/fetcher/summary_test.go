/*
 *     Copyright 2025 The CNAI Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fetcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummaryTruncates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "onnx"), 0755))
	for i := 0; i < 45; i++ {
		name := fmt.Sprintf("shard-%02d.bin", i)
		if i%2 == 0 {
			name = filepath.Join("onnx", name)
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	f, stdout, _ := newTestFetcher(&fakeDownloader{}, &fakeCloner{})
	f.printSummary(dir)

	out := stdout.String()
	assert.Equal(t, maxSummaryEntries, strings.Count(out, " - "), "listing must cap at %d entries", maxSummaryEntries)
	assert.Contains(t, out, fmt.Sprintf("... (listing truncated after %d files)", maxSummaryEntries))
}

func TestPrintSummarySmallTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(strings.Repeat("x", 1234)), 0644))

	f, stdout, _ := newTestFetcher(&fakeDownloader{}, &fakeCloner{})
	f.printSummary(dir)

	out := stdout.String()
	assert.Contains(t, out, "config.json")
	assert.Contains(t, out, "(1,234 bytes)")
	assert.NotContains(t, out, "truncated")
}

func TestPrintGuidance(t *testing.T) {
	f, stdout, _ := newTestFetcher(&fakeDownloader{}, &fakeCloner{})
	f.printGuidance("/models/tiny")

	out := stdout.String()
	assert.Contains(t, out, "Next steps (host):")
	assert.Contains(t, out, "sudo chmod -R a+rX /models/tiny")
	assert.Contains(t, out, "HF_HUB_OFFLINE=1")
	assert.Contains(t, out, "TRANSFORMERS_OFFLINE=1")
}
