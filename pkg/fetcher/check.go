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
)

// Requirement is one logical entry of the required file set, satisfied when
// any of its acceptable filenames exists at the destination root. Advisory
// requirements are reported as warnings and never counted missing.
type Requirement struct {
	Names    []string
	Advisory bool
}

// Label is the human-readable name of the requirement, e.g.
// "model.safetensors or pytorch_model.bin".
func (r Requirement) Label() string {
	return strings.Join(r.Names, " or ")
}

// RequiredFiles is the fixed file set a usable model directory must contain:
// a config file, a weights file and a tokenizer file, plus the advisory
// modules file used by models with dynamic modules.
func RequiredFiles() []Requirement {
	return []Requirement{
		{Names: []string{"config.json"}},
		{Names: []string{"model.safetensors", "pytorch_model.bin"}},
		{Names: []string{"tokenizer.json", "tokenizer_config.json", "sentencepiece.bpe.model", "vocab.txt"}},
		{Names: []string{"modules.json"}, Advisory: true},
	}
}

// Report lists the requirement labels missing from the destination.
type Report struct {
	Missing         []string
	AdvisoryMissing []string
}

// Complete reports whether every required (non-advisory) entry is present.
func (r Report) Complete() bool {
	return len(r.Missing) == 0
}

// Check scans the destination root (non-recursive) against the required file
// set. It never mutates and never fails; unreadable entries count as absent.
func Check(dir string) Report {
	var report Report
	for _, req := range RequiredFiles() {
		satisfied := false
		for _, name := range req.Names {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				satisfied = true
				break
			}
		}

		if satisfied {
			continue
		}

		if req.Advisory {
			report.AdvisoryMissing = append(report.AdvisoryMissing, req.Label())
		} else {
			report.Missing = append(report.Missing, req.Label())
		}
	}

	return report
}

// printReport renders the completeness report. Gaps are advisory only and
// leave the exit status untouched.
func (f *Fetcher) printReport(report Report) {
	for _, label := range report.AdvisoryMissing {
		fmt.Fprintf(f.stdout, "warning: %s not found (may be fine); if model uses dynamic modules this file should be present.\n", label)
	}

	if report.Complete() {
		fmt.Fprintln(f.stdout, "\nAll basic required files found: config + weights + tokenizer (or equivalents).")
		return
	}

	fmt.Fprintln(f.stdout, "\nERROR: The following required items appear to be missing from the downloaded model:")
	for _, label := range report.Missing {
		fmt.Fprintf(f.stdout, " - %s\n", label)
	}

	fmt.Fprintln(f.stderr, "\nIf files are missing (weights/LFS objects), ensure git-lfs fetched them or re-run the snapshot download on a machine with working TLS.")
}
