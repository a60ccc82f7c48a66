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
	"io/fs"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
)

// maxSummaryEntries caps the file listing of the summary report.
const maxSummaryEntries = 40

// printSummary walks the destination tree and lists discovered files with
// their byte sizes, truncating after maxSummaryEntries. Listing is
// best-effort; stat failures render as 0 bytes.
func (f *Fetcher) printSummary(dir string) {
	fmt.Fprintf(f.stdout, "\nDownloaded files in %s:\n", dir)

	count := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		var size int64
		if info, infoErr := d.Info(); infoErr == nil {
			size = info.Size()
		}

		fmt.Fprintf(f.stdout, " - %s  (%s bytes)\n", rel, humanize.Comma(size))

		count++
		if count >= maxSummaryEntries {
			fmt.Fprintf(f.stdout, " ... (listing truncated after %d files)\n", maxSummaryEntries)
			return fs.SkipAll
		}

		return nil
	})
}

// printGuidance emits the fixed operator guidance for mounting the result
// into an offline container. Informational only, nothing here is executed.
func (f *Fetcher) printGuidance(dir string) {
	fmt.Fprintln(f.stdout, "\nNext steps (host):")
	fmt.Fprintf(f.stdout, " - Copy or rsync %s to your Docker host path where you'll mount it into the container.\n", dir)
	fmt.Fprintln(f.stdout, " - Ensure file permissions are readable by the container process, e.g.:")
	fmt.Fprintf(f.stdout, "     sudo chmod -R a+rX %s\n", dir)
	fmt.Fprintln(f.stdout, " - In your docker-compose, set MODEL_NAME to the container path where you will mount this directory.")
	fmt.Fprintln(f.stdout, " - Set HF_HUB_OFFLINE=1 and TRANSFORMERS_OFFLINE=1 inside the container environment to enforce offline mode.")
}
