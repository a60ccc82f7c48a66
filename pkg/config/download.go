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

package config

import "fmt"

const (
	// defaultDownloadConcurrency is the default number of concurrent file downloads.
	defaultDownloadConcurrency = 3

	// defaultRevision is the repo revision downloaded when none is given.
	defaultRevision = "main"
)

type Download struct {
	Output      string
	Token       string
	Revision    string
	NoSymlinks  bool
	Force       bool
	NoInsecure  bool
	Include     []string
	Concurrency int
}

func NewDownload() *Download {
	return &Download{
		Output:      "",
		Token:       "",
		Revision:    defaultRevision,
		NoSymlinks:  false,
		Force:       false,
		NoInsecure:  false,
		Include:     nil,
		Concurrency: defaultDownloadConcurrency,
	}
}

func (d *Download) Validate() error {
	if d.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d", d.Concurrency)
	}

	if d.Revision == "" {
		return fmt.Errorf("revision is required")
	}

	return nil
}
