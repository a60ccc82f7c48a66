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

import "errors"

// Distinct process exit statuses.
const (
	// ExitFallbackDisabled is returned when the snapshot download fails and
	// the insecure fallback was explicitly disabled.
	ExitFallbackDisabled = 2
	// ExitFallbackFailed is returned when the insecure fallback itself fails.
	ExitFallbackFailed = 3
)

// RunError is a fatal run failure carrying its process exit status.
type RunError struct {
	Code int
	Err  error
}

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Fetcher.Run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Code
	}

	return 1
}
