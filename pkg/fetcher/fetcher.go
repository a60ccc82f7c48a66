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

// Package fetcher drives one download run: destination preparation, primary
// snapshot fetch, the insecure fallback policy, the completeness check and
// the summary report.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/modelpack/hfsnap/pkg/hfhub"
)

// Downloader is the snapshot download capability.
type Downloader interface {
	Snapshot(ctx context.Context, req hfhub.SnapshotRequest) (string, error)
}

// Cloner is the version-control clone capability with TLS verification
// disabled, plus a best-effort large-file fetch that never fails the caller.
type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
	PullLFS(ctx context.Context, dest string)
}

// Request describes one fetch run. It is assembled once from configuration
// and never mutated.
type Request struct {
	RepoID        hfhub.RepoID
	Output        string
	Token         string
	UseSymlinks   bool
	Force         bool
	AllowInsecure bool
}

// Fetcher runs the download sequence against the two capabilities.
type Fetcher struct {
	downloader Downloader
	cloner     Cloner
	stdout     io.Writer
	stderr     io.Writer
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithStdout redirects operator status output.
func WithStdout(w io.Writer) Option {
	return func(f *Fetcher) {
		f.stdout = w
	}
}

// WithStderr redirects operator warning output.
func WithStderr(w io.Writer) Option {
	return func(f *Fetcher) {
		f.stderr = w
	}
}

// New creates a new fetcher.
func New(downloader Downloader, cloner Cloner, opts ...Option) *Fetcher {
	f := &Fetcher{
		downloader: downloader,
		cloner:     cloner,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Run executes one fetch: prepare destination, primary fetch, fallback policy,
// completeness check, summary. Fatal conditions come back as *RunError with a
// distinct exit status; completeness gaps never fail the run.
func (f *Fetcher) Run(ctx context.Context, req Request) error {
	if err := f.prepareDestination(req); err != nil {
		return err
	}

	fmt.Fprintf(f.stdout, "Attempting snapshot download for '%s' into %s ...\n", req.RepoID, req.Output)

	resolved, err := f.downloader.Snapshot(ctx, hfhub.SnapshotRequest{
		RepoID:      req.RepoID,
		Output:      req.Output,
		Token:       req.Token,
		UseSymlinks: req.UseSymlinks,
	})
	if err != nil {
		fmt.Fprintf(f.stderr, "WARNING: snapshot download failed: %v\n", err)
		logrus.Warnf("snapshot download of %s failed: %v", req.RepoID, err)

		if !req.AllowInsecure {
			fmt.Fprintln(f.stderr, "\nNo insecure fallback requested (--no-insecure set). Aborting.")
			return &RunError{
				Code: ExitFallbackDisabled,
				Err:  fmt.Errorf("snapshot download failed and the insecure fallback is disabled: %w", err),
			}
		}

		fmt.Fprintln(f.stderr, "\nDefault behavior is to attempt an INSECURE git clone as a fallback (DISABLES TLS verification).")
		fmt.Fprintln(f.stderr, "Proceeding with insecure fallback. If you do not want this, re-run with --no-insecure.")

		if cloneErr := f.cloner.Clone(ctx, req.RepoID.CloneURL(), req.Output); cloneErr != nil {
			fmt.Fprintln(f.stderr, "ERROR: insecure git clone also failed. Aborting.")
			fmt.Fprintln(f.stderr, "Re-run on a host with working transport security, or fix the certificate chain.")
			return &RunError{
				Code: ExitFallbackFailed,
				Err:  fmt.Errorf("insecure fallback failed: %w", cloneErr),
			}
		}

		f.cloner.PullLFS(ctx, req.Output)
		fmt.Fprintln(f.stdout, "Insecure git clone completed. Please verify files and run 'git lfs pull' if needed.")
		resolved = req.Output
	} else {
		fmt.Fprintf(f.stdout, "Download finished. Snapshot saved to: %s\n", resolved)
	}

	f.printReport(Check(resolved))
	f.printSummary(resolved)
	f.printGuidance(resolved)

	return nil
}

// prepareDestination consults the force preference when the destination
// already exists: destroy and start fresh, or warn and continue into it.
func (f *Fetcher) prepareDestination(req Request) error {
	if _, err := os.Stat(req.Output); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to inspect output directory: %w", err)
	}

	if req.Force {
		fmt.Fprintf(f.stdout, "Removing existing directory %s (because --force set)\n", req.Output)
		if err := os.RemoveAll(req.Output); err != nil {
			return fmt.Errorf("failed to remove existing output directory: %w", err)
		}

		return nil
	}

	fmt.Fprintf(f.stdout, "Output directory %s already exists. Use --force to replace it or choose another path.\n", req.Output)
	return nil
}
