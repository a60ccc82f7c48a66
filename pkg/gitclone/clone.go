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

// Package gitclone provides the insecure clone fallback: a git clone of the
// hub repository with TLS certificate verification disabled, followed by a
// best-effort git-lfs pull. It deliberately weakens transport security and
// must only run with explicit operator authorization.
package gitclone

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// Git clones hub repositories over HTTPS without verifying certificates.
type Git struct{}

// New creates a new insecure cloner.
func New() *Git {
	return &Git{}
}

// Clone clones url into dest with TLS verification disabled. A prominent
// warning is written to stderr before anything touches the network.
func (g *Git) Clone(ctx context.Context, url, dest string) error {
	fmt.Fprintln(os.Stderr, "\n*** INSECURE FALLBACK: about to clone with TLS verification DISABLED ***")
	fmt.Fprintln(os.Stderr, "If you do not have explicit authorization to bypass TLS verification, abort now.")
	fmt.Fprintf(os.Stderr, "Cloning %s into %s\n", url, dest)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	logrus.Warnf("insecure fallback: cloning %s with TLS verification disabled", url)

	if _, err := gogit.PlainCloneContext(ctx, dest, false, &gogit.CloneOptions{
		URL:             url,
		InsecureSkipTLS: true,
		Progress:        os.Stderr,
	}); err != nil {
		logrus.Errorf("insecure clone of %s failed: %v", url, err)
		return fmt.Errorf("insecure git clone failed: %w", err)
	}

	return nil
}

// PullLFS fetches LFS objects for an already-cloned repo. It is best-effort:
// failures are logged, never returned.
func (g *Git) PullLFS(ctx context.Context, dest string) {
	if _, err := exec.LookPath("git-lfs"); err != nil {
		fmt.Fprintln(os.Stderr, "git-lfs not installed or not found; if large files are missing, install git-lfs and run 'git lfs pull' in the repo.")
		logrus.Warnf("git-lfs not found in PATH: %v", err)
		return
	}

	install := exec.CommandContext(ctx, "git", "lfs", "install")
	install.Dir = dest
	if err := install.Run(); err != nil {
		logrus.Warnf("git lfs install failed: %v", err)
	}

	fmt.Println("Attempting 'git lfs pull' to fetch LFS objects (if any)...")

	pull := exec.CommandContext(ctx, "git", "lfs", "pull")
	pull.Dir = dest
	pull.Stdout = os.Stdout
	pull.Stderr = os.Stderr
	if err := pull.Run(); err != nil {
		logrus.Warnf("git lfs pull failed: %v", err)
	}
}
