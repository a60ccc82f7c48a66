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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelpack/hfsnap/pkg/hfhub"
)

type fakeDownloader struct {
	err    error
	files  []string
	called int
}

func (d *fakeDownloader) Snapshot(ctx context.Context, req hfhub.SnapshotRequest) (string, error) {
	d.called++
	if d.err != nil {
		return "", d.err
	}

	for _, name := range d.files {
		if err := os.MkdirAll(req.Output, 0755); err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(req.Output, name), []byte(name), 0644); err != nil {
			return "", err
		}
	}

	return req.Output, nil
}

type fakeCloner struct {
	err         error
	files       []string
	cloneCalled int
	lfsCalled   int
	cloneURL    string
}

func (c *fakeCloner) Clone(ctx context.Context, url, dest string) error {
	c.cloneCalled++
	c.cloneURL = url
	if c.err != nil {
		return c.err
	}

	for _, name := range c.files {
		if err := os.MkdirAll(dest, 0755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dest, name), []byte(name), 0644); err != nil {
			return err
		}
	}

	return nil
}

func (c *fakeCloner) PullLFS(ctx context.Context, dest string) {
	c.lfsCalled++
}

func newTestFetcher(d Downloader, c Cloner) (*Fetcher, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return New(d, c, WithStdout(stdout), WithStderr(stderr)), stdout, stderr
}

func testRequest(output string, allowInsecure bool) Request {
	return Request{
		RepoID:        hfhub.RepoID{Owner: "acme", Name: "tiny"},
		Output:        output,
		AllowInsecure: allowInsecure,
	}
}

func TestRunPrimarySuccessSkipsFallback(t *testing.T) {
	downloader := &fakeDownloader{files: []string{"config.json", "model.safetensors", "tokenizer.json"}}
	cloner := &fakeCloner{}
	f, stdout, _ := newTestFetcher(downloader, cloner)

	output := filepath.Join(t.TempDir(), "model")
	err := f.Run(context.Background(), testRequest(output, true))
	require.NoError(t, err)

	assert.Equal(t, 1, downloader.called)
	assert.Equal(t, 0, cloner.cloneCalled, "fallback must never run after a primary success")
	assert.Equal(t, 0, cloner.lfsCalled)
	assert.Contains(t, stdout.String(), "All basic required files found")
}

func TestRunFallbackDisabled(t *testing.T) {
	downloader := &fakeDownloader{err: errors.New("connection reset")}
	cloner := &fakeCloner{}
	f, _, stderr := newTestFetcher(downloader, cloner)

	output := filepath.Join(t.TempDir(), "model")
	req := testRequest(output, false)
	err := f.Run(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, ExitFallbackDisabled, ExitCode(err))
	assert.Equal(t, 0, cloner.cloneCalled)
	assert.Contains(t, stderr.String(), "No insecure fallback requested")

	// Destination untouched.
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunFallbackFailed(t *testing.T) {
	downloader := &fakeDownloader{err: errors.New("connection reset")}
	cloner := &fakeCloner{err: errors.New("certificate rejected")}
	f, _, stderr := newTestFetcher(downloader, cloner)

	output := filepath.Join(t.TempDir(), "model")
	err := f.Run(context.Background(), testRequest(output, true))
	require.Error(t, err)

	assert.Equal(t, ExitFallbackFailed, ExitCode(err))
	assert.Equal(t, 1, cloner.cloneCalled)
	assert.Equal(t, 0, cloner.lfsCalled, "LFS pull must not run after a failed clone")
	assert.Contains(t, stderr.String(), "insecure git clone also failed")
}

func TestRunFallbackSucceeds(t *testing.T) {
	downloader := &fakeDownloader{err: errors.New("connection reset")}
	cloner := &fakeCloner{files: []string{"config.json", "pytorch_model.bin", "vocab.txt"}}
	f, stdout, stderr := newTestFetcher(downloader, cloner)

	output := filepath.Join(t.TempDir(), "model")
	err := f.Run(context.Background(), testRequest(output, true))
	require.NoError(t, err)

	assert.Equal(t, 1, cloner.cloneCalled)
	assert.Equal(t, 1, cloner.lfsCalled)
	assert.Equal(t, "https://huggingface.co/acme/tiny", cloner.cloneURL)
	assert.Contains(t, stderr.String(), "INSECURE")
	assert.Contains(t, stdout.String(), "Insecure git clone completed")
	assert.Contains(t, stdout.String(), "All basic required files found")
}

func TestRunReportsMissingFiles(t *testing.T) {
	downloader := &fakeDownloader{files: []string{"config.json", "model.safetensors"}}
	f, stdout, _ := newTestFetcher(downloader, &fakeCloner{})

	output := filepath.Join(t.TempDir(), "model")
	err := f.Run(context.Background(), testRequest(output, true))
	require.NoError(t, err, "completeness gaps never fail the run")

	assert.Equal(t, 0, ExitCode(err))
	assert.Contains(t, stdout.String(), "appear to be missing")
	assert.Contains(t, stdout.String(), "tokenizer.json or tokenizer_config.json or sentencepiece.bpe.model or vocab.txt")
}

func TestPrepareDestinationForceIdempotent(t *testing.T) {
	f, stdout, _ := newTestFetcher(&fakeDownloader{}, &fakeCloner{})

	output := filepath.Join(t.TempDir(), "model")
	req := testRequest(output, true)
	req.Force = true

	for i := 0; i < 2; i++ {
		require.NoError(t, os.MkdirAll(output, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(output, "stale.bin"), []byte("old"), 0644))

		require.NoError(t, f.prepareDestination(req))

		_, err := os.Stat(output)
		assert.True(t, os.IsNotExist(err), "run %d: destination should be gone before fetch begins", i)
	}

	assert.Contains(t, stdout.String(), "Removing existing directory")
}

func TestPrepareDestinationWarnAndContinue(t *testing.T) {
	f, stdout, _ := newTestFetcher(&fakeDownloader{}, &fakeCloner{})

	output := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(output, "keep.bin"), []byte("keep"), 0644))

	require.NoError(t, f.prepareDestination(testRequest(output, true)))

	// Without force the existing contents survive and the run proceeds.
	_, err := os.Stat(filepath.Join(output, "keep.bin"))
	assert.NoError(t, err)
	assert.Contains(t, stdout.String(), "already exists")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("plain")))
	assert.Equal(t, 2, ExitCode(&RunError{Code: ExitFallbackDisabled, Err: errors.New("x")}))
	assert.Equal(t, 3, ExitCode(fmt.Errorf("wrapped: %w", &RunError{Code: ExitFallbackFailed, Err: errors.New("x")})))
}
