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

package hfhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	retry "github.com/avast/retry-go/v4"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	internalpb "github.com/modelpack/hfsnap/internal/pb"
)

const (
	// blobDirName is the directory under the output where shared LFS blobs
	// live when the symlink policy is enabled.
	blobDirName = ".hfsnap-blobs"
)

// SnapshotRequest describes one snapshot download.
type SnapshotRequest struct {
	RepoID      RepoID
	Output      string
	Token       string
	UseSymlinks bool
}

// Client downloads model repo snapshots from the Hugging Face hub.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	revision    string
	include     []string
	concurrency int
}

// Option configures the hub client.
type Option func(*Client)

// WithBaseURL overrides the hub endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRevision sets the repo revision to download.
func WithRevision(revision string) Option {
	return func(c *Client) {
		c.revision = revision
	}
}

// WithInclude restricts the download to files matching any of the glob patterns.
func WithInclude(patterns []string) Option {
	return func(c *Client) {
		c.include = patterns
	}
}

// WithConcurrency sets the number of concurrent file downloads.
func WithConcurrency(concurrency int) Option {
	return func(c *Client) {
		c.concurrency = concurrency
	}
}

// NewClient creates a new hub client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     BaseURL,
		httpClient:  &http.Client{},
		revision:    "main",
		concurrency: 3,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// treeEntry is one entry of the hub tree API response.
type treeEntry struct {
	Type string   `json:"type"`
	Oid  string   `json:"oid"`
	Size int64    `json:"size"`
	Path string   `json:"path"`
	LFS  *lfsInfo `json:"lfs,omitempty"`
}

// lfsInfo is the LFS metadata of a tree entry. The oid is the sha256 of the
// file content.
type lfsInfo struct {
	Oid         string `json:"oid"`
	Size        int64  `json:"size"`
	PointerSize int    `json:"pointerSize"`
}

// Snapshot materializes the full repo tree into the output directory and
// returns the resolved output path. The request is attempted exactly once;
// only individual file transfers are retried internally.
func (c *Client) Snapshot(ctx context.Context, req SnapshotRequest) (string, error) {
	logrus.Infof("Downloading snapshot of %s (revision %s) to %s", req.RepoID, c.revision, req.Output)

	files, err := c.listTree(ctx, req, "")
	if err != nil {
		logrus.Errorf("failed to list repo tree: %v", err)
		return "", fmt.Errorf("failed to list repo tree: %w", err)
	}

	if err := os.MkdirAll(req.Output, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	pb := internalpb.NewProgressBar()
	pb.Start()
	defer pb.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, file := range files {
		file := file
		g.Go(func() error {
			return retry.Do(func() error {
				return c.downloadFile(gctx, pb, req, file)
			}, retryOpts...)
		})
	}

	if err := g.Wait(); err != nil {
		logrus.Errorf("failed to download snapshot of %s: %v", req.RepoID, err)
		return "", fmt.Errorf("failed to download snapshot of %s: %w", req.RepoID, err)
	}

	logrus.Infof("Downloaded %d files of %s", len(files), req.RepoID)
	return req.Output, nil
}

// listTree walks the hub tree API recursively and returns every file entry
// that passes the include patterns.
func (c *Client) listTree(ctx context.Context, req SnapshotRequest, folder string) ([]treeEntry, error) {
	treeURL := fmt.Sprintf("%s/api/models/%s/tree/%s/%s", c.baseURL, req.RepoID, c.revision, folder)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, treeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Token != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", req.Token))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to query repo tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, req)
	}

	var entries []treeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode repo tree: %w", err)
	}

	var files []treeEntry
	for _, entry := range entries {
		if entry.Type == "directory" {
			children, err := c.listTree(ctx, req, entry.Path)
			if err != nil {
				return nil, err
			}

			files = append(files, children...)
			continue
		}

		if c.included(entry.Path) {
			files = append(files, entry)
		}
	}

	return files, nil
}

// included reports whether a repo-relative path passes the include patterns.
func (c *Client) included(name string) bool {
	if len(c.include) == 0 {
		return true
	}

	for _, pattern := range c.include {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}

	return false
}

// downloadFile materializes one file into the output directory, honoring the
// symlink policy for LFS blobs. Files already present with the expected size
// are skipped, so an interrupted run can be re-invoked.
func (c *Client) downloadFile(ctx context.Context, pb *internalpb.ProgressBar, req SnapshotRequest, entry treeEntry) error {
	target := filepath.Join(req.Output, filepath.FromSlash(entry.Path))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", entry.Path, err)
	}

	if fi, err := os.Stat(target); err == nil && fi.Size() == entry.Size {
		pb.Complete(entry.Path, fmt.Sprintf("Skipped %s, already exists", entry.Path))
		return nil
	}

	if req.UseSymlinks && entry.LFS != nil {
		return c.downloadBlobAndLink(ctx, pb, req, entry, target)
	}

	return c.fetchTo(ctx, pb, req, entry, target)
}

// downloadBlobAndLink places the LFS blob in the shared blob directory and
// links the repo path to it.
func (c *Client) downloadBlobAndLink(ctx context.Context, pb *internalpb.ProgressBar, req SnapshotRequest, entry treeEntry, target string) error {
	blobDir := filepath.Join(req.Output, blobDirName)
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	blob := filepath.Join(blobDir, entry.LFS.Oid)
	if fi, err := os.Stat(blob); err != nil || fi.Size() != entry.LFS.Size {
		if err := c.fetchTo(ctx, pb, req, entry, blob); err != nil {
			return err
		}
	}

	rel, err := filepath.Rel(filepath.Dir(target), blob)
	if err != nil {
		return fmt.Errorf("failed to relativize blob path: %w", err)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale file %s: %w", target, err)
	}

	if err := os.Symlink(rel, target); err != nil {
		return fmt.Errorf("failed to link %s: %w", entry.Path, err)
	}

	return nil
}

// fetchTo streams one file from the hub resolve endpoint to dest.
func (c *Client) fetchTo(ctx context.Context, pb *internalpb.ProgressBar, req SnapshotRequest, entry treeEntry, dest string) error {
	// Format: https://huggingface.co/{owner}/{repo}/resolve/{revision}/{path}
	fileURL := fmt.Sprintf("%s/%s/resolve/%s/%s", c.baseURL, req.RepoID, c.revision, path.Clean(entry.Path))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if req.Token != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", req.Token))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", entry.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp.StatusCode, req)
	}

	outFile, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer outFile.Close()

	size := entry.Size
	if entry.LFS != nil {
		size = entry.LFS.Size
	}

	reader := pb.Add(internalpb.NormalizePrompt("Downloading"), entry.Path, size, resp.Body)
	if _, err := io.Copy(outFile, reader); err != nil {
		return fmt.Errorf("failed to write %s: %w", entry.Path, err)
	}

	return nil
}

// statusError maps hub status codes to actionable errors.
func (c *Client) statusError(code int, req SnapshotRequest) error {
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("repo %s requires an access token, generate one on the Hugging Face site and pass it with --token", req.RepoID)
	case http.StatusForbidden:
		return fmt.Errorf("you need to manually accept the agreement for %s at %s/%s", req.RepoID, c.baseURL, req.RepoID)
	case http.StatusNotFound:
		return fmt.Errorf("repo %s not found (revision %s)", req.RepoID, c.revision)
	default:
		return fmt.Errorf("unexpected status code %d from hub", code)
	}
}
