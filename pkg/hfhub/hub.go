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
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	// BaseURL is the Hugging Face hub endpoint.
	BaseURL = "https://huggingface.co"
)

// RepoID identifies a model repository on the hub in owner/name form.
type RepoID struct {
	Owner string
	Name  string
}

func (r RepoID) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// CloneURL returns the git clone URL of the repository.
func (r RepoID) CloneURL() string {
	return fmt.Sprintf("%s/%s/%s", BaseURL, r.Owner, r.Name)
}

// ParseRepoID parses a Hugging Face model URL or short-form identifier and
// extracts the owner and repository name.
func ParseRepoID(modelURL string) (RepoID, error) {
	// Handle both full URLs and short-form repo names.
	modelURL = strings.TrimSpace(modelURL)

	// Remove trailing slashes.
	modelURL = strings.TrimSuffix(modelURL, "/")

	var owner, name string

	// If it's a full URL, parse it.
	if strings.HasPrefix(modelURL, "http://") || strings.HasPrefix(modelURL, "https://") {
		u, err := url.Parse(modelURL)
		if err != nil {
			return RepoID{}, fmt.Errorf("invalid URL: %w", err)
		}

		// Expected format: https://huggingface.co/owner/repo
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 {
			return RepoID{}, fmt.Errorf("invalid Hugging Face URL format, expected https://huggingface.co/owner/repo")
		}

		owner = parts[0]
		name = parts[1]
	} else {
		// Handle short-form like "owner/repo".
		parts := strings.Split(modelURL, "/")
		if len(parts) != 2 {
			return RepoID{}, fmt.Errorf("invalid model identifier, expected format: owner/repo")
		}

		owner = parts[0]
		name = parts[1]
	}

	if owner == "" || name == "" {
		return RepoID{}, fmt.Errorf("owner and repository name cannot be empty")
	}

	return RepoID{Owner: owner, Name: name}, nil
}

// ResolveToken resolves the Hugging Face token, preferring the explicit value
// and falling back to the HF_TOKEN and HUGGINGFACE_TOKEN env vars and finally
// the huggingface-cli token file. Returns the empty string when no token is
// available, which is fine for public repos.
func ResolveToken(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if token := os.Getenv("HF_TOKEN"); token != "" {
		return token
	}

	if token := os.Getenv("HUGGINGFACE_TOKEN"); token != "" {
		return token
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(homeDir, ".huggingface", "token"))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
