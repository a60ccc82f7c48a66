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

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// defaultLogLevel is the default logging level used when none is given.
	defaultLogLevel = "info"
)

// Root holds the ambient configuration shared by every command.
type Root struct {
	LogDir          string
	LogLevel        string
	DisableProgress bool
}

func NewRoot() (*Root, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return &Root{
		LogDir:          filepath.Join(homeDir, ".hfsnap", "logs"),
		LogLevel:        defaultLogLevel,
		DisableProgress: false,
	}, nil
}
