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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadDefaults(t *testing.T) {
	d := NewDownload()
	assert.Equal(t, "main", d.Revision)
	assert.Equal(t, 3, d.Concurrency)
	assert.False(t, d.NoSymlinks)
	assert.False(t, d.NoInsecure)
	assert.False(t, d.Force)
}

func TestDownloadValidate(t *testing.T) {
	d := NewDownload()
	assert.NoError(t, d.Validate())

	d.Concurrency = 0
	assert.Error(t, d.Validate())

	d = NewDownload()
	d.Revision = ""
	assert.Error(t, d.Validate())
}

func TestNewRoot(t *testing.T) {
	root, err := NewRoot()
	assert.NoError(t, err)
	assert.Equal(t, "info", root.LogLevel)
	assert.NotEmpty(t, root.LogDir)
	assert.False(t, root.DisableProgress)
}
