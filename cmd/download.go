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

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modelpack/hfsnap/pkg/config"
	"github.com/modelpack/hfsnap/pkg/fetcher"
	"github.com/modelpack/hfsnap/pkg/gitclone"
	"github.com/modelpack/hfsnap/pkg/hfhub"
)

var downloadConfig = config.NewDownload()

// downloadCmd represents the hfsnap command for download.
var downloadCmd = &cobra.Command{
	Use:                "download [flags] <repo>",
	Short:              "A command line tool for hfsnap download",
	Args:               cobra.ExactArgs(1),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(context.Background(), args[0])
	},
}

// init initializes download command.
func init() {
	flags := downloadCmd.Flags()
	flags.StringVarP(&downloadConfig.Output, "output", "o", "", "output directory for the model files, defaults to the repo name")
	flags.StringVarP(&downloadConfig.Token, "token", "t", "", "Hugging Face token for private repos, falls back to HF_TOKEN env var")
	flags.StringVar(&downloadConfig.Revision, "revision", downloadConfig.Revision, "repo revision to download")
	flags.BoolVar(&downloadConfig.NoSymlinks, "no-symlinks", false, "do not use symlinks when downloading, recommended for copying to offline hosts")
	flags.BoolVarP(&downloadConfig.Force, "force", "f", false, "remove existing output directory before downloading")
	flags.BoolVar(&downloadConfig.NoInsecure, "no-insecure", false, "do NOT run the insecure git fallback if the snapshot download fails")
	flags.StringArrayVar(&downloadConfig.Include, "include", nil, "glob patterns restricting which files are downloaded")
	flags.IntVar(&downloadConfig.Concurrency, "concurrency", downloadConfig.Concurrency, "number of concurrent file downloads")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind download flags to viper: %w", err))
	}
}

// runDownload runs the download hfsnap.
func runDownload(ctx context.Context, repo string) error {
	if err := downloadConfig.Validate(); err != nil {
		return err
	}

	repoID, err := hfhub.ParseRepoID(repo)
	if err != nil {
		return err
	}

	output := downloadConfig.Output
	if output == "" {
		output = repoID.Name
	}

	output, err = filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}

	// Assemble the request once here; no ambient env lookups happen below
	// the cmd layer.
	req := fetcher.Request{
		RepoID:        repoID,
		Output:        output,
		Token:         hfhub.ResolveToken(downloadConfig.Token),
		UseSymlinks:   !downloadConfig.NoSymlinks,
		Force:         downloadConfig.Force,
		AllowInsecure: !downloadConfig.NoInsecure,
	}

	f := fetcher.New(
		hfhub.NewClient(
			hfhub.WithRevision(downloadConfig.Revision),
			hfhub.WithInclude(downloadConfig.Include),
			hfhub.WithConcurrency(downloadConfig.Concurrency),
		),
		gitclone.New(),
	)

	return f.Run(ctx, req)
}
