// Copyright 2025 The Mongoward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands implements the mongoward CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// VersionInfo carries build metadata injected via ldflags.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// NewRootCommand creates the mongoward root command.
func NewRootCommand(info VersionInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           "mongoward",
		Short:         "Supervise a single mongod process",
		Long:          `mongoward launches one mongod instance, waits for it to accept connections, and shuts it down cleanly on exit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewRunCommand())
	root.AddCommand(NewHistoryCommand())
	root.AddCommand(NewVersionCommand(info))

	return root
}
