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

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calloway/mongoward/internal/history"
)

// NewHistoryCommand creates the history command, listing recorded
// lifecycle events newest first.
func NewHistoryCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := history.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer rec.Close()

			events, err := rec.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				cmd.Println("no lifecycle events recorded")
				return nil
			}

			for _, e := range events {
				line := fmt.Sprintf("%s  %-14s attempt=%s",
					e.OccurredAt.Format(time.RFC3339), e.Type, e.AttemptID)
				if e.PID != 0 {
					line += fmt.Sprintf(" pid=%d", e.PID)
				}
				if e.Detail != "" {
					line += " " + e.Detail
				}
				cmd.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "mongoward-history.db", "SQLite history database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum events to show")

	return cmd
}
