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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calloway/mongoward/internal/config"
	"github.com/calloway/mongoward/internal/history"
	"github.com/calloway/mongoward/internal/log"
	"github.com/calloway/mongoward/internal/supervisor"
)

// NewRunCommand creates the run command: start mongod, supervise it until
// interrupted, then stop it.
func NewRunCommand() *cobra.Command {
	var (
		configPath  string
		binaryPath  string
		dataDir     string
		port        uint16
		logFilePath string
		cacheSizeGB float64
		historyDB   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch and supervise a mongod instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(log.FromEnv())
			slog.SetDefault(logger)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Running the command states intent; the enabled switch only
			// matters for library embedders.
			cfg.Enabled = true

			// CLI flags override file values.
			if cmd.Flags().Changed("binary") {
				cfg.BinaryPath = binaryPath
			}
			if cmd.Flags().Changed("dbpath") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("log-file") {
				cfg.LogFilePath = logFilePath
			}
			if cmd.Flags().Changed("cache-gb") {
				cfg.CacheSizeGB = &cacheSizeGB
			}

			opts := []supervisor.Option{supervisor.WithLogger(logger)}
			if historyDB != "" {
				rec, err := history.OpenSQLite(historyDB)
				if err != nil {
					return err
				}
				defer rec.Close()
				opts = append(opts, supervisor.WithRecorder(rec))
			}

			sup, err := supervisor.New(cfg, opts...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := sup.Start(ctx); err != nil {
				return fmt.Errorf("startup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mongod ready at %s\n", sup.ConnectionURI())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
			case <-ctx.Done():
			}

			return sup.Stop(context.Background())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "mongoward.yaml", "Path to configuration file")
	cmd.Flags().StringVar(&binaryPath, "binary", "", "mongod binary (name or path)")
	cmd.Flags().StringVar(&dataDir, "dbpath", "", "Data directory")
	cmd.Flags().Uint16Var(&port, "port", 0, "Listen port")
	cmd.Flags().StringVar(&logFilePath, "log-file", "", "mongod log file path")
	cmd.Flags().Float64Var(&cacheSizeGB, "cache-gb", 0, "WiredTiger cache size in GB")
	cmd.Flags().StringVar(&historyDB, "history-db", "", "SQLite file for lifecycle event history")

	return cmd
}
