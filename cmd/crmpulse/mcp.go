package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/crmpulse/crmpulse/internal/history"
	"github.com/crmpulse/crmpulse/internal/mcptools"
	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/config"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the audit engine as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			var store *history.Store
			if cfg.History.Enabled {
				s, err := history.Open(config.HistoryPath(cfg))
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
				} else {
					store = s
					defer store.Close()
				}
			}

			s := mcptools.NewServer(audit.NewEngine(), store, version)
			return server.ServeStdio(s)
		},
	}
}
