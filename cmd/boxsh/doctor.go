package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sameehj/boxsh/pkg/config"
	"github.com/sameehj/boxsh/pkg/system"
)

func doctorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Show system info and effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			profile, err := system.Detect()
			if err != nil {
				return fmt.Errorf("detect system: %w", err)
			}
			for _, line := range profile.Lines() {
				fmt.Fprintln(out, line)
			}

			configPath := opts.configPath
			if configPath == "" {
				configPath = config.DefaultConfigPath()
			}
			timeout := "none"
			if d, _ := a.cfg.ExecTimeout(); d > 0 {
				timeout = d.String()
			}
			fmt.Fprintf(out, "config: %s\n", configPath)
			fmt.Fprintf(out, "root: %s\n", a.root)
			fmt.Fprintf(out, "escape: %s\n", a.cfg.EscapePolicy())
			fmt.Fprintf(out, "history: %s\n", displayOr(a.cfg.HistoryPath(a.root), "(memory only)"))
			fmt.Fprintf(out, "exec timeout: %s\n", timeout)
			fmt.Fprintf(out, "gateway: %s\n", a.cfg.Gateway.Address)
			if usage, err := system.DiskUsage(a.root); err == nil {
				fmt.Fprintf(out, "disk: %s\n", usage)
			}
			return nil
		},
	}
}

func displayOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

