package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ja7ad/nps/internal/config"
	"github.com/ja7ad/nps/internal/fatalerr"
	"github.com/ja7ad/nps/internal/privilege"
	"github.com/ja7ad/nps/pkg/kernel"
)

const console = `nps - a from-scratch ps/top rework`

var (
	gate    *privilege.Gate
	rootDir string
	cfgPath string
	cfg     config.Config
)

func main() {
	root := &cobra.Command{
		Use:   "nps",
		Short: console,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			gate, err = privilege.Init()
			if err != nil {
				return fmt.Errorf("privilege init: %w", err)
			}
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if rootDir == "" {
				rootDir = cfg.Root
			}
			if rootDir == "" {
				rootDir = kernel.DefaultRoot
			}
			slog.Debug("starting", "root", rootDir, "privilege_mode", gate.Mode().String())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&rootDir, "root", "", "kernel-exported filesystem root (default /proc)")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to nps.yaml")

	root.AddCommand(newPsCommand())
	root.AddCommand(newTopCommand())

	if err := root.Execute(); err != nil {
		fatalerr.Exit(err)
	}
	os.Exit(0)
}
