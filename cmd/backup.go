package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emrgen/bookshelf/internal/compress"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "export and import the record catalog",
}

func init() {
	backupCmd.AddCommand(exportCatalogCmd())
	backupCmd.AddCommand(importCatalogCmd())
}

func exportCatalogCmd() *cobra.Command {
	var codecName string
	var output string

	command := &cobra.Command{
		Use:     "export",
		Short:   "write all records to a compressed catalog file",
		Long:    `write all records as JSON lines; the file defaults to the inbox`,
		Example: "bookshelf backup export --codec brotli -o catalog.br",
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := compress.ByName(codecName)
			if err != nil {
				return err
			}

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			if output == "" {
				name := fmt.Sprintf("catalog-%s.jsonl.%s", time.Now().Format("20060102-150405"), codec.Name())
				output = filepath.Join(registry.Inbox(), name)
			}

			file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return err
			}
			defer file.Close()

			n, err := registry.ExportCatalog(context.Background(), file, codec)
			if err != nil {
				_ = os.Remove(output)
				return err
			}

			color.Green("exported %d records to %s", n, output)
			return file.Close()
		},
	}

	command.Flags().StringVar(&codecName, "codec", "gzip", fmt.Sprintf("compression, one of %v", compress.Names()))
	command.Flags().StringVarP(&output, "output", "o", "", "catalog file to create")
	command.Flags().SortFlags = false

	return command
}

func importCatalogCmd() *cobra.Command {
	var codecName string

	command := &cobra.Command{
		Use:   "import FILE",
		Short: "insert the records of a catalog file that are missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := compress.ByName(codecName)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			stats, err := registry.ImportCatalog(context.Background(), file, codec)
			if err != nil {
				return err
			}

			color.Green("imported %d records, skipped %d, rejected %d", stats.Imported, stats.Skipped, stats.Rejected)
			return nil
		},
	}

	command.Flags().StringVar(&codecName, "codec", "gzip", fmt.Sprintf("compression, one of %v", compress.Names()))

	return command
}
