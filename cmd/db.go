package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(migrateCmd())
	dbCmd.AddCommand(reindexCmd())
	dbCmd.AddCommand(checkCmd())
}

func migrateCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Create the directory layout, the record table and the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry()
			if err != nil {
				return err
			}

			return registry.Close()
		},
	}

	return command
}

func reindexCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the full-text index from the records",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			if err := registry.Reindex(context.Background()); err != nil {
				return err
			}

			color.Green("index rebuilt")
			return nil
		},
	}

	return command
}

func checkCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "check",
		Short: "Compare the records with the files on disk and verify the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			report, err := registry.Check(context.Background())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Records", "Files", "Missing files", "Orphan files", "Index"})
			index := "ok"
			if !report.IndexOK {
				index = report.IndexError
			}
			table.Append([]string{
				strconv.Itoa(report.Records),
				strconv.Itoa(report.Blobs),
				strconv.Itoa(len(report.MissingBlobs)),
				strconv.Itoa(len(report.OrphanBlobs)),
				index,
			})
			table.Render()

			for _, id := range report.MissingBlobs {
				color.Red("missing file for record %s", id)
			}
			for _, path := range report.OrphanBlobs {
				color.Yellow("orphan file %s", path)
			}

			if !report.Consistent() {
				if !report.IndexOK {
					fmt.Println("run `bookshelf db reindex` to rebuild the index")
				}
				return fmt.Errorf("bookshelf is inconsistent")
			}

			color.Green("bookshelf is consistent")
			return nil
		},
	}

	return command
}
