package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emrgen/bookshelf/internal/config"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const configTemplate = `settings:
  root_directory: %s
  db_filename: %s
  table_name: %s
  inbox_directory: %s
  files_directory: %s
  viewer: %s
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config commands",
}

func init() {
	configCmd.AddCommand(showConfigCommand())
	configCmd.AddCommand(initConfigCommand())
}

func showConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "show",
		Short: "show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Setting", "Value"})
			table.Append([]string{"Config file", currentConfigPath()})
			table.Append([]string{"Root directory", cfg.RootDirectory})
			table.Append([]string{"DB file name", cfg.DBFilename})
			table.Append([]string{"Table name", cfg.TableName})
			table.Append([]string{"Inbox directory", cfg.InboxDirectory})
			table.Append([]string{"Files directory", cfg.FilesDirectory})
			table.Append([]string{"Viewer", cfg.Viewer})
			table.Render()

			return nil
		},
	}

	return command
}

// writes the default configuration to the config file, unless one exists
func initConfigCommand() *cobra.Command {
	var root string

	command := &cobra.Command{
		Use:   "init",
		Short: "write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := currentConfigPath()
			if _, err := os.Stat(path); err == nil {
				color.Yellow("config file already exists: %s", path)
				return nil
			}

			cfg := config.Default()
			if root != "" {
				cfg.RootDirectory = root
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}

			content := fmt.Sprintf(configTemplate, cfg.RootDirectory, cfg.DBFilename, cfg.TableName,
				cfg.InboxDirectory, cfg.FilesDirectory, cfg.Viewer)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return err
			}

			color.Green("config saved to %s", path)
			return nil
		},
	}

	command.Flags().StringVarP(&root, "root", "r", "", "root directory of the bookshelf")

	return command
}

func currentConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		return path
	}

	return config.DefaultPath()
}
