package cmd

import (
	"os"

	"github.com/emrgen/bookshelf/internal/config"
	"github.com/emrgen/bookshelf/internal/service"
	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "personal document repository",
	Example: `bookshelf add report.pdf -t "Annual Report" -a "Jane Doe" -c finance -k budget
bookshelf search budget
bookshelf search annual --fuzzy --pick 1
bookshelf edit <id> -t "Annual Report 2024"
bookshelf copy <id>
bookshelf remove <id> --yes`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetLevel(logrus.WarnLevel)
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/bookshelf/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}

	return config.LoadConfig()
}

// openRegistry opens the bookshelf of the current configuration. Callers must Close it.
func openRegistry() (*service.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return service.Open(cfg)
}
