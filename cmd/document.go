package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/emrgen/bookshelf/internal/config"
	"github.com/emrgen/bookshelf/internal/model"
	"github.com/emrgen/bookshelf/internal/service"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(addDocCmd())
	rootCmd.AddCommand(searchDocCmd())
	rootCmd.AddCommand(showDocCmd())
	rootCmd.AddCommand(editDocCmd())
	rootCmd.AddCommand(removeDocCmd())
	rootCmd.AddCommand(copyDocCmd())
	rootCmd.AddCommand(openDocCmd())
}

type metadataFlags struct {
	title       string
	authors     string
	category    string
	keywords    string
	description string
}

func (f *metadataFlags) bind(command *cobra.Command) {
	command.Flags().StringVarP(&f.title, "title", "t", "", "title of the document")
	command.Flags().StringVarP(&f.authors, "authors", "a", "", "authors of the document")
	command.Flags().StringVarP(&f.category, "category", "c", "", "category of the document")
	command.Flags().StringVarP(&f.keywords, "keywords", "k", "", "keywords of the document")
	command.Flags().StringVarP(&f.description, "description", "d", "", "description of the document")
}

func (f *metadataFlags) metadata() model.Metadata {
	return model.Metadata{
		Title:       f.title,
		Authors:     f.authors,
		Category:    f.category,
		Keywords:    f.keywords,
		Description: f.description,
	}
}

// update collects the flags given on the command line.
func (f *metadataFlags) update(cmd *cobra.Command) model.MetadataUpdate {
	var u model.MetadataUpdate
	set := func(name string, value string, field **string) {
		if cmd.Flag(name).Changed {
			v := value
			*field = &v
		}
	}
	set("title", f.title, &u.Title)
	set("authors", f.authors, &u.Authors)
	set("category", f.category, &u.Category)
	set("keywords", f.keywords, &u.Keywords)
	set("description", f.description, &u.Description)

	return u
}

func addDocCmd() *cobra.Command {
	var flags metadataFlags

	command := &cobra.Command{
		Use:     "add FILE...",
		Short:   "add documents to the bookshelf",
		Long:    `copy files into the bookshelf and record their metadata; the title defaults to the file name`,
		Example: `bookshelf add report.pdf -t "Annual Report" -a "Jane Doe" -c finance -k budget -d "Q4 results"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			failed := 0
			for _, arg := range args {
				md := flags.metadata()
				if md.Title == "" {
					base := filepath.Base(arg)
					md.Title = strings.TrimSuffix(base, filepath.Ext(base))
				}

				doc, err := registry.Add(context.Background(), config.ExpandHome(arg), md)
				if err != nil {
					color.Red("%s: %v", arg, err)
					failed++
					continue
				}

				printDocument(doc)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files not added", failed, len(args))
			}
			return nil
		},
	}

	flags.bind(command)
	command.Flags().SortFlags = false

	return command
}

func searchDocCmd() *cobra.Command {
	var fuzzy bool
	var pick int

	command := &cobra.Command{
		Use:   "search KEYWORD",
		Short: "search documents by keyword",
		Long: `search title, authors, keywords and description for a substring,
or with --fuzzy run a ranked full-text query ("exact phrase", AND by default, OR, prefix*)`,
		Example: `bookshelf search budget
bookshelf search '"annual report"' --fuzzy
bookshelf search budget --pick 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			mode := service.SearchExact
			if fuzzy {
				mode = service.SearchFuzzy
			}

			ctx := context.Background()
			results, err := registry.Search(ctx, args[0], mode)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				color.Yellow("no matching records: %s", args[0])
				return nil
			}

			if pick == 0 {
				printResults(results, mode)
				return nil
			}

			if pick < 1 || pick > len(results) {
				return fmt.Errorf("--pick must be between 1 and %d", len(results))
			}

			doc, err := registry.Get(ctx, results[pick-1].ID)
			if err != nil {
				return err
			}
			printDocument(doc)
			return nil
		},
	}

	command.Flags().BoolVarP(&fuzzy, "fuzzy", "f", false, "ranked full-text search")
	command.Flags().IntVarP(&pick, "pick", "p", 0, "show the record at this position of the results")
	command.Flags().SortFlags = false

	return command
}

func showDocCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "show ID",
		Short: "show the metadata of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			doc, err := registry.Get(context.Background(), args[0])
			if err != nil {
				return err
			}

			printDocument(doc)
			return nil
		},
	}

	return command
}

func editDocCmd() *cobra.Command {
	var flags metadataFlags

	command := &cobra.Command{
		Use:     "edit ID",
		Short:   "edit the metadata of a document",
		Long:    `change the given fields of a document; fields without a flag keep their value`,
		Example: `bookshelf edit <id> -t "Annual Report 2024" -k "budget, forecast"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := flags.update(cmd)
			if update.Empty() {
				color.Red("missing: at least one of --title --authors --category --keywords --description")
				return fmt.Errorf("nothing to edit")
			}

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			doc, err := registry.Edit(context.Background(), args[0], update)
			if err != nil {
				return err
			}

			printDocument(doc)
			return nil
		},
	}

	flags.bind(command)
	command.Flags().SortFlags = false

	return command
}

func removeDocCmd() *cobra.Command {
	var yes bool

	command := &cobra.Command{
		Use:   "remove ID",
		Short: "delete the record of a document and move its file to the inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkMissingFlags(cmd, []string{"yes"}) || !yes {
				return fmt.Errorf("refusing to remove without confirmation")
			}

			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			dst, err := registry.Remove(context.Background(), args[0])
			if err != nil {
				return err
			}

			color.Green("record deleted, file moved to %s", dst)
			return nil
		},
	}

	command.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the removal")

	return command
}

func copyDocCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "copy ID",
		Short: "copy the file of a document to the inbox, named after its title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry()
			if err != nil {
				return err
			}
			defer registry.Close()

			dst, err := registry.CopyToHoldingNamed(context.Background(), args[0])
			if err != nil {
				return err
			}

			color.Green("copied to %s", dst)
			return nil
		},
	}

	return command
}

func openDocCmd() *cobra.Command {
	var viewer string

	command := &cobra.Command{
		Use:   "open ID",
		Short: "open the file of a document with a viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viewer == "" {
				viewer = cfg.Viewer
			}

			registry, err := service.Open(cfg)
			if err != nil {
				return err
			}
			defer registry.Close()

			path, err := registry.Locate(context.Background(), args[0])
			if err != nil {
				return err
			}

			logrus.Debugf("opening %s with %s", path, viewer)
			return exec.Command(viewer, path).Start()
		},
	}

	command.Flags().StringVar(&viewer, "viewer", "", "program used to open the file (default from config)")

	return command
}

func printDocument(doc *model.Document) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.Append([]string{"ID", doc.ID})
	table.Append([]string{"Filename", doc.Filename})
	table.Append([]string{"Title", doc.Title})
	table.Append([]string{"Authors", doc.Authors})
	table.Append([]string{"Category", doc.Category})
	table.Append([]string{"Keywords", doc.Keywords})
	table.Append([]string{"Description", doc.Description})
	table.Render()
}

func printResults(results []*model.SearchResult, mode service.SearchMode) {
	table := tablewriter.NewWriter(os.Stdout)
	if mode == service.SearchFuzzy {
		table.SetHeader([]string{"#", "ID", "Title", "Rank"})
	} else {
		table.SetHeader([]string{"#", "ID", "Category", "Title"})
	}

	for i, result := range results {
		if mode == service.SearchFuzzy {
			table.Append([]string{strconv.Itoa(i + 1), result.ID, result.Title, strconv.FormatFloat(result.Rank, 'f', 3, 64)})
		} else {
			table.Append([]string{strconv.Itoa(i + 1), result.ID, result.Category, result.Title})
		}
	}
	table.Render()
}

func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Yellow("provided: %s\n", provided)
		}
		return true
	}

	return false
}
