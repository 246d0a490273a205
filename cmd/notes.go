package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/edia/stratmap/internal/notes"
)

var (
	notesAuthor     string
	notesExportUser string
	notesExportOut  string
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage account notes",
}

var notesAddCmd = &cobra.Command{
	Use:   "add <account-name> <text>",
	Short: "Add a note to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		note, err := env.notes.Add(ctx, notes.AccountKey(args[0]), notesAuthor, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added note %s to %s.\n", note.ID, note.AccountKey)
		return nil
	},
}

var notesListCmd = &cobra.Command{
	Use:   "list <account-name>",
	Short: "List an account's notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.notes.List(ctx, notes.AccountKey(args[0]))
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No notes.")
			return nil
		}
		for _, n := range list {
			fmt.Printf("%s  %s: %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Author, n.Text)
		}
		return nil
	},
}

var notesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all notes to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		all, err := env.notes.All(ctx)
		if err != nil {
			return err
		}

		out := notesExportOut
		if out == "" {
			out = notes.ExportFileName(notesExportUser, time.Now())
		}
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "notes: create %s", out)
		}
		defer f.Close() //nolint:errcheck

		if err := notes.WriteExport(f, notesExportUser, all); err != nil {
			return err
		}
		fmt.Printf("Exported notes for %d account(s) to %s.\n", len(all), out)
		return nil
	},
}

var notesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a notes export file, skipping duplicates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "notes: open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		incoming, err := notes.ReadImport(f)
		if err != nil {
			return err
		}
		added, err := env.notes.Merge(ctx, incoming)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d new note(s) across %d account(s).\n", added, len(incoming))
		return nil
	},
}

func init() {
	notesAddCmd.Flags().StringVar(&notesAuthor, "author", "Anonymous", "note author")
	notesExportCmd.Flags().StringVar(&notesExportUser, "user", "", "exporting user's name")
	notesExportCmd.Flags().StringVarP(&notesExportOut, "out", "o", "", "output file (default conventional name)")

	notesCmd.AddCommand(notesAddCmd, notesListCmd, notesExportCmd, notesImportCmd)
	rootCmd.AddCommand(notesCmd)
}
