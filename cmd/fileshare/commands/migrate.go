package commands

import (
	"time"

	"github.com/Alp4ka/gokeyset/fileshare"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Create or update the file and share tables",
		RunE: func(*cobra.Command, []string) error {
			if err := fileshare.Migrate(a.db); err != nil {
				return errors.Wrap(err, "cannot migrate")
			}

			a.log.Info("migration finished")
			return nil
		},
	}
}

func newSeedCommand(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Args:  cobra.NoArgs,
		Short: "Insert demo files and shares",
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := fileshare.Seed(cmd.Context(), a.db, count, time.Now())
			if err != nil {
				return err
			}

			a.log.WithField("files", len(files)).Info("seed finished")
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "files", 25, "number of files to insert")

	return cmd
}
