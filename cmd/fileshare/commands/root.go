package commands

import (
	"github.com/Alp4ka/gokeyset"
	"github.com/Alp4ka/gokeyset/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app is the state shared by all subcommands, set up before each run.
type app struct {
	configPath string

	cfg    *config.Config
	log    *logrus.Logger
	db     *gorm.DB
	codec  *gokeyset.Codec
	closer func() error
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "fileshare",
		Short:         "Browse files and share links with cursor pagination",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the configuration file")

	rootCmd.AddCommand(
		newMigrateCommand(a),
		newSeedCommand(a),
		newFilesCommand(a),
		newSharesCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.codec = gokeyset.DefaultCodec
	if cfg.GraphQL.CursorSecret != "" {
		a.codec, err = gokeyset.NewCodec(gokeyset.WithSigningKey([]byte(cfg.GraphQL.CursorSecret)))
		if err != nil {
			return errors.Wrap(err, "invalid cursor secret")
		}
	}

	a.db, a.closer, err = openDatabase(cfg.Database, a.log)
	if err != nil {
		return err
	}

	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// pagingOptions configures the paging engine from the loaded configuration.
func (a *app) pagingOptions() []gokeyset.Option {
	return []gokeyset.Option{
		gokeyset.WithPageSize(a.cfg.GraphQL.DefaultPageSize, a.cfg.GraphQL.PaginationLimit),
		gokeyset.WithCodec(a.codec),
		gokeyset.WithLogger(a.log),
		gokeyset.WithSnapshot(),
	}
}
