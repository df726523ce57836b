package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillcms/internal/app"
	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/logger"
	"github.com/quillcms/internal/plugin"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quill",
		Short:         "Quill - multi-language blog and content engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newImportCmd(), newHashPasswordCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	env := config.Load()
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site described by a YAML config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			level, format := env.LogLevel, env.LogFormat
			gin.SetMode(env.GinMode)
			if cfg.Debug {
				level, format = "debug", "console"
				gin.SetMode(gin.DebugMode)
			}
			log := logger.New(cmd.OutOrStdout(), level, format)

			e, err := app.Build(cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("bring-up failed")
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, e, addr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", env.ConfigPath, "site config file")
	cmd.Flags().StringVar(&addr, "addr", env.ListenAddr, "listen address")
	return cmd
}

func newImportCmd() *cobra.Command {
	var from, driver, dsn string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a JSON content file into an SQL database",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := db.NewJSONFile(from)
			if err != nil {
				return err
			}
			target, err := db.OpenSQL(driver, dsn)
			if err != nil {
				return err
			}
			defer target.Close()

			if err := db.ImportTree(target.DB, source.Data); err != nil {
				return fmt.Errorf("import %s: %w", from, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s into %s database\n", from, target.DB.Dialector.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "JSON content file")
	cmd.Flags().StringVar(&driver, "driver", "sqlite", "SQL driver (sqlite or mysql)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "SQL data source name")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

// newHashPasswordCmd prints the bcrypt hash expected in the passwordlogin
// plugin config.
func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Hash an admin password for the passwordlogin plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hashed))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the plugin API version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quill %s\n", plugin.CoreVersion)
		},
	}
}

