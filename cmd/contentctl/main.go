package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dacweb/dac/pkg/auth"
	"github.com/dacweb/dac/pkg/config"
	"github.com/dacweb/dac/pkg/contentsync"
	"github.com/dacweb/dac/pkg/database"
	"github.com/dacweb/dac/pkg/editor"
	"github.com/dacweb/dac/pkg/migrations"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	app := &cli.App{
		Name:  "contentctl",
		Usage: "administer dac content from the command line",
		Before: func(c *cli.Context) error {
			_, err := migrations.BringUpToDate(c.Context, db)
			return err
		},
		Commands: []*cli.Command{
			userCommand(db, cfg),
			syncCommand(db, cfg),
			tablesCommand(db, cfg),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

func userCommand(db *bun.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "manage admin users",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create an admin user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"DAC_ADMIN_PASSWORD"}},
				},
				Action: func(c *cli.Context) error {
					svc := auth.NewService(db, cfg.JWTSecret)
					user, err := svc.CreateUser(c.Context, c.String("email"), c.String("password"))
					if err != nil {
						return err
					}
					fmt.Printf("Created user %d (%s)\n", user.ID, user.Email)
					return nil
				},
			},
		},
	}
}

func syncCommand(db *bun.DB, cfg *config.Config) *cli.Command {
	svc := contentsync.NewService(db, cfg.DatabaseMaxRetries)

	return &cli.Command{
		Name:  "sync",
		Usage: "move learning data between a JSON file and the database",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check a learning data file without touching the database",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					doc, err := readDocument(c)
					if err != nil {
						return err
					}
					modules, chapters := doc.Counts()
					fmt.Printf("JSON is valid! %d modules, %d chapters\n", modules, chapters)
					return nil
				},
			},
			{
				Name:      "upload",
				Usage:     "replace every module and chapter with the file's contents",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					doc, err := readDocument(c)
					if err != nil {
						return err
					}
					res, err := svc.Replace(c.Context, doc)
					if err != nil {
						return err
					}
					fmt.Printf("Synced %d modules, %d chapters\n", res.Modules, res.Chapters)
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "write the database content to a file, or stdout when none is given",
				ArgsUsage: "[file]",
				Action: func(c *cli.Context) error {
					return export(c.Context, svc, c.Args().First())
				},
			},
		},
	}
}

func tablesCommand(db *bun.DB, cfg *config.Config) *cli.Command {
	load := func() (*editor.Service, error) {
		schemas, err := editor.LoadSchemas(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		return editor.NewService(db, schemas), nil
	}

	return &cli.Command{
		Name:  "tables",
		Usage: "manage which tables the admin editor can reach",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list registered tables",
				Action: func(c *cli.Context) error {
					svc, err := load()
					if err != nil {
						return err
					}
					tables, err := svc.ListTables(c.Context)
					if err != nil {
						return err
					}
					for _, t := range tables {
						fmt.Printf("%-24s %s\n", t.TableName, t.Label)
					}
					return nil
				},
			},
			{
				Name:      "register",
				Usage:     "expose a table in the admin editor",
				ArgsUsage: "<table>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "label", Usage: "display name, defaults to the table name"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one table name is required", 1)
					}
					svc, err := load()
					if err != nil {
						return err
					}
					label := c.String("label")
					if label == "" {
						label = editor.FieldLabel(c.Args().First())
					}
					t, err := svc.RegisterTable(c.Context, c.Args().First(), label)
					if err != nil {
						return err
					}
					fmt.Printf("Registered %s as %q\n", t.TableName, t.Label)
					return nil
				},
			},
		},
	}
}

func readDocument(c *cli.Context) (*contentsync.Document, error) {
	if c.NArg() != 1 {
		return nil, cli.Exit("exactly one file is required", 1)
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, contentsync.MaxDocumentSize))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return contentsync.Validate(raw)
}

func export(ctx context.Context, svc *contentsync.Service, path string) error {
	doc, err := svc.Export(ctx)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	if path == "" {
		_, err = os.Stdout.Write(data)
		return errors.WithStack(err)
	}
	// Readers of the file never see a partial export.
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write export")
	}
	modules, chapters := doc.Counts()
	fmt.Printf("Exported %d modules, %d chapters to %s\n", modules, chapters, path)
	return nil
}
