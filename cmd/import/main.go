// Command import converts a directory of markdown files into posts.
//
// Each file may start with a TOML front matter block between %%% lines
// carrying title, date and published.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/db"
	"github.com/debemdeboas/spawnwrite/internal/logger"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/render"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	"github.com/debemdeboas/spawnwrite/internal/util/compression"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type options struct {
	configPath string
	path       string
	ownerID    string
	handle     string
	engine     string
	style      string
}

func main() {
	_ = godotenv.Load()

	var opts options
	cmd := &cobra.Command{
		Use:          "import",
		Short:        "Import markdown files as posts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the config file")
	cmd.Flags().StringVar(&opts.path, "path", "", "directory containing .md files")
	cmd.Flags().StringVar(&opts.ownerID, "owner-id", "", "user id owning the imported posts")
	cmd.Flags().StringVar(&opts.handle, "handle", "", "handle of the user owning the imported posts")
	cmd.Flags().StringVar(&opts.engine, "engine", render.EngineClassic, "markdown engine: classic or mmark")
	cmd.Flags().StringVar(&opts.style, "style", "github", "chroma style for code blocks")
	_ = cmd.MarkFlagRequired("path")
	cmd.MarkFlagsOneRequired("owner-id", "handle")
	cmd.MarkFlagsMutuallyExclusive("owner-id", "handle")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))
	render.SetLogger(logger.Component(l, "render"))

	database, err := db.New(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.InitDb(); err != nil {
		return fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()
	if err := db.Migrate(ctx, database); err != nil {
		return fmt.Errorf(config.ErrMigrateDatabaseFmt, err)
	}

	compressor, err := compression.New(cfg.Storage.Compression)
	if err != nil {
		return err
	}
	renderer, err := render.New(opts.engine, opts.style)
	if err != nil {
		return err
	}

	owner := model.UserID(opts.ownerID)
	if opts.handle != "" {
		user, err := repository.NewDBUserRepository(database).GetByHandle(ctx, opts.handle)
		if err != nil {
			return fmt.Errorf("resolving handle %q: %w", opts.handle, err)
		}
		owner = user.ID
	}

	im := &importer{
		posts:    repository.NewDBPostRepository(database, compressor, nil),
		renderer: renderer,
		owner:    owner,
		log:      logger.Component(l, "import"),
	}
	res, err := im.importDir(ctx, opts.path)
	if err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Imported %d post(s) for %s", res.Imported, owner)))
	for _, name := range res.Failed {
		fmt.Println(failStyle.Render("Failed: " + name))
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d file(s) failed", len(res.Failed))
	}
	return nil
}
