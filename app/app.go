package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.shoplens.io/shoplens/app/config"
	actx "go.shoplens.io/shoplens/app/context"
	"go.shoplens.io/shoplens/cli"
	"go.shoplens.io/shoplens/db"
	"go.shoplens.io/shoplens/migrations"
)

// App is the application.
type App struct {
	name    string
	dataDir string
	ctx     *actx.Context
	cli     *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application.
func New(name, configFile, dataDir string, opts ...Option) (*App, error) {
	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: actx.GetVersion(),
	}
	app := &App{name: name, dataDir: dataDir, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version)
	var err error
	app.cli, err = cli.New(configFile, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	cfg := config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
	if err := cfg.Load(); err != nil {
		return err
	}
	app.ctx.Config = cfg
	app.cli.ApplyConfig(cfg)

	if app.ctx.DB == nil {
		if err := app.openDB(); err != nil {
			return err
		}
	}

	return app.cli.Execute(app.ctx)
}

func (app *App) openDB() error {
	uri := app.cli.DatabaseURL
	if uri == "" {
		if err := app.ctx.FS.MkdirAll(app.dataDir, 0o700); err != nil {
			return fmt.Errorf("failed creating data directory: %w", err)
		}
		uri = filepath.Join(app.dataDir, fmt.Sprintf("%s.db", app.name))
	}

	d, err := db.Open(app.ctx.Ctx, uri, app.ctx.TimeNow, migrations.All())
	if err != nil {
		return err
	}
	app.ctx.DB = d

	return nil
}
