package util

import (
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/romain325/doc-thor-confgen/pkg/config"
	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/poll"
	"github.com/romain325/doc-thor-confgen/pkg/reconcile"
	"github.com/romain325/doc-thor-confgen/pkg/render"
	"github.com/romain325/doc-thor-confgen/pkg/upstream"
)

// Components are the pieces a command needs, all built from the same
// Config.
type Components struct {
	Config     config.Config
	Client     *upstream.Client
	Renderer   *render.Renderer
	Reconciler *reconcile.Reconciler
	Driver     *poll.Driver
}

// Mocked out for unit testing.
var (
	fs          = afero.NewOsFs()
	loadConfig  = config.Load
	systemClock = clockwork.NewRealClock()
)

// Setup loads the configuration and the template. Any error is fatal: no
// project can be synced without them.
func Setup() (Components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Components{}, errors.WithContext(err, "load config")
	}

	renderer, err := render.Load(fs, cfg.TemplatePath, render.Context{
		BaseDomain:    cfg.BaseDomain,
		StorageURL:    cfg.StorageURL,
		StorageBucket: cfg.StorageBucket,
	})
	if err != nil {
		return Components{}, errors.WithContext(err, "load template")
	}

	client := upstream.New(cfg.ServerURL, cfg.Token, cfg.FetchTimeout)
	reconciler := reconcile.New(fs, cfg.OutputDir, renderer, cfg.ProtectedPrefix)
	return Components{
		Config:     cfg,
		Client:     client,
		Renderer:   renderer,
		Reconciler: reconciler,
		Driver:     poll.New(client, reconciler, systemClock, cfg.PollInterval),
	}, nil
}
