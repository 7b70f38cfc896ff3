package di

import (
	"context"
	"fmt"

	"aura-runtime/internal/adapter/command"
	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/application/service"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/infrastructure/backend"
	"aura-runtime/internal/infrastructure/browser/rod"
	"aura-runtime/internal/infrastructure/env"
	"aura-runtime/internal/infrastructure/httpapi"
	"aura-runtime/internal/infrastructure/logger"
	"aura-runtime/internal/infrastructure/storage"
	"aura-runtime/internal/infrastructure/userinteraction"
	"aura-runtime/internal/usecase/adaptation"
	"aura-runtime/internal/usecase/bionic"
	"aura-runtime/internal/usecase/scraper"
	"aura-runtime/internal/usecase/session"
	"aura-runtime/internal/usecase/struggle"
	"aura-runtime/internal/usecase/theme"
	"aura-runtime/internal/usecase/window"
)

// Core holds everything that works without a browser.
type Core struct {
	Logger  output.LoggerPort
	Store   output.StoragePort
	Themes  *theme.Engine
	Engine  *adaptation.Engine
	Scraper *scraper.Scraper
	Window  *window.Controller
}

func NewCore(s env.Settings) (*Core, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = s.LogLevel
	logCfg.File = s.LogFile
	log := logger.NewLoggerAdapter(logCfg)

	var store output.StoragePort
	if s.StorePath == "" || s.StorePath == ":memory:" {
		store = storage.NewMemoryStore()
	} else {
		db, err := storage.OpenSQLite(s.StorePath)
		if err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		store = db
	}

	themes := theme.NewEngine(store, log)
	return &Core{
		Logger:  log,
		Store:   store,
		Themes:  themes,
		Engine:  adaptation.NewEngine(themes, bionic.NewTransformer(log), log),
		Scraper: scraper.New(scraper.DefaultConfig(), log),
		Window:  window.NewController(store, log),
	}, nil
}

func (c *Core) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

type Container struct {
	*Core
	Page     output.PagePort
	Backend  output.BackendPort
	Notifier output.NotifierPort
	Commands output.CommandRegistry
	Session  *session.Session
	API      *httpapi.Server
}

func NewContainer(ctx context.Context, s env.Settings) (*Container, error) {
	core, err := NewCore(s)
	if err != nil {
		return nil, err
	}
	log := core.Logger

	pageCfg := rod.DefaultConfig()
	pageCfg.Headless = s.Headless
	pageCfg.Logger = log
	if s.ViewportWidth > 0 && s.ViewportHeight > 0 {
		pageCfg.Viewport = entity.Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight}
	}
	page, err := rod.NewPageAdapter(ctx, pageCfg)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	backendCfg := backend.DefaultConfig(s.APIURL)
	backendCfg.Logger = log
	if s.PrefetchRate > 0 {
		backendCfg.PrefetchRate = s.PrefetchRate
	}
	client := backend.NewClient(backendCfg)

	notifier := userinteraction.NewConsoleNotifier()

	sessCfg := session.DefaultConfig()
	sessCfg.AutoAdapt = s.AutoAdapt
	sessCfg.Struggle = struggle.DefaultConfig()
	if s.RageClickThreshold > 0 {
		sessCfg.Struggle.RageClickThreshold = s.RageClickThreshold
	}
	if s.RageClickWindow > 0 {
		sessCfg.Struggle.RageClickWindow = s.RageClickWindow
	}
	if s.PrefetchDelay > 0 {
		sessCfg.PrefetchDelay = s.PrefetchDelay
	}

	sess := session.New(sessCfg, session.Deps{
		Page:     page,
		Backend:  client,
		Store:    core.Store,
		Notifier: notifier,
		Engine:   core.Engine,
		Themes:   core.Themes,
		Scraper:  core.Scraper,
		Logger:   log,
	})

	commands := service.NewCommandRegistry()
	command.Register(commands, sess, log)

	return &Container{
		Core:     core,
		Page:     page,
		Backend:  client,
		Notifier: notifier,
		Commands: commands,
		Session:  sess,
		API:      httpapi.NewServer(commands, sess, log),
	}, nil
}

func (c *Container) Close() {
	if c.Page != nil {
		c.Page.Close()
	}
	c.Core.Close()
}
