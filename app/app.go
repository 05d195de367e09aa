package app

import (
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"courseboard/content"
)

var (
	db           *sql.DB
	log          = logrus.New()
	auth         AuthConfig
	store        *SQLStore
	cache        *content.Cache
	previews     *previewRegistry
	highlightCSS string
)

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

func Run(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	dbDriver = cfg.Database.Driver
	db, err = openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		return err
	}

	auth = loadAuthConfig(cfg.Auth)

	if err := seedData(db, auth); err != nil {
		log.Printf("Failed to seed data: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := setupContent(cfg, reg); err != nil {
		return err
	}

	r := buildRouter(reg)
	addr, logURL := normalizeAddr(cfg.Addr)
	log.WithField("origin", cfg.Origin).Infof("Server listening on %s", logURL)
	return http.ListenAndServe(addr, r)
}

// setupContent builds the rendering pipeline over the open database.
func setupContent(cfg Config, reg prometheus.Registerer) error {
	store = NewSQLStore(db)

	highlighter, err := content.NewChromaHighlighter(cfg.Highlight.LightTheme, cfg.Highlight.DarkTheme)
	if err != nil {
		return fmt.Errorf("highlighter: %w", err)
	}
	highlightCSS = highlighter.CSS()

	math := content.NewKaTeXRenderer()
	math.MaxSize = cfg.Math.MaxSize

	renderer, err := content.NewRenderer(store,
		content.WithOrigin(cfg.Origin),
		content.WithLogger(log),
		content.WithMetrics(content.NewMetrics(reg)),
		content.WithHighlighter(highlighter),
		content.WithMathRenderer(math),
		content.WithMediaProxyPath(cfg.Media.ProxyPath),
		content.WithFilesPath(cfg.Media.FilesPath),
	)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	cache = content.NewCache(renderer, cfg.Cache.Size)
	cache.TTL = cfg.Cache.TTL
	previews = newPreviewRegistry(renderer, cfg.Cache.Previews)
	return nil
}
