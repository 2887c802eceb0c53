package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vanderheijden86/treepick/pkg/arvados"
	"github.com/vanderheijden86/treepick/pkg/catalog"
	"github.com/vanderheijden86/treepick/pkg/config"
	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/picker"
)

// relay forwards loader notifications to whoever listens at the moment.
type relay struct {
	mu sync.RWMutex
	to loader.Notifier
}

func (r *relay) set(n loader.Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = n
}

func (r *relay) Notify(message string, severity loader.Severity) {
	r.mu.RLock()
	to := r.to
	r.mu.RUnlock()
	if to != nil {
		to.Notify(message, severity)
	}
}

// session is one opened data source with its picker store and loader.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	notify  *relay
	loader  *loader.Loader
	catalog *catalog.Store

	closers []func() error
}

// openSession connects to the configured source and initializes the
// sections of base.
func openSession(ctx context.Context, app *App, interactive bool) (*session, error) {
	s := &session{cfg: app.cfg, notify: &relay{}}
	logger, closeLog, err := newLogger(app.cfg.Log, app.err, interactive)
	if err != nil {
		return nil, err
	}
	s.logger = logger
	s.closers = append(s.closers, closeLog)

	var (
		src  loader.DataSource
		user string
	)
	if app.cfg.UsesCatalog() {
		src, user, err = s.openCatalog(ctx)
	} else {
		src, user, err = s.openCluster(ctx)
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.loader = loader.New(picker.NewContainer(logger), loader.Config{
		Source:             src,
		Notifier:           s.notify,
		Logger:             logger,
		UserUUID:           user,
		PageLimit:          app.cfg.Picker.PageLimit,
		RefreshConcurrency: app.cfg.Picker.RefreshConcurrency,
	})
	logger.Info("session opened", "source", s.sourceName(), "user", user)
	return s, nil
}

func (s *session) sourceName() string {
	if s.catalog != nil {
		return "catalog:" + s.cfg.Catalog.Path
	}
	return "api:" + s.cfg.API.Host
}

func (s *session) openCatalog(ctx context.Context) (loader.DataSource, string, error) {
	dbPath := s.cfg.Catalog.DB
	if s.cfg.Catalog.ProjectCache {
		projectDir := filepath.Dir(s.cfg.File)
		if err := catalog.EnsureIgnored(projectDir, config.CacheDirName); err != nil {
			s.logger.Warn("could not update .gitignore", "dir", projectDir, "error", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("create catalog dir: %w", err)
	}
	store, err := catalog.OpenFixture(ctx, dbPath, s.cfg.Catalog.Path, s.logger)
	if err != nil {
		return nil, "", err
	}
	s.catalog = store
	s.closers = append(s.closers, store.Close)

	user := s.cfg.Session.UserUUID
	if user == "" {
		user = store.UserUUID()
	}
	return store, user, nil
}

func (s *session) openCluster(ctx context.Context) (loader.DataSource, string, error) {
	user, prefix := s.cfg.Session.UserUUID, s.cfg.Session.UUIDPrefix
	newClient := func(prefix string) (*arvados.Client, error) {
		return arvados.New(arvados.Config{
			Host:       s.cfg.API.Host,
			Token:      s.cfg.API.Token,
			Insecure:   s.cfg.API.Insecure,
			Timeout:    s.cfg.API.Timeout,
			KeepWebURL: s.cfg.API.KeepWebURL,
			UUIDPrefix: prefix,
			Logger:     s.logger,
		})
	}
	if prefix == "" && user != "" {
		prefix = clusterPrefix(user)
	}
	client, err := newClient(prefix)
	if err != nil {
		return nil, "", err
	}
	if user != "" {
		return client, user, nil
	}

	current, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("look up current user: %w", err)
	}
	if prefix == "" {
		if client, err = newClient(clusterPrefix(current.UUID)); err != nil {
			return nil, "", err
		}
	}
	return client, current.UUID, nil
}

// clusterPrefix is the five character cluster id leading every uuid.
func clusterPrefix(uuid string) string {
	if i := strings.IndexByte(uuid, '-'); i > 0 {
		return uuid[:i]
	}
	return ""
}

// Close releases the source and the log file.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// newLogger builds the slog logger. Without log.file an interactive run
// logs nothing so the terminal stays clean; other commands log to w.
func newLogger(cfg config.LogConfig, w io.Writer, interactive bool) (*slog.Logger, func() error, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	noop := func() error { return nil }

	switch {
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return slog.New(slog.NewTextHandler(f, opts)), f.Close, nil
	case interactive:
		return slog.New(slog.DiscardHandler), noop, nil
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, opts)), noop, nil
}
