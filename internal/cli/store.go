package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/firedoc/internal/config"
	"github.com/roach88/firedoc/internal/docstore"
	"github.com/roach88/firedoc/internal/store"
)

// openStore opens the configured substrate. The caller must Close the
// returned closer.
func openStore(opts *RootOptions) (*docstore.Store, io.Closer, error) {
	cfg := opts.config()

	slog.Debug("opening store", "backend", cfg.Store.Backend, "path", cfg.Store.Path)
	sub, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	if cfg.Store.Backend == store.BackendMemory {
		slog.Warn("memory backend: documents are discarded when the command exits")
	}
	return docstore.New(sub), sub, nil
}

// setupLogging installs a text handler on w. Verbose forces debug level.
func setupLogging(w io.Writer, level string, verbose bool) error {
	logLevel, err := config.ParseLevel(level)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
	return nil
}
