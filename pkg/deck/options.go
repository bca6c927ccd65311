// Package deck parses presentation packages into an editable structured
// model and serializes the model back into valid packages.
package deck

import (
	"io"
	"log/slog"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
)

// Options configures parsing behavior.
type Options struct {
	// Palette maps alert tiers to font colors. Nil means the default
	// palette.
	Palette alerts.Palette
	// Logger receives degradation warnings (malformed slides, missing
	// media, unresolved annotations). Nil discards them.
	Logger *slog.Logger
	// SkipMedia leaves image bytes out of the Document. Image items keep
	// their source paths but cannot be re-rendered.
	SkipMedia bool
}

// DefaultOptions returns the default parse options.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) palette() alerts.Palette {
	if o.Palette != nil {
		return o.Palette
	}
	return alerts.DefaultPalette()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
