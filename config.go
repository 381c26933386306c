package spindle

import (
	"os"

	"github.com/danpasecinic/spindle/config"
	"github.com/danpasecinic/spindle/internal/errs"
)

// NewFromConfig builds an injector that logs as cfg says, discovers the
// configured roots and freezes when cfg asks for it. Options are applied
// after the configured logger, so WithLogger still wins.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Injector, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errs.New(ErrCodeConfiguration, "invalid configuration", err)
	}

	opts = append([]Option{WithLogger(cfg.Logger(os.Stderr))}, opts...)
	i := New(opts...)

	if err := i.DiscoverResource(cfg.Discovery.Resource, cfg.Sources()...); err != nil {
		return nil, err
	}
	if cfg.Freeze {
		i.Freeze()
	}
	return i, nil
}
