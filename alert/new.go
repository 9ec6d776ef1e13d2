package alert

import (
	"io"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
)

const CodeUnknownSchema = "ALERT_UNKNOWN_SCHEMA"

// New builds the provider cfg selects, identified by the current service from meta.
// The returned closer releases transport resources and is never nil.
func New(cfg Config, l logger.Logger) (Provider, io.Closer, error) {
	var p Provider
	var closer io.Closer = nopCloser{}

	switch {
	case cfg.Disable, cfg.Schema == SchemaNop:
		p = Nop()
	case cfg.Schema == SchemaLog, cfg.Schema == "":
		p = NewLogProvider(l)
	case cfg.Schema == SchemaSentinel:
		sp, err := NewSentinelProvider(cfg, meta.GetServiceName(), meta.GetServiceVersion())
		if err != nil {
			return nil, nil, err
		}
		p, closer = sp, sp
	default:
		return nil, nil, errx.New("[alert]: unknown provider schema",
			errx.WithCode(CodeUnknownSchema),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"schema": cfg.Schema}),
		)
	}

	if cfg.Cooldown > 0 {
		p = WithCooldown(p, cfg.Cooldown)
	}
	return p, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
