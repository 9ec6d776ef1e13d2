package cfgloader

import (
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/rise-and-shine/blocks/mask"
)

func printConfig(config any) {
	out, err := renderConfig(config)
	if err != nil {
		slog.Error("[cfgloader]: failed to marshal config", "error", err.Error())
		return
	}
	slog.Info("[cfgloader]: loaded config:\n" + out)
}

// renderConfig marshals config to YAML with `mask:"true"` fields masked.
func renderConfig(config any) (string, error) {
	out, err := yaml.Marshal(mask.StructToOrdMap(config))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
