package cfgloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfigMasksSecrets(t *testing.T) {
	cfg := struct {
		User     string `yaml:"user"`
		Password string `yaml:"password" mask:"true"`
	}{User: "app", Password: "hunter2"}

	out, err := renderConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "app")
	assert.NotContains(t, out, "hunter2")
}
