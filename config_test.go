package dicom

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	for _, k := range []string{EnvWorkers, EnvLogLevel, EnvProgressStride, EnvMaxSlices} {
		t.Setenv(k, "")
	}
	c := ConfigFromEnv()
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	assert.Equal(t, DefaultProgressStride, c.ProgressStride)
	assert.Zero(t, c.MaxSlices)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvLogLevel, " DEBUG ")
	t.Setenv(EnvProgressStride, "16")
	t.Setenv(EnvMaxSlices, "2048")
	c := ConfigFromEnv()
	assert.Equal(t, Config{Workers: 3, LogLevel: "debug", ProgressStride: 16, MaxSlices: 2048}, c)

	o := LoadOptionsFromConfig(c)
	assert.Equal(t, 3, o.Workers)
	assert.Equal(t, 16, o.ProgressStride)
	assert.Equal(t, 2048, o.MaxSlices)
}

func TestConfigFromEnvInvalid(t *testing.T) {
	t.Setenv(EnvWorkers, "0")
	t.Setenv(EnvProgressStride, "many")
	t.Setenv(EnvMaxSlices, "-1")
	c := ConfigFromEnv()
	def := DefaultConfig()
	assert.Equal(t, def.Workers, c.Workers)
	assert.Equal(t, def.ProgressStride, c.ProgressStride)
	assert.Equal(t, def.MaxSlices, c.MaxSlices)
}
