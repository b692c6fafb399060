package dicom

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Config holds process-wide defaults, read from the environment.
type Config struct {
	// Workers is the number of files decoded concurrently.
	Workers int
	// LogLevel is a logrus level name, or "none".
	LogLevel string
	// ProgressStride is how many completed files pass between progress
	// reports.
	ProgressStride int
	// MaxSlices rejects inputs with more files than this. Zero disables the
	// check.
	MaxSlices int
}

// Environment variables read by ConfigFromEnv.
const (
	EnvWorkers        = "DCMVOLUME_WORKERS"
	EnvLogLevel       = "DCMVOLUME_LOGLEVEL"
	EnvProgressStride = "DCMVOLUME_PROGRESS_STRIDE"
	EnvMaxSlices      = "DCMVOLUME_MAX_SLICES"
)

// DefaultProgressStride reports progress every 8th file.
const DefaultProgressStride = 8

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Workers:        runtime.NumCPU(),
		LogLevel:       "info",
		ProgressStride: DefaultProgressStride,
	}
}

// ConfigFromEnv overlays the DCMVOLUME_* variables on DefaultConfig.
// Unparsable or out-of-range values keep the default.
func ConfigFromEnv() Config {
	c := DefaultConfig()
	if v, found := intFromEnv(EnvWorkers); found && v > 0 {
		c.Workers = v
	}
	if v, found := os.LookupEnv(EnvLogLevel); found {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, found := intFromEnv(EnvProgressStride); found && v > 0 {
		c.ProgressStride = v
	}
	if v, found := intFromEnv(EnvMaxSlices); found && v >= 0 {
		c.MaxSlices = v
	}
	return c
}

// intFromEnv retrieves `key` from the OS environment.
// if the key is not found, or cannot be expressed as an integer,
// `found` will be false.
func intFromEnv(key string) (val int, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		found = false
	}
	return
}
