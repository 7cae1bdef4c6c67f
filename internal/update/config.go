package update

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type RuntimeConfig struct {
	CueBuffer   int
	CueLogSize  int
	TableHeight int
	NowTick     time.Duration
	ShowHelp    bool
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		CueBuffer:   64,
		CueLogSize:  20,
		TableHeight: 12,
		NowTick:     30 * time.Second,
		ShowHelp:    false,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvInt("DAYPLAN_CUE_BUFFER"); ok && v > 0 {
		cfg.CueBuffer = v
	}
	if v, ok := getEnvInt("DAYPLAN_CUE_LOG_SIZE"); ok && v > 0 {
		cfg.CueLogSize = v
	}
	if v, ok := getEnvInt("DAYPLAN_TABLE_HEIGHT"); ok && v > 0 {
		cfg.TableHeight = v
	}
	if v, ok := getEnvInt("DAYPLAN_NOW_TICK_SECONDS"); ok && v > 0 {
		cfg.NowTick = time.Duration(v) * time.Second
	}
	if v, ok := getEnvBool("DAYPLAN_SHOW_HELP"); ok {
		cfg.ShowHelp = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
