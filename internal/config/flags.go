package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagListen    = flag.String("listen", "", "Observer listen address")
	flagTickRate  = flag.Int("tick-rate", 0, "Simulation ticks per second")
	flagRecordDir = flag.String("record-dir", "", "Enable session recording into this directory")
	flagAnimSet   = flag.String("animset", "", "Path to anim set document")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagListen != "" {
		cfg.Server.Listen = *flagListen
	}
	if *flagTickRate > 0 {
		cfg.Simulation.TickRate = *flagTickRate
	}
	if *flagRecordDir != "" {
		cfg.Record.Enabled = true
		cfg.Record.Dir = *flagRecordDir
	}
	if *flagAnimSet != "" {
		cfg.Simulation.AnimSet = *flagAnimSet
	}
}
