package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Oracle.Kind == "" {
		cfg.Oracle.Kind = OracleKMeans
	}
	if cfg.Oracle.Clusters == 0 {
		cfg.Oracle.Clusters = 3
	}
	if cfg.Oracle.MaxIterations == 0 {
		cfg.Oracle.MaxIterations = 100
	}
	if cfg.Oracle.Tolerance == 0 {
		cfg.Oracle.Tolerance = 1e-6
	}
	if cfg.Oracle.Timeout == "" {
		cfg.Oracle.Timeout = "10s"
	}
	// An unset viewport is the unit square.
	if cfg.Scene.ViewportMin == 0 && cfg.Scene.ViewportMax == 0 {
		cfg.Scene.ViewportMax = 1
	}
	if cfg.Session.IdleTimeout == "" {
		cfg.Session.IdleTimeout = "30m"
	}
	if cfg.Session.SweepInterval == "" {
		cfg.Session.SweepInterval = "1m"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/mixpad/data/fits.db"
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
