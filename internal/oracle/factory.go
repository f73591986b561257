package oracle

import (
	"fmt"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/config"
)

// FromConfig builds the oracle selected by cfg.Kind.
func FromConfig(cfg *config.OracleConfig) (clustering.Oracle, error) {
	switch cfg.Kind {
	case config.OracleKMeans, "":
		return NewKMeans(cfg.Clusters, cfg.MaxIterations, cfg.Tolerance), nil
	case config.OracleRemote:
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("remote oracle requires a url")
		}
		return NewRemote(cfg.RemoteURL, cfg.TimeoutDuration()), nil
	default:
		return nil, fmt.Errorf("unknown oracle kind %q", cfg.Kind)
	}
}
