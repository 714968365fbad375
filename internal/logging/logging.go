package logging

import "go.uber.org/zap"

// New builds a production JSON logger at the given level
// (debug, info, warn, error). Debug also switches to development sampling.
func New(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		cfg.Development = true
		cfg.Sampling = nil
	}
	cfg.Level = lvl
	return cfg.Build()
}
