package config

// Operation names used for logging, metrics and circuit breakers
const (
	OperationBenchmark = "benchmark"
	OperationScore     = "score"
	OperationGaps      = "gaps"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(name string, opCfg *OperationConfig) {
	opCfg.Name = name
	if opCfg.Timeout == nil {
		timeout := c.Remote.Timeout
		opCfg.Timeout = &timeout
	}
}

// GetBenchmarkConfig returns the benchmark endpoint configuration with fallback to global config
func (c *Config) GetBenchmarkConfig() OperationConfig {
	config := c.Remote.Benchmark
	c.applyOperationDefaults(OperationBenchmark, &config)
	return config
}

// GetScoreConfig returns the scoring endpoint configuration with fallback to global config
func (c *Config) GetScoreConfig() OperationConfig {
	config := c.Remote.Score
	c.applyOperationDefaults(OperationScore, &config)
	return config
}

// GetGapsConfig returns the gap-checklist endpoint configuration with fallback to global config
func (c *Config) GetGapsConfig() OperationConfig {
	config := c.Remote.Gaps
	c.applyOperationDefaults(OperationGaps, &config)
	return config
}
