package scheduler

import "time"

// Config controls how often the engine reruns and how long a run may take.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	StaleSweep  bool
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 24 * time.Hour,
		JobTimeout:  2 * time.Hour,
		StaleSweep:  true,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
