package config

import "time"

// JobxConfig configures the extraction workers.
type JobxConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	Queues            []string      `yaml:"queues"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	DequeueTimeout    time.Duration `yaml:"dequeue_timeout"`
	DefaultRetryDelay time.Duration `yaml:"default_retry_delay"`
}

func defaultJobxConfig() JobxConfig {
	return JobxConfig{
		Concurrency:       2,
		Queues:            []string{"documents"},
		PollInterval:      time.Second,
		ShutdownTimeout:   2 * time.Minute,
		DequeueTimeout:    5 * time.Second,
		DefaultRetryDelay: 30 * time.Second,
	}
}

func (c *JobxConfig) applyEnv() {
	c.Concurrency = getEnvInt("JOBX_CONCURRENCY", c.Concurrency)
	c.Queues = getEnvStringSlice("JOBX_QUEUES", c.Queues)
	c.PollInterval = getEnvDuration("JOBX_POLL_INTERVAL", c.PollInterval)
	c.ShutdownTimeout = getEnvDuration("JOBX_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.DequeueTimeout = getEnvDuration("JOBX_DEQUEUE_TIMEOUT", c.DequeueTimeout)
	c.DefaultRetryDelay = getEnvDuration("JOBX_DEFAULT_RETRY_DELAY", c.DefaultRetryDelay)
}
