// Configuration: the top-level YAML document has an "event_sched_config"
// section mapping to EventSchedConfig, a single-section-per-component
// layout with every component's config nested under one named root key.

package eventsched_internal

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EVENT_SCHED_CONFIG_SECTION_NAME = "event_sched_config"

	EVENT_SCHED_CONFIG_INSTANCE_DEFAULT         = "eventsched"
	EVENT_SCHED_CONFIG_SHUTDOWN_MAX_WAIT_DEFAULT = 5 * time.Second
)

// Instance is the process-wide instance name, used as a log field by
// NewCompLogger's callers; overridden by LoadConfig (or by callers directly).
var Instance string = EVENT_SCHED_CONFIG_INSTANCE_DEFAULT

// EventSchedConfig is the root configuration for a complete event scheduling
// deployment: one discrete scheduler, one realtime executor, one busy-loop
// scheduler, and the ambient logger, any of which may be omitted (nil) if
// the caller only needs a subset.
type EventSchedConfig struct {
	Instance string `yaml:"instance"`

	// ShutdownMaxWait is loaded from the document but is not read by any
	// component in this package: every Stop() blocks until its own worker
	// has exited, with no time limit.
	ShutdownMaxWait time.Duration `yaml:"shutdown_max_wait"`

	LoggerConfig            *LoggerConfig              `yaml:"log_config"`
	DiscreteSchedulerConfig *DiscreteSchedulerConfig   `yaml:"discrete_scheduler_config"`
	RealtimeExecutorConfig  *RealtimeExecutorConfig    `yaml:"realtime_executor_config"`
	BusyLoopConfig          *BusyLoopConfig            `yaml:"busy_loop_config"`
}

func DefaultEventSchedConfig() *EventSchedConfig {
	return &EventSchedConfig{
		Instance:                EVENT_SCHED_CONFIG_INSTANCE_DEFAULT,
		ShutdownMaxWait:         EVENT_SCHED_CONFIG_SHUTDOWN_MAX_WAIT_DEFAULT,
		LoggerConfig:            DefaultLoggerConfig(),
		DiscreteSchedulerConfig: DefaultDiscreteSchedulerConfig(),
		RealtimeExecutorConfig:  DefaultRealtimeExecutorConfig(),
		BusyLoopConfig:          DefaultBusyLoopConfig(),
	}
}

// LoadConfig loads the "event_sched_config" section of cfgFile (or buf, for
// testing) into an EventSchedConfig primed with defaults for any field the
// document doesn't mention.
func LoadConfig(cfgFile string, buf []byte) (*EventSchedConfig, error) {
	if buf == nil {
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	if err := yaml.Unmarshal(buf, &docNode); err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	cfg := DefaultEventSchedConfig()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		for i := 0; i+1 < len(rootNode.Content); i += 2 {
			keyNode, valNode := rootNode.Content[i], rootNode.Content[i+1]
			if keyNode.Value != EVENT_SCHED_CONFIG_SECTION_NAME {
				continue
			}
			if err := valNode.Decode(cfg); err != nil {
				return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
			}
		}
	}

	Instance = cfg.Instance
	return cfg, nil
}
