package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EngineTuning holds the business-rule knobs of the association engine.
// Values can be overridden from an optional engine.yml and are hot-reloaded
// so long-running scheduler deployments can be retuned without a restart.
type EngineTuning struct {
	MinSupport         int     `mapstructure:"minSupport"`
	PerProductCap      int     `mapstructure:"perProductCap"`
	WindowDays         int     `mapstructure:"windowDays"`
	CrossCategoryBoost float64 `mapstructure:"crossCategoryBoost"`
	SameBrandPenalty   float64 `mapstructure:"sameBrandPenalty"`
	RecencyWeight      bool    `mapstructure:"recencyWeight"`
}

func DefaultEngineTuning() EngineTuning {
	return EngineTuning{
		MinSupport:         2,
		PerProductCap:      50,
		WindowDays:         365,
		CrossCategoryBoost: 1.5,
		SameBrandPenalty:   0.8,
		RecencyWeight:      true,
	}
}

type EngineTuningHolder struct {
	current atomic.Value // holds EngineTuning
}

func NewEngineTuningHolder() (*EngineTuningHolder, error) {
	v := viper.New()

	v.SetConfigName("engine")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/affinity/config") // Volume-mounted config
	v.AddConfigPath("/etc/affinity")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("AFFINITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEngineTuning()
	v.SetDefault("engine.minSupport", defaults.MinSupport)
	v.SetDefault("engine.perProductCap", defaults.PerProductCap)
	v.SetDefault("engine.windowDays", defaults.WindowDays)
	v.SetDefault("engine.crossCategoryBoost", defaults.CrossCategoryBoost)
	v.SetDefault("engine.sameBrandPenalty", defaults.SameBrandPenalty)
	v.SetDefault("engine.recencyWeight", defaults.RecencyWeight)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var tuning EngineTuning
	if err := v.UnmarshalKey("engine", &tuning); err != nil {
		return nil, err
	}
	if err := validateEngineTuning(tuning); err != nil {
		return nil, err
	}

	holder := &EngineTuningHolder{}
	holder.current.Store(tuning)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated EngineTuning
		if err := v.UnmarshalKey("engine", &updated); err != nil {
			log.Printf("[engine-config] reload failed: %v", err)
			return
		}
		if err := validateEngineTuning(updated); err != nil {
			log.Printf("[engine-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[engine-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *EngineTuningHolder) Get() EngineTuning {
	return h.current.Load().(EngineTuning)
}

func validateEngineTuning(tuning EngineTuning) error {
	if tuning.MinSupport < 1 {
		return errors.New("engine.minSupport must be at least 1")
	}
	if tuning.PerProductCap < 1 {
		return errors.New("engine.perProductCap must be at least 1")
	}
	if tuning.WindowDays < 1 {
		return errors.New("engine.windowDays must be at least 1")
	}
	if tuning.CrossCategoryBoost <= 0 || tuning.SameBrandPenalty <= 0 {
		return errors.New("engine rule multipliers must be positive")
	}
	return nil
}
