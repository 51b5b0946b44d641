package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RuleSource reads the rules section from a live Viper instance on every call.
// Setting rules are never cached: a rule toggled in the config file between two
// damage resolutions takes effect on the second one.
//
// RuleSource is safe for concurrent use.
type RuleSource struct {
	mu sync.Mutex
	v  *viper.Viper
}

// NewRuleSource wraps v.
//
// Precondition: v must be non-nil.
func NewRuleSource(v *viper.Viper) *RuleSource {
	return &RuleSource{v: v}
}

// Watch reloads the config file whenever it changes on disk.
//
// Precondition: v must have been loaded from a file.
func (r *RuleSource) Watch(onChange func(RulesConfig)) {
	r.v.OnConfigChange(func(fsnotify.Event) {
		if onChange != nil {
			onChange(r.Rules())
		}
	})
	r.v.WatchConfig()
}

// Set overrides a single rule key, e.g. Set("wound_cap", true).
func (r *RuleSource) Set(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.v.Set("rules."+key, value)
}

// Rules returns the current rule flags.
//
// Postcondition: Reflects the Viper state at the time of the call.
func (r *RuleSource) Rules() RulesConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RulesConfig{
		WoundCap:          r.v.GetBool("rules.wound_cap"),
		GrittyDamage:      r.v.GetBool("rules.gritty_damage"),
		UnarmoredHero:     r.v.GetBool("rules.unarmored_hero"),
		InjuryTable:       r.v.GetString("rules.injury_table"),
		HideDefenseValues: r.v.GetBool("rules.hide_defense_values"),
	}
}
