// Package job describes a live run request.
package job

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"livetrade-go/internal/risk"
)

// ModeLive is the only run mode the live bring-up path accepts.
const ModeLive = "live"

var (
	ErrNotLive          = errors.New("job is not a live-mode run")
	ErrMissingBrokerage = errors.New("job does not name a brokerage")
)

// Job identifies a run, its target brokerage driver and its host tier.
type Job struct {
	ID          string            `json:"id" yaml:"id"`
	Mode        string            `json:"mode" yaml:"mode"`
	Brokerage   string            `json:"brokerage" yaml:"brokerage"`
	ServerClass risk.ServerClass  `json:"server_class" yaml:"server_class"`
	UserID      string            `json:"user_id,omitempty" yaml:"user_id"`
	Settings    map[string]string `json:"settings,omitempty" yaml:"settings"`
}

// WithDefaults fills an empty ID with a random UUID.
func (j Job) WithDefaults() Job {
	if strings.TrimSpace(j.ID) == "" {
		j.ID = uuid.NewString()
	}
	return j
}

// Validate checks the fields that must hold before any strategy or network call.
func (j Job) Validate() error {
	if !strings.EqualFold(strings.TrimSpace(j.Mode), ModeLive) {
		return fmt.Errorf("%w: mode %q", ErrNotLive, j.Mode)
	}
	if strings.TrimSpace(j.Brokerage) == "" {
		return ErrMissingBrokerage
	}
	if _, err := risk.ParseServerClass(string(j.ServerClass)); err != nil {
		return err
	}
	return nil
}

// Limits resolves the job's server class to asset limits.
func (j Job) Limits() risk.AssetLimits {
	class, err := risk.ParseServerClass(string(j.ServerClass))
	if err != nil {
		return risk.LimitsFor(risk.Server512)
	}
	return risk.LimitsFor(class)
}

// Setting returns a driver setting or fallback when unset.
func (j Job) Setting(key, fallback string) string {
	if v, ok := j.Settings[key]; ok && v != "" {
		return v
	}
	return fallback
}
