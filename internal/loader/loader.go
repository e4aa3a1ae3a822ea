// Package loader picks exactly one strategy type out of an artifact and instantiates it
// under a time bound.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"livetrade-go/internal/isolate"
	"livetrade-go/internal/strategy"
	"livetrade-go/internal/util"
)

var (
	ErrNoCandidates = errors.New("no eligible strategy types")
	ErrAmbiguous    = errors.New("strategy selection is ambiguous")
	ErrTimeout      = errors.New("strategy load timed out")
)

// DefaultTimeout bounds scan plus construction when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Artifact is a compiled location holding strategy types.
type Artifact interface {
	Location() string
	Types() []strategy.Descriptor
}

// Options tune candidate selection.
type Options struct {
	// Hint disambiguates between several candidates by case-insensitive substring match.
	Hint    string
	Timeout time.Duration
}

// Loader instantiates strategies from artifacts.
type Loader struct {
	log  zerolog.Logger
	opts Options
}

// New returns a Loader.
func New(log zerolog.Logger, opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Loader{log: util.Component(log, "loader"), opts: opts}
}

// Instantiate scans artifact and builds the single selected strategy.
func (l *Loader) Instantiate(ctx context.Context, artifact Artifact) (strategy.Algorithm, error) {
	if artifact == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrNoCandidates)
	}
	alg, out := isolate.Call(ctx, l.opts.Timeout, func(context.Context) (strategy.Algorithm, error) {
		desc, err := l.Select(artifact.Types())
		if err != nil {
			return nil, err
		}
		alg := desc.New()
		if alg == nil {
			return nil, fmt.Errorf("strategy type %s constructed nil", desc.Name)
		}
		return alg, nil
	})
	if !out.Completed {
		return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, l.opts.Timeout, artifact.Location())
	}
	if out.Err != nil {
		return nil, fmt.Errorf("load %s: %w", artifact.Location(), out.Err)
	}
	l.log.Info().Str("artifact", artifact.Location()).Str("strategy", alg.Name()).Msg("strategy loaded")
	return alg, nil
}

// Select applies the resolution policy: one eligible candidate is used as is,
// several are narrowed by the hint, and anything other than exactly one is an error.
func (l *Loader) Select(types []strategy.Descriptor) (strategy.Descriptor, error) {
	eligible := make([]strategy.Descriptor, 0, len(types))
	for _, d := range types {
		if d.New != nil && strings.TrimSpace(d.Name) != "" {
			eligible = append(eligible, d)
		}
	}
	switch len(eligible) {
	case 0:
		return strategy.Descriptor{}, ErrNoCandidates
	case 1:
		return eligible[0], nil
	}

	hint := strings.ToLower(strings.TrimSpace(l.opts.Hint))
	if hint == "" {
		return strategy.Descriptor{}, fmt.Errorf("%w: %d candidates and no hint configured", ErrAmbiguous, len(eligible))
	}
	desc, match := util.Single(eligible, func(d strategy.Descriptor) bool {
		return strings.Contains(strings.ToLower(d.Name), hint)
	})
	switch match {
	case util.MatchOne:
		return desc, nil
	case util.MatchNone:
		return strategy.Descriptor{}, fmt.Errorf("%w: no candidate matches hint %q", ErrNoCandidates, l.opts.Hint)
	default:
		return strategy.Descriptor{}, fmt.Errorf("%w: several candidates match hint %q", ErrAmbiguous, l.opts.Hint)
	}
}
