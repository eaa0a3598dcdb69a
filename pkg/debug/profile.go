package debug

import (
	"maps"
	"slices"

	"github.com/pkg/profile"
	"gitlab.com/tozd/go/errors"
)

var profileModes = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"trace":     profile.TraceProfile,
}

// ProfileModes lists the modes accepted by StartProfile
func ProfileModes() []string {
	return slices.Sorted(maps.Keys(profileModes))
}

// StartProfile starts a profile of the given mode, written below dir
// (a temporary directory when empty). An empty mode profiles nothing.
func StartProfile(mode, dir string) (interface{ Stop() }, error) {
	if mode == "" {
		return noProfile{}, nil
	}

	fn, ok := profileModes[mode]
	if !ok {
		return nil, errors.Errorf("unknown profile mode %q, expected one of %s", mode, ProfileModes())
	}

	opts := []func(*profile.Profile){fn, profile.Quiet, profile.NoShutdownHook}
	if dir != "" {
		opts = append(opts, profile.ProfilePath(dir))
	}
	return profile.Start(opts...), nil
}

type noProfile struct{}

func (noProfile) Stop() {}
