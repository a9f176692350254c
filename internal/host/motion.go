package host

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvReducedMotion is consulted when the reduced-motion mode is "auto".
const EnvReducedMotion = "BACKDROP_REDUCED_MOTION"

const (
	MotionAuto = "auto"
	MotionOn   = "on"
	MotionOff  = "off"
)

// PrefersReducedMotion resolves a reduced-motion mode. "auto" reads
// EnvReducedMotion and treats anything unparsable as no preference.
func PrefersReducedMotion(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case MotionOn:
		return true, nil
	case MotionOff:
		return false, nil
	case MotionAuto, "":
		v, ok := os.LookupEnv(EnvReducedMotion)
		if !ok {
			return false, nil
		}
		on, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, nil
		}
		return on, nil
	default:
		return false, fmt.Errorf("reduced motion mode %q: want auto, on or off", mode)
	}
}
