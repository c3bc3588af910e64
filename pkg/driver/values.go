package driver

import (
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// Int64 converts a scanned catalog value to an integer; unparsable values become -1.
func Int64(v any) int64 {
	switch val := v.(type) {
	case nil:
		return -1
	case int64:
		return val
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case uint64:
		return int64(val) //nolint:gosec // catalog sizes fit in int64
	case float64:
		return int64(val)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(core.FormatValue(v)), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// ParseProcessID validates a session id submitted for killing.
func ParseProcessID(id string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, core.Invalid("kill", "process id must be numeric, got "+strconv.Quote(id))
	}
	return n, nil
}

// DecodeParams decodes driver-specific connection params into out.
// Durations may be given as strings ("5s"); unknown keys are rejected.
func DecodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(params); err != nil {
		return core.Invalid("params", err.Error())
	}
	return nil
}
