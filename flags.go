// Package phenix holds the helpers shared by the pair efficiency commands:
// repeatable command line flags and axis tick markers.
package phenix

import (
	"fmt"
	"strconv"
	"strings"
)

// ArrayFlags is a repeatable flag. A value may hold a comma separated list,
// and the first Set replaces the default values.
type ArrayFlags[T float64 | string] struct {
	Array   []T
	beenSet bool
}

type (
	FloatArrayFlags  = ArrayFlags[float64]
	StringArrayFlags = ArrayFlags[string]
)

func (f *ArrayFlags[T]) Set(valueStr string) error {
	var values []T
	for _, s := range strings.Split(valueStr, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		var value T
		switch p := any(&value).(type) {
		case *float64:
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*p = x
		case *string:
			*p = s
		}
		values = append(values, value)
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}
	f.Array = append(f.Array, values...)
	return nil
}

func (f *ArrayFlags[T]) String() string {
	s := make([]string, len(f.Array))
	for i, v := range f.Array {
		s[i] = fmt.Sprint(v)
	}
	return strings.Join(s, ",")
}

// IsSet reports whether the flag was given on the command line.
func (f *ArrayFlags[T]) IsSet() bool { return f.beenSet }
