package metrics

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownOption is returned when a result option name cannot be parsed.
var ErrUnknownOption = errors.New("unknown result option")

// ResultOption combines the values of one operation metric over all the
// operations a type owns.
type ResultOption uint8

// Result options. OptionNone requests no aggregation.
const (
	OptionNone ResultOption = iota
	Sum
	Average
	Highest
)

var optionNames = map[ResultOption]string{
	OptionNone: "none",
	Sum:        "sum",
	Average:    "average",
	Highest:    "highest",
}

// String returns the lower-case option name.
func (o ResultOption) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}

	return fmt.Sprintf("option(%d)", uint8(o))
}

// Valid reports whether o is an aggregation mode.
func (o ResultOption) Valid() bool {
	return o == Sum || o == Average || o == Highest
}

// ParseResultOption parses "sum", "average" (or "avg"), "highest" (or "max").
func ParseResultOption(name string) (ResultOption, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sum":
		return Sum, nil
	case "average", "avg", "mean":
		return Average, nil
	case "highest", "max":
		return Highest, nil
	case "", "none":
		return OptionNone, nil
	default:
		return OptionNone, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
}

// Aggregate combines values in order, discarding NaN. SUM of nothing is 0;
// AVERAGE and HIGHEST of nothing are NaN. An invalid option yields NaN.
func Aggregate(option ResultOption, values []float64) float64 {
	if !option.Valid() {
		return math.NaN()
	}

	sum := 0.0
	highest := math.Inf(-1)
	count := 0

	for _, value := range values {
		if math.IsNaN(value) {
			continue
		}

		sum += value
		highest = max(highest, value)
		count++
	}

	switch option {
	case Sum:
		return sum
	case Average:
		if count == 0 {
			return math.NaN()
		}

		return sum / float64(count)
	default:
		if count == 0 {
			return math.NaN()
		}

		return highest
	}
}
