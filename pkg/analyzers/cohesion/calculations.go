package cohesion

import (
	"math"
	"slices"
)

// calculateLCOM calculates the Lack of Cohesion of Methods using the Henderson-Sellers
// formula (LCOM-HS).
//
// Formula: LCOM = 1 - sum(mA) / (m * a)
//   - m = number of functions
//   - a = number of fields declared by the type
//   - mA = for each field, count of functions that use it
//
// Range: [0, 1] where 0 = perfect cohesion (all functions use all fields),
// 1 = no cohesion.
func calculateLCOM(functions []Function, fields []string) float64 {
	if len(functions) <= 1 || len(fields) == 0 {
		return 0.0
	}

	m := float64(len(functions))
	a := float64(len(fields))

	sumMA := countVariableAccesses(fields, functions)

	return clamp01(1.0 - (sumMA / (m * a)))
}

// countVariableAccesses counts the total number of function-field access pairs.
func countVariableAccesses(fields []string, functions []Function) float64 {
	sum := 0.0

	for _, fieldName := range fields {
		for i := range functions {
			if slices.Contains(functions[i].Variables, fieldName) {
				sum++
			}
		}
	}

	return sum
}

// calculateTCC returns the share of function pairs that use at least one
// common field. Fewer than two functions yield NaN.
func calculateTCC(functions []Function) float64 {
	if len(functions) < 2 {
		return math.NaN()
	}

	connected := 0
	pairs := 0

	for i := range functions {
		for j := i + 1; j < len(functions); j++ {
			pairs++

			if shareVariable(functions[i], functions[j]) {
				connected++
			}
		}
	}

	return float64(connected) / float64(pairs)
}

func shareVariable(left, right Function) bool {
	return slices.ContainsFunc(left.Variables, func(v string) bool {
		return slices.Contains(right.Variables, v)
	})
}

// clamp01 clamps a value to [0, 1].
func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
