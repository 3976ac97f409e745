package calc

import (
	"math"
	"sort"
)

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

// function describes an allow-listed callable. maxArgs < 0 means variadic.
type function struct {
	minArgs int
	maxArgs int
	apply   func(args []float64) float64
}

func oneArg(f func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, apply: func(a []float64) float64 { return f(a[0]) }}
}

var functions = map[string]function{
	"sqrt":    oneArg(math.Sqrt),
	"sin":     oneArg(math.Sin),
	"cos":     oneArg(math.Cos),
	"tan":     oneArg(math.Tan),
	"asin":    oneArg(math.Asin),
	"acos":    oneArg(math.Acos),
	"atan":    oneArg(math.Atan),
	"exp":     oneArg(math.Exp),
	"log10":   oneArg(math.Log10),
	"log2":    oneArg(math.Log2),
	"abs":     oneArg(math.Abs),
	"floor":   oneArg(math.Floor),
	"ceil":    oneArg(math.Ceil),
	"degrees": oneArg(func(x float64) float64 { return x * 180 / math.Pi }),
	"radians": oneArg(func(x float64) float64 { return x * math.Pi / 180 }),
	"log": {minArgs: 1, maxArgs: 2, apply: func(a []float64) float64 {
		if len(a) == 2 {
			return math.Log(a[0]) / math.Log(a[1])
		}
		return math.Log(a[0])
	}},
	"round": {minArgs: 1, maxArgs: 2, apply: func(a []float64) float64 {
		if len(a) == 1 {
			return math.RoundToEven(a[0])
		}
		scale := math.Pow(10, math.Trunc(a[1]))
		return math.RoundToEven(a[0]*scale) / scale
	}},
	"pow":   {minArgs: 2, maxArgs: 2, apply: func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"hypot": {minArgs: 2, maxArgs: 2, apply: func(a []float64) float64 { return math.Hypot(a[0], a[1]) }},
	"min": {minArgs: 1, maxArgs: -1, apply: func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {minArgs: 1, maxArgs: -1, apply: func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
}

// Functions returns the allow-listed function names, sorted.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Constants returns the allow-listed constant names, sorted.
func Constants() []string {
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
