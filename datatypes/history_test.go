package datatypes

import (
	"github.com/jmcvetta/randutil"
)

// kinds of step in a random replica history
type step int

const (
	stepMerge step = iota
	stepRemove
	stepWrite
)

// pick a step kind by weight
func nextStep(choices []randutil.Choice) step {
	result, err := randutil.WeightedChoice(choices)
	if err != nil {
		panic(err)
	}
	return result.Item.(step)
}
