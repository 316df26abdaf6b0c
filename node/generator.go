package node

import (
	"github.com/andydunstall/primegossip/pkg/mersenne"
)

// Generator produces the next candidate best value from the current best
// value.
type Generator interface {
	Next(current Value) Value
}

type GeneratorFunc func(current Value) Value

func (f GeneratorFunc) Next(current Value) Value {
	return f(current)
}

// MersenneGenerator generates the smallest Mersenne prime greater than the
// current value.
var MersenneGenerator = GeneratorFunc(func(current Value) Value {
	return ValueFromBig(mersenne.Next(current.Big()))
})
