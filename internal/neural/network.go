// Package neural provides an evolvable feedforward network used as a flappy
// decision function. The network is fully described by a flat gene vector
// so optimizers can mutate and recombine it without knowing its shape.
package neural

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/vovakirdan/flappy-neat/internal/flappy"
)

// Inputs is the size of the observation vector.
const Inputs = 3

// InputScale maps pixel observations into the useful range of tanh.
const InputScale = 1.0 / 100

// GeneCount returns the number of genes a network with the given hidden
// layer size needs. Zero hidden neurons connects inputs straight to the
// output.
func GeneCount(hidden int) int {
	if hidden <= 0 {
		return Inputs + 1
	}
	return hidden*Inputs + hidden + hidden + 1
}

// Network is a 3-input, single-output network with an optional tanh hidden
// layer and a tanh output. Decide reuses internal buffers so a Network must
// not be shared between goroutines.
type Network struct {
	hidden int
	genes  []float64

	w1  *mat.Dense    // hidden x Inputs
	b1  *mat.VecDense // hidden
	w2  *mat.VecDense // hidden, or Inputs when hidden is 0
	b2  float64
	in  *mat.VecDense
	act *mat.VecDense
}

// New builds a network from genes laid out as input weights row by row,
// hidden biases, output weights, output bias.
func New(genes []float64, hidden int) (*Network, error) {
	if hidden < 0 {
		return nil, fmt.Errorf("neural: negative hidden size %d", hidden)
	}
	if want := GeneCount(hidden); len(genes) != want {
		return nil, fmt.Errorf("neural: %d genes for hidden=%d, want %d", len(genes), hidden, want)
	}
	g := append([]float64(nil), genes...)
	n := &Network{
		hidden: hidden,
		genes:  g,
		in:     mat.NewVecDense(Inputs, nil),
	}

	if hidden == 0 {
		n.w2 = mat.NewVecDense(Inputs, g[:Inputs])
		n.b2 = g[Inputs]
		return n, nil
	}

	off := 0
	n.w1 = mat.NewDense(hidden, Inputs, g[off:off+hidden*Inputs])
	off += hidden * Inputs
	n.b1 = mat.NewVecDense(hidden, g[off:off+hidden])
	off += hidden
	n.w2 = mat.NewVecDense(hidden, g[off:off+hidden])
	off += hidden
	n.b2 = g[off]
	n.act = mat.NewVecDense(hidden, nil)
	return n, nil
}

// Hidden returns the hidden layer size.
func (n *Network) Hidden() int { return n.hidden }

// Genes returns a copy of the gene vector.
func (n *Network) Genes() []float64 {
	return append([]float64(nil), n.genes...)
}

// Activate runs a forward pass over raw observation values.
func (n *Network) Activate(x []float64) float64 {
	for i := 0; i < Inputs; i++ {
		n.in.SetVec(i, x[i]*InputScale)
	}
	if n.hidden == 0 {
		return math.Tanh(mat.Dot(n.w2, n.in) + n.b2)
	}

	n.act.MulVec(n.w1, n.in)
	n.act.AddVec(n.act, n.b1)
	for i := 0; i < n.hidden; i++ {
		n.act.SetVec(i, math.Tanh(n.act.AtVec(i)))
	}
	return math.Tanh(mat.Dot(n.w2, n.act) + n.b2)
}

// Decide implements flappy.Decider.
func (n *Network) Decide(obs flappy.Observation) (float64, error) {
	return n.Activate(obs.Vector()), nil
}

var _ flappy.Decider = (*Network)(nil)
