// Package evolve is a small neuroevolution loop that drives the flappy
// scheduler one generation at a time: it turns genomes into neural decision
// functions, reads back the per-agent fitness and breeds the next
// generation with elitism, tournament selection, uniform crossover and
// gaussian mutation.
package evolve

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/flappy"
	"github.com/vovakirdan/flappy-neat/internal/neural"
)

// Genome is a gene vector with the fitness of its last evaluation.
type Genome struct {
	ID      int
	Genes   []float64
	Fitness float64
}

func (g Genome) clone() Genome {
	g.Genes = append([]float64(nil), g.Genes...)
	return g
}

// Population is a fixed-size set of genomes.
type Population struct {
	cfg        config.EvolutionConfig
	rng        *rand.Rand
	genomes    []Genome
	generation int
	nextID     int
}

// NewPopulation creates size genomes with standard normal genes.
func NewPopulation(size int, cfg config.EvolutionConfig, rng *rand.Rand) (*Population, error) {
	if size <= 0 {
		return nil, fmt.Errorf("evolve: population size must be positive, got %d", size)
	}
	if rng == nil {
		return nil, fmt.Errorf("evolve: random source is required")
	}
	p := &Population{cfg: cfg, rng: rng, generation: 1}
	n := neural.GeneCount(cfg.Hidden)
	for i := 0; i < size; i++ {
		genes := make([]float64, n)
		for j := range genes {
			genes[j] = rng.NormFloat64()
		}
		p.genomes = append(p.genomes, Genome{ID: p.newID(), Genes: genes})
	}
	return p, nil
}

func (p *Population) newID() int {
	id := p.nextID
	p.nextID++
	return id
}

// Generation returns the 1-based generation number.
func (p *Population) Generation() int { return p.generation }

// Size returns the number of genomes.
func (p *Population) Size() int { return len(p.genomes) }

// Genomes returns a copy of the genomes.
func (p *Population) Genomes() []Genome {
	out := make([]Genome, len(p.genomes))
	for i, g := range p.genomes {
		out[i] = g.clone()
	}
	return out
}

// Deciders builds one network per genome, in genome order.
func (p *Population) Deciders() ([]flappy.Decider, error) {
	out := make([]flappy.Decider, len(p.genomes))
	for i, g := range p.genomes {
		n, err := neural.New(g.Genes, p.cfg.Hidden)
		if err != nil {
			return nil, fmt.Errorf("evolve: genome %d: %w", g.ID, err)
		}
		out[i] = n
	}
	return out, nil
}

// SetFitness assigns fitness values in genome order.
func (p *Population) SetFitness(fitness []float64) error {
	if len(fitness) != len(p.genomes) {
		return fmt.Errorf("evolve: %d fitness values for %d genomes", len(fitness), len(p.genomes))
	}
	for i := range p.genomes {
		p.genomes[i].Fitness = fitness[i]
	}
	return nil
}

// Best returns the fittest genome. Ties go to the earlier genome.
func (p *Population) Best() Genome {
	best := 0
	for i, g := range p.genomes {
		if g.Fitness > p.genomes[best].Fitness {
			best = i
		}
	}
	return p.genomes[best].clone()
}

// ranked returns the genomes sorted by fitness, fittest first.
func (p *Population) ranked() []Genome {
	r := append([]Genome(nil), p.genomes...)
	sort.SliceStable(r, func(i, j int) bool { return r[i].Fitness > r[j].Fitness })
	return r
}

// tournament samples TournamentSize genomes and keeps the fittest.
func (p *Population) tournament(ranked []Genome) Genome {
	size := p.cfg.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > len(ranked) {
		size = len(ranked)
	}
	best := ranked[p.rng.Intn(len(ranked))]
	for i := 1; i < size; i++ {
		c := ranked[p.rng.Intn(len(ranked))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}

// Next replaces the population with the next generation. The Elite fittest
// genomes survive unchanged; the remainder are mutated crossovers of
// tournament winners.
func (p *Population) Next() {
	ranked := p.ranked()
	next := make([]Genome, 0, len(p.genomes))

	elite := p.cfg.Elite
	if elite > len(ranked) {
		elite = len(ranked)
	}
	for i := 0; i < elite; i++ {
		g := ranked[i].clone()
		g.Fitness = 0
		next = append(next, g)
	}

	for len(next) < len(p.genomes) {
		a, b := p.tournament(ranked), p.tournament(ranked)
		genes := make([]float64, len(a.Genes))
		for i := range genes {
			if p.rng.Intn(2) == 0 {
				genes[i] = a.Genes[i]
			} else {
				genes[i] = b.Genes[i]
			}
			if p.rng.Float64() < p.cfg.MutationRate {
				genes[i] += p.rng.NormFloat64() * p.cfg.MutationStd
			}
		}
		next = append(next, Genome{ID: p.newID(), Genes: genes})
	}

	p.genomes = next
	p.generation++
}
