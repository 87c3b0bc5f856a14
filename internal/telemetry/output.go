// Package telemetry writes per-generation training output as CSV files.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/flappy-neat/internal/config"
)

// OutputManager handles training output with CSV logging. A nil manager is
// valid and discards everything.
type OutputManager struct {
	dir              string
	generationsFile  *os.File
	eliminationsFile *os.File

	// Track if headers have been written
	generationsHeaderWritten  bool
	eliminationsHeaderWritten bool
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating generations.csv: %w", err)
	}
	om.generationsFile = f

	f, err = os.Create(filepath.Join(dir, "eliminations.csv"))
	if err != nil {
		om.generationsFile.Close()
		return nil, fmt.Errorf("telemetry: creating eliminations.csv: %w", err)
	}
	om.eliminationsFile = f

	return om, nil
}

// WriteConfig saves the run parameters as YAML.
func (om *OutputManager) WriteConfig(cfg config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration appends a generation summary to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}

	records := []GenerationStats{stats}
	if !om.generationsHeaderWritten {
		if err := gocsv.Marshal(records, om.generationsFile); err != nil {
			return fmt.Errorf("telemetry: writing generation: %w", err)
		}
		om.generationsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.generationsFile); err != nil {
		return fmt.Errorf("telemetry: writing generation: %w", err)
	}
	return nil
}

// WriteEliminations appends elimination rows to eliminations.csv.
func (om *OutputManager) WriteEliminations(rows []EliminationRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}

	if !om.eliminationsHeaderWritten {
		if err := gocsv.Marshal(rows, om.eliminationsFile); err != nil {
			return fmt.Errorf("telemetry: writing eliminations: %w", err)
		}
		om.eliminationsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.eliminationsFile); err != nil {
		return fmt.Errorf("telemetry: writing eliminations: %w", err)
	}
	return nil
}

// Winner is the best genome of a training session.
type Winner struct {
	Session    string    `yaml:"session"`
	Generation int       `yaml:"generation"`
	Fitness    float64   `yaml:"fitness"`
	Score      int       `yaml:"score"`
	Hidden     int       `yaml:"hidden"`
	Genes      []float64 `yaml:"genes"`
}

// WriteWinner saves the winning genome as winner.yaml.
func (om *OutputManager) WriteWinner(w Winner) error {
	if om == nil {
		return nil
	}
	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("telemetry: marshaling winner: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "winner.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("telemetry: writing winner.yaml: %w", err)
	}
	return nil
}

// ReadWinner loads a genome written by WriteWinner.
func ReadWinner(path string) (Winner, error) {
	var w Winner
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("telemetry: reading winner: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("telemetry: parsing winner %s: %w", path, err)
	}
	return w, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.generationsFile, om.eliminationsFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
