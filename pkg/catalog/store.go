package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/chatter/pkg/dotdir"
	"github.com/papercomputeco/chatter/pkg/llm"
)

const modelsFile = "models.toml"

type modelsDoc struct {
	Models []llm.ModelConfig `toml:"models"`
}

// Store persists user-defined models in models.toml in the .chatter/ directory.
type Store struct {
	targetPath string
}

// NewStore creates a Store. If override is non-empty it is used as the
// .chatter/ directory.
func NewStore(override string) (*Store, error) {
	path, err := dotdir.NewManager().File(override, modelsFile)
	if err != nil {
		return nil, err
	}
	return &Store{targetPath: path}, nil
}

// GetTarget returns the resolved path to models.toml.
func (s *Store) GetTarget() string {
	return s.targetPath
}

// Load returns the stored custom models. A missing file yields none.
func (s *Store) Load() ([]llm.ModelConfig, error) {
	data, err := os.ReadFile(s.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading models: %w", err)
	}

	var doc modelsDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing models: %w", err)
	}
	return doc.Models, nil
}

// Catalog loads the custom models and returns the combined catalog.
func (s *Store) Catalog() (*Catalog, error) {
	custom, err := s.Load()
	if err != nil {
		return nil, err
	}
	return New(custom), nil
}

// Add validates m and appends it. Names must be unique across built-in and
// custom models.
func (s *Store) Add(m llm.ModelConfig) error {
	if err := Validate(m); err != nil {
		return err
	}

	custom, err := s.Load()
	if err != nil {
		return err
	}

	if _, err := New(custom).Lookup(m.Name); err == nil {
		return fmt.Errorf("model %q already exists", m.Name)
	}

	return s.save(append(custom, m))
}

// Remove deletes the custom model with the given name. Built-in models cannot
// be removed.
func (s *Store) Remove(name string) error {
	custom, err := s.Load()
	if err != nil {
		return err
	}

	for i, m := range custom {
		if strings.EqualFold(m.Name, name) {
			return s.save(append(custom[:i], custom[i+1:]...))
		}
	}

	for _, m := range builtin {
		if strings.EqualFold(m.Name, name) {
			return fmt.Errorf("model %q is built in and cannot be removed", m.Name)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

func (s *Store) save(models []llm.ModelConfig) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(modelsDoc{Models: models}); err != nil {
		return fmt.Errorf("encoding models: %w", err)
	}

	if err := os.WriteFile(s.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing models: %w", err)
	}
	return nil
}
