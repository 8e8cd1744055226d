package scope

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/pavanmanishd/pktmem"
)

// Well-known scope names.
const (
	Session    = "session"
	UnitOfWork = "unit-of-work"
)

// Spec describes the pool behind one scope.
type Spec struct {
	Name        string `yaml:"name"`
	Backend     string `yaml:"backend"`
	Inner       string `yaml:"inner,omitempty"`
	SegmentSize int    `yaml:"segment_size,omitempty"`
	GuardSize   int    `yaml:"guard_size,omitempty"`
	Checks      string `yaml:"checks,omitempty"`       // default, on, off
	SizeClasses string `yaml:"size_classes,omitempty"` // fine, balanced, coarse
	Limit       int    `yaml:"limit,omitempty"`
}

// Config lists the scopes a Registry manages.
type Config struct {
	Scopes []Spec `yaml:"scopes"`
}

// DefaultConfig returns a session scope on the block backend and a
// unit-of-work scope on the block-fast backend.
func DefaultConfig() Config {
	return Config{Scopes: []Spec{
		{Name: Session, Backend: "block"},
		{Name: UnitOfWork, Backend: "block-fast"},
	}}
}

// LoadConfig reads a YAML scope configuration from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read scope config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "scope config %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes and validates a YAML scope configuration. Unknown
// fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that scope names are unique and every field parses.
func (c Config) Validate() error {
	if len(c.Scopes) == 0 {
		return errors.New("no scopes configured")
	}
	seen := make(map[string]bool, len(c.Scopes))
	for i, s := range c.Scopes {
		if s.Name == "" {
			return errors.Newf("scope %d has no name", i)
		}
		if seen[s.Name] {
			return errors.Newf("scope %q configured twice", s.Name)
		}
		seen[s.Name] = true
		if _, _, err := s.PoolConfig(nil); err != nil {
			return err
		}
	}
	return nil
}

// PoolConfig translates s into the arguments of pktmem.NewPool.
func (s Spec) PoolConfig(logger *slog.Logger) (pktmem.Kind, *pktmem.Config, error) {
	kind, err := pktmem.ParseKind(s.Backend)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "scope %q", s.Name)
	}
	cfg := &pktmem.Config{
		Name:        s.Name,
		SegmentSize: s.SegmentSize,
		GuardSize:   s.GuardSize,
		Limit:       s.Limit,
		Logger:      logger,
		Inner:       pktmem.KindBlock,
	}
	if s.Inner != "" {
		if cfg.Inner, err = pktmem.ParseKind(s.Inner); err != nil {
			return 0, nil, errors.Wrapf(err, "scope %q inner", s.Name)
		}
		if cfg.Inner == pktmem.KindStrict {
			return 0, nil, errors.Newf("scope %q: strict cannot wrap strict", s.Name)
		}
	}
	switch strings.ToLower(s.Checks) {
	case "", "default":
	case "on":
		cfg.Checks = pktmem.ChecksOn
	case "off":
		cfg.Checks = pktmem.ChecksOff
	default:
		return 0, nil, errors.Newf("scope %q: unknown checks mode %q", s.Name, s.Checks)
	}
	switch strings.ToLower(s.SizeClasses) {
	case "", "balanced":
	case "fine":
		sc := pktmem.ClassesFine
		cfg.SizeClasses = &sc
	case "coarse":
		sc := pktmem.ClassesCoarse
		cfg.SizeClasses = &sc
	default:
		return 0, nil, errors.Newf("scope %q: unknown size classes %q", s.Name, s.SizeClasses)
	}
	return kind, cfg, nil
}
