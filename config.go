package pktmem

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind selects the allocation strategy a pool delegates to.
type Kind uint8

const (
	// KindBlock carves from segments and recycles freed runs through
	// size-classed free lists with coalescing.
	KindBlock Kind = iota
	// KindBlockFast is a bump allocator; Free is a no-op.
	KindBlockFast
	// KindSimple makes one Go allocation per request.
	KindSimple
	// KindStrict wraps another kind with guard regions and poisoning.
	KindStrict
)

var kindNames = [...]string{
	KindBlock:     "block",
	KindBlockFast: "block-fast",
	KindSimple:    "simple",
	KindStrict:    "strict",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind maps a backend name ("block", "block-fast", "simple", "strict")
// to its Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	switch name {
	case "blockfast", "fast":
		return KindBlockFast, nil
	}
	return 0, errors.Newf("pktmem: unknown backend %q", s)
}

// CheckMode controls integrity checking for non-strict pools.
type CheckMode uint8

const (
	// ChecksDefault enables checks only in builds tagged pktmemdebug.
	ChecksDefault CheckMode = iota
	ChecksOn
	ChecksOff
)

func (m CheckMode) enabled() bool {
	switch m {
	case ChecksOn:
		return true
	case ChecksOff:
		return false
	}
	return debugChecks
}

// DefaultGuardSize is the number of guard bytes the strict backend places on
// each side of an allocation.
const DefaultGuardSize = 16

// Config configures a pool. The zero value is usable; zero fields take
// their defaults.
type Config struct {
	// Name identifies the pool in logs and integrity reports.
	Name string

	// SegmentSize is the size of a standard segment for the block and
	// block-fast backends and sizes typed slab chunks. Default 64 KiB.
	SegmentSize int

	// Inner is the strategy wrapped by a strict pool. Default KindBlock.
	Inner Kind

	// GuardSize is the strict backend guard width, rounded up to 8.
	GuardSize int

	// Checks turns double-free, foreign and stale handle detection on or off
	// for block, block-fast and simple pools. Strict pools always check.
	Checks CheckMode

	// SizeClasses configures block backend free lists. nil means
	// DefaultSizeClasses.
	SizeClasses *SizeClassConfig

	// Limit caps the bytes a pool may reserve; 0 means unlimited. Crossing
	// it is fatal.
	Limit int

	// Logger receives debug and error records. nil discards them.
	Logger *slog.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (c Config) withDefaults() Config {
	if c.SegmentSize <= 0 {
		c.SegmentSize = DefaultSegmentSize
	}
	c.SegmentSize = alignUp(c.SegmentSize)
	if c.GuardSize <= 0 {
		c.GuardSize = DefaultGuardSize
	}
	c.GuardSize = alignUp(c.GuardSize)
	if c.SizeClasses == nil {
		sc := DefaultSizeClasses
		c.SizeClasses = &sc
	}
	if c.Logger == nil {
		c.Logger = discardLogger
	}
	if c.Name == "" {
		c.Name = "anonymous"
	}
	return c
}
