// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Overlay construction parameters and YAML loading.

package facade

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-overlay/api"
	"github.com/momentics/hioload-overlay/internal/shm"
)

// Format identifies the pixel layout of every buffer.
type Format int32

// FormatRGBA8888 is the only layout the overlay carries: 4 bytes per pixel.
const FormatRGBA8888 Format = 1

// BytesPerPixel of FormatRGBA8888.
const BytesPerPixel = 4

// DefaultBufferCount gives double buffering.
const DefaultBufferCount = 2

// Config holds parameters immutable for the overlay lifetime.
type Config struct {
	Width       int    `yaml:"width"`        // Source width in pixels
	Height      int    `yaml:"height"`       // Source height in pixels
	BufferCount int    `yaml:"buffer_count"` // Number of slots in the shared segment
	Format      Format `yaml:"format"`       // Pixel layout; only RGBA8888
	SegmentName string `yaml:"segment_name"` // Label of the shared memory object
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		Width:       640,
		Height:      480,
		BufferCount: DefaultBufferCount,
		Format:      FormatRGBA8888,
		SegmentName: shm.DefaultName,
	}
}

// BufferSize returns width*height*4, the byte length of every slot.
func (c Config) BufferSize() int {
	return c.Width * c.Height * BytesPerPixel
}

// Validate checks dimensions, slot count, format and that the whole segment
// size fits in an int.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("dimensions %dx%d must be positive", c.Width, c.Height))
	}
	if c.BufferCount <= 0 {
		errs = append(errs, fmt.Errorf("buffer_count %d must be positive", c.BufferCount))
	}
	if c.Format != FormatRGBA8888 {
		errs = append(errs, fmt.Errorf("format %d unsupported", c.Format))
	}
	if len(errs) == 0 && !fitsInt(c.Width, c.Height, BytesPerPixel, c.BufferCount) {
		errs = append(errs, fmt.Errorf("segment of %d buffers of %dx%d overflows", c.BufferCount, c.Width, c.Height))
	}
	if len(errs) > 0 {
		return fmt.Errorf("facade: invalid config: %w: %w", api.ErrInvalidArgument, errors.Join(errs...))
	}
	return nil
}

// fitsInt reports whether the product of positive factors fits in an int.
func fitsInt(factors ...int) bool {
	p := 1
	for _, f := range factors {
		if f > math.MaxInt/p {
			return false
		}
		p *= f
	}
	return true
}

// LoadConfig reads a YAML file. Absent keys keep their DefaultConfig values;
// unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("facade: open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("facade: decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
