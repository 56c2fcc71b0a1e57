// Package store persists the fan curve as a fixed-size binary record.
//
// The record is exactly RecordPoints control points, each a little-endian
// int32 temperature followed by a little-endian float32 duty cycle:
//
//	[temp0 int32][duty0 float32] ... [temp4 int32][duty4 float32]
//
// There is no header or version field. Any file of another size is corrupt.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sweeney/thermal-governor/internal/logic"
)

// RecordPoints is the number of control points in a stored curve.
const RecordPoints = 5

// RecordSize is the exact byte size of a stored curve.
const RecordSize = RecordPoints * 8

// DefaultPath is where the daemon keeps its curve.
const DefaultPath = "/etc/thermal-governor/curve.bin"

// ErrAbsent is returned by Load when no usable curve is stored.
var ErrAbsent = errors.New("store: no stored curve")

// Store loads and saves the control curve.
type Store interface {
	// Load returns the stored curve, or an error wrapping ErrAbsent if the
	// record is missing, the wrong size, or not a valid curve.
	Load() (logic.Curve, error)

	// Save writes the curve. It must have exactly RecordPoints points.
	Save(curve logic.Curve) error
}

type record struct {
	Temperature int32
	DutyCycle   float32
}

// Encode serializes a curve into its fixed binary record.
func Encode(curve logic.Curve) ([]byte, error) {
	if len(curve) != RecordPoints {
		return nil, fmt.Errorf("encode curve: have %d points, record holds %d", len(curve), RecordPoints)
	}

	recs := make([]record, RecordPoints)
	for i, p := range curve {
		recs[i] = record{Temperature: int32(p.Temperature), DutyCycle: float32(p.DutyCycle)}
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, recs); err != nil {
		return nil, fmt.Errorf("encode curve: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a binary record. Records of the wrong size or that do not form
// a valid curve are reported as ErrAbsent.
func Decode(data []byte) (logic.Curve, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("%w: record is %d bytes, want %d", ErrAbsent, len(data), RecordSize)
	}

	recs := make([]record, RecordPoints)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAbsent, err)
	}

	curve := make(logic.Curve, RecordPoints)
	for i, r := range recs {
		curve[i] = logic.ControlPoint{Temperature: int(r.Temperature), DutyCycle: float64(r.DutyCycle)}
	}
	if err := curve.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAbsent, err)
	}
	return curve, nil
}

// FileStore keeps the curve record in a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the curve file.
func (s *FileStore) Load() (logic.Curve, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s missing", ErrAbsent, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return Decode(data)
}

// Save encodes the curve and writes it, creating parent directories.
func (s *FileStore) Save(curve logic.Curve) error {
	data, err := Encode(curve)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Logf is the log function LoadOrDefault reports through.
type Logf func(format string, args ...any)

// LoadOrDefault returns the stored curve. When the record is absent or
// corrupt it returns the built-in default curve and asks the store to persist
// it once. Any other read failure falls back to the default without touching
// the store. Save failures are logged and otherwise ignored.
func LoadOrDefault(s Store, logf Logf) logic.Curve {
	curve, err := s.Load()
	if err == nil {
		logf("config file loaded successfully")
		return curve
	}

	def := logic.DefaultCurve()
	if !errors.Is(err, ErrAbsent) {
		logf("config read error, using defaults: %v", err)
		return def
	}

	logf("config missing or corrupted, using defaults: %v", err)
	if err := s.Save(def); err != nil {
		logf("failed to write default config: %v", err)
	} else {
		logf("wrote default config")
	}
	return def
}
