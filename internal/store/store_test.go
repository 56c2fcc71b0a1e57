package store

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/thermal-governor/internal/logic"
)

func nopLog(string, ...any) {}

type point struct {
	temp int
	duty float64
}

func curveOf(points ...point) logic.Curve {
	c := make(logic.Curve, len(points))
	for i, p := range points {
		c[i] = logic.ControlPoint{Temperature: p.temp, DutyCycle: p.duty}
	}
	return c
}

func assertCurveNear(t *testing.T, want, got logic.Curve) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Temperature, got[i].Temperature, "point %d temperature", i)
		assert.InDelta(t, want[i].DutyCycle, got[i].DutyCycle, 1e-6, "point %d duty", i)
	}
}

func TestEncodeSize(t *testing.T) {
	data, err := Encode(logic.DefaultCurve())
	require.NoError(t, err)
	assert.Len(t, data, RecordSize)
	assert.Equal(t, 40, RecordSize)
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(logic.DefaultCurve())
	require.NoError(t, err)
	// First record: int32 20 little-endian, then float32 0.1.
	assert.Equal(t, []byte{20, 0, 0, 0}, data[:4])
	assert.Equal(t, []byte{0xcd, 0xcc, 0xcc, 0x3d}, data[4:8])
}

func TestEncodeRejectsWrongLength(t *testing.T) {
	_, err := Encode(curveOf(point{10, 0.1}, point{20, 0.2}))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	curves := []logic.Curve{
		logic.DefaultCurve(),
		curveOf(point{-10, 0}, point{25, 0.15}, point{45, 0.33}, point{70, 0.8}, point{85, 1}),
		curveOf(point{30, 0.2}, point{35, 0.2}, point{40, 0.2}, point{45, 0.9}, point{120, 0.95}),
	}
	for i, c := range curves {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			s := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir", "curve.bin"))
			require.NoError(t, s.Save(c))

			got, err := s.Load()
			require.NoError(t, err)
			assertCurveNear(t, c, got)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "curve.bin")).Load()
	assert.ErrorIs(t, err, ErrAbsent)
}

func TestLoadWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 39), 0644))

	_, err := NewFileStore(path).Load()
	assert.ErrorIs(t, err, ErrAbsent)
}

func TestLoadInvalidShape(t *testing.T) {
	tests := []struct {
		name  string
		curve logic.Curve
	}{
		{"temperatures not increasing", curveOf(point{50, 0.1}, point{40, 0.5}, point{50, 0.6}, point{60, 0.7}, point{100, 1})},
		{"NaN duty", curveOf(point{20, 0.1}, point{40, math.NaN()}, point{50, 0.6}, point{60, 0.7}, point{100, 1})},
		{"duty above one", curveOf(point{20, 0.1}, point{40, 0.5}, point{50, 0.6}, point{60, 0.7}, point{100, 1.5})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.curve)
			require.NoError(t, err)

			_, err = Decode(data)
			assert.ErrorIs(t, err, ErrAbsent)
		})
	}
}

func TestLoadOrDefaultNaNRecordReplaced(t *testing.T) {
	data, err := Encode(curveOf(point{20, 0.1}, point{40, math.NaN()}, point{50, 0.6}, point{60, 0.7}, point{100, 1}))
	require.NoError(t, err)
	m := &MemoryStore{Data: data}

	got := LoadOrDefault(m, nopLog)
	assert.Equal(t, logic.DefaultCurve(), got)
	assert.False(t, math.IsNaN(got.Evaluate(45)))
	require.Len(t, m.Saves, 1)
}

func TestLoadOrDefaultUsesStored(t *testing.T) {
	want := curveOf(point{25, 0.2}, point{35, 0.3}, point{45, 0.5}, point{65, 0.8}, point{80, 1})
	m := &MemoryStore{}
	require.NoError(t, m.Save(want))
	m.Saves = nil

	got := LoadOrDefault(m, nopLog)
	assertCurveNear(t, want, got)
	assert.Empty(t, m.Saves)
}

func TestLoadOrDefaultAbsentSavesDefaultOnce(t *testing.T) {
	m := &MemoryStore{}

	got := LoadOrDefault(m, nopLog)
	assert.Equal(t, logic.DefaultCurve(), got)
	require.Len(t, m.Saves, 1)
	assert.Equal(t, logic.DefaultCurve(), m.Saves[0])
}

func TestLoadOrDefaultCorruptSavesDefaultOnce(t *testing.T) {
	m := &MemoryStore{Data: []byte{1, 2, 3}}

	got := LoadOrDefault(m, nopLog)
	assert.Equal(t, logic.DefaultCurve(), got)
	require.Len(t, m.Saves, 1)
	assert.Len(t, m.Data, RecordSize)
}

func TestLoadOrDefaultSaveFailureIsSoft(t *testing.T) {
	m := &MemoryStore{SaveError: errors.New("read-only filesystem")}
	var lines []string
	logf := func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	got := LoadOrDefault(m, logf)
	assert.Equal(t, logic.DefaultCurve(), got)
	assert.Len(t, m.Saves, 1)
	assert.Contains(t, lines[len(lines)-1], "read-only filesystem")
}

func TestLoadOrDefaultReadErrorFallsBack(t *testing.T) {
	stored, err := Encode(curveOf(point{25, 0.2}, point{35, 0.3}, point{45, 0.5}, point{65, 0.8}, point{80, 1}))
	require.NoError(t, err)
	m := &MemoryStore{Data: stored, LoadError: errors.New("permission denied")}

	got := LoadOrDefault(m, nopLog)
	assert.Equal(t, logic.DefaultCurve(), got)
	assert.Empty(t, m.Saves, "a read error must not overwrite the stored curve")
	assert.Equal(t, stored, m.Data)
}

func TestFileStoreLoadOrDefaultWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermal-governor", "curve.bin")
	s := NewFileStore(path)

	got := LoadOrDefault(s, nopLog)
	assert.Equal(t, logic.DefaultCurve(), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(RecordSize), info.Size())
}
