package store

import "github.com/sweeney/thermal-governor/internal/logic"

// MemoryStore is a test double holding the raw record bytes in memory.
type MemoryStore struct {
	// Data is the stored record; nil means absent.
	Data []byte

	// Saves records every curve passed to Save.
	Saves []logic.Curve

	// LoadError and SaveError, if set, are returned by Load and Save.
	LoadError error
	SaveError error
}

// Load decodes Data.
func (m *MemoryStore) Load() (logic.Curve, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.Data == nil {
		return nil, ErrAbsent
	}
	return Decode(m.Data)
}

// Save encodes the curve into Data.
func (m *MemoryStore) Save(curve logic.Curve) error {
	m.Saves = append(m.Saves, curve)
	if m.SaveError != nil {
		return m.SaveError
	}
	data, err := Encode(curve)
	if err != nil {
		return err
	}
	m.Data = data
	return nil
}
