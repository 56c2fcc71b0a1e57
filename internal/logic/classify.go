package logic

// Classify maps a temperature to an emergency level. It is stateless.
func Classify(temperature float64) Level {
	switch {
	case temperature >= CriticalTemp:
		return LevelCritical
	case temperature >= ElevatedTemp:
		return LevelElevated
	default:
		return LevelNormal
	}
}
