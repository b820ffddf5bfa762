package model

type DisplayMode string

const (
	DisplayDollars DisplayMode = "dollars"
	DisplayPoints  DisplayMode = "points"
)

func (m DisplayMode) Valid() bool {
	return m == DisplayDollars || m == DisplayPoints
}

type Settings struct {
	Sounds      bool        `json:"sounds"`
	Haptics     bool        `json:"haptics"`
	Confetti    bool        `json:"confetti"`
	DisplayMode DisplayMode `json:"displayMode"`
}

// DefaultSettings is what callers see before any settings have been saved.
func DefaultSettings() Settings {
	return Settings{
		Sounds:      true,
		Haptics:     true,
		Confetti:    true,
		DisplayMode: DisplayDollars,
	}
}
