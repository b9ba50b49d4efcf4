package enums

type DisplayMode string

const (
	ModeNormal    DisplayMode = "normal"
	ModeExiled    DisplayMode = "exiled"
	ModeFavorites DisplayMode = "favorites"
)

func (m DisplayMode) Valid() bool {
	switch m {
	case ModeNormal, ModeExiled, ModeFavorites:
		return true
	}
	return false
}
