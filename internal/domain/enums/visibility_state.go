package enums

type VisibilityState string

const (
	VisibilityNormal VisibilityState = "normal"
	VisibilityExiled VisibilityState = "exiled"
)

func (s VisibilityState) Valid() bool {
	return s == VisibilityNormal || s == VisibilityExiled
}
