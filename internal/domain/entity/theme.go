package entity

import (
	"fmt"
	"strings"
)

// Theme is the closed set of supported colour themes.
type Theme int

const (
	ThemeNone Theme = iota
	ThemeDark
	ThemeContrast
)

var themeNames = [...]string{
	ThemeNone:     "none",
	ThemeDark:     "dark",
	ThemeContrast: "contrast",
}

func (t Theme) String() string {
	if t < 0 || int(t) >= len(themeNames) {
		return fmt.Sprintf("Theme(%d)", int(t))
	}
	return themeNames[t]
}

// ParseTheme rejects anything outside the closed set.
func ParseTheme(s string) (Theme, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range themeNames {
		if n == name {
			return Theme(i), nil
		}
	}
	return ThemeNone, fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

func Themes() []Theme {
	return []Theme{ThemeNone, ThemeDark, ThemeContrast}
}

func (t Theme) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Theme) UnmarshalText(b []byte) error {
	parsed, err := ParseTheme(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
