// Package branding loads a company's colors as an explicit Theme value.
package branding

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
)

var ErrInvalidColor = errors.New("color must be a hex value like #800000")

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Theme is the branding of one company, ready to be applied by a client.
type Theme struct {
	CompanyID    string            `json:"company_id"`
	PrimaryColor string            `json:"primary_color"`
	AccentColor  string            `json:"accent_color"`
	CSSVars      map[string]string `json:"css_vars"`
}

// NormalizeHex validates a color and returns it as upper-case #RRGGBB.
func NormalizeHex(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !hexColor.MatchString(s) {
		return "", ErrInvalidColor
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	return "#" + strings.ToUpper(s), nil
}

func jsRound(x float64) int {
	return int(math.Floor(x + 0.5))
}

// HexToHSL converts a hex color into the "H S% L%" component string used by
// CSS custom properties, e.g. "#800000" -> "0 100% 25%".
func HexToHSL(hex string) (string, error) {
	norm, err := NormalizeHex(hex)
	if err != nil {
		return "", err
	}
	channel := func(i int) float64 {
		v, _ := strconv.ParseUint(norm[1+i*2:3+i*2], 16, 8)
		return float64(v) / 255
	}
	r, g, b := channel(0), channel(1), channel(2)

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2
	var h, s float64

	if max != min {
		d := max - min
		if l > 0.5 {
			s = d / (2 - max - min)
		} else {
			s = d / (max + min)
		}
		switch max {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}

	return fmt.Sprintf("%d %d%% %d%%", jsRound(h*360), jsRound(s*100), jsRound(l*100)), nil
}

// NewTheme builds a theme. Invalid stored colors fall back to the defaults.
func NewTheme(companyID, primary, accent string) Theme {
	p, err := NormalizeHex(primary)
	if err != nil {
		p = models.DefaultPrimaryColor
	}
	a, err := NormalizeHex(accent)
	if err != nil {
		a = models.DefaultAccentColor
	}
	pHSL, _ := HexToHSL(p)
	aHSL, _ := HexToHSL(a)

	return Theme{
		CompanyID:    companyID,
		PrimaryColor: p,
		AccentColor:  a,
		CSSVars: map[string]string{
			"--primary":         pHSL,
			"--accent":          aHSL,
			"--ring":            aHSL,
			"--company-primary": p,
			"--company-accent":  a,
		},
	}
}
