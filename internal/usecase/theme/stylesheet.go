package theme

import (
	"strings"

	"aura-runtime/internal/domain/entity"

	"github.com/aymerick/douceur/css"
)

// uiExclusion keeps theme rules off the assistant's own UI.
const uiExclusion = ":not(#" + entity.ExtensionMountID + "):not(#" + entity.ExtensionRootID + ")" +
	":not(#" + entity.ExtensionMountID + " *):not(#" + entity.ExtensionRootID + " *)"

type declarations [][2]string

func rule(selectors []string, decls declarations) *css.Rule {
	r := css.NewRule(css.QualifiedRule)
	for _, s := range selectors {
		r.Selectors = append(r.Selectors, s+uiExclusion)
	}
	for _, d := range decls {
		r.Declarations = append(r.Declarations, &css.Declaration{Property: d[0], Value: d[1], Important: true})
	}
	return r
}

func sel(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Stylesheet returns the CSS for t; ThemeNone has none.
func Stylesheet(t entity.Theme) string {
	var sheet *css.Stylesheet
	switch t {
	case entity.ThemeDark:
		sheet = darkSheet()
	case entity.ThemeContrast:
		sheet = contrastSheet()
	default:
		return ""
	}
	return sheet.String()
}

func darkSheet() *css.Stylesheet {
	s := css.NewStylesheet()
	s.Rules = []*css.Rule{
		rule(sel("html, body"), declarations{
			{"background-color", "#121212"},
			{"color", "#e0e0e0"},
			{"transition", "background-color 0.3s ease, color 0.3s ease"},
		}),
		rule(sel("div, section, nav, article, aside, main, header, footer"), declarations{
			{"background-color", "transparent"},
			{"color", "inherit"},
			{"border-color", "#333"},
		}),
		rule(sel("p, span, h1, h2, h3, h4, h5, h6, li, td, th"), declarations{
			{"color", "#e0e0e0"},
		}),
		rule(sel("a"), declarations{
			{"color", "#8ab4f8"},
			{"text-decoration", "underline"},
		}),
		rule(sel("input, textarea, select, button"), declarations{
			{"background-color", "#1e1e1e"},
			{"color", "#e0e0e0"},
			{"border", "1px solid #444"},
		}),
		// media is dimmed, never inverted
		rule(sel(`img, video, canvas, iframe, [role="img"]`), declarations{
			{"filter", "brightness(0.8) contrast(1.1)"},
			{"background-color", "transparent"},
		}),
	}
	return s
}

func contrastSheet() *css.Stylesheet {
	s := css.NewStylesheet()
	s.Rules = []*css.Rule{
		rule(sel("*"), declarations{
			{"background-color", "#000000"},
			{"color", "#ffffff"},
			{"border-color", "#ffffff"},
			{"box-shadow", "none"},
			{"text-shadow", "none"},
			{"transition", "background-color 0.2s ease, color 0.2s ease"},
		}),
		rule(sel("a, a *"), declarations{
			{"color", "#ffff00"},
			{"text-decoration", "underline"},
			{"font-weight", "bold"},
		}),
		rule(sel("input, textarea, select, button"), declarations{
			{"background-color", "#000000"},
			{"color", "#ffffff"},
			{"border", "2px solid #ffffff"},
			{"outline", "1px solid #ffff00"},
		}),
		rule(sel(`img, video, canvas, iframe, [role="img"]`), declarations{
			{"filter", "none"},
			{"border", "2px solid #ffffff"},
		}),
		rule(sel(":focus"), declarations{
			{"outline", "4px solid #ffff00"},
			{"outline-offset", "2px"},
		}),
	}
	return s
}
