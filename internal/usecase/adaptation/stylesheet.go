package adaptation

import (
	"aura-runtime/internal/domain/entity"

	"github.com/aymerick/douceur/css"
)

func qualified(selector string, decls ...*css.Declaration) *css.Rule {
	r := css.NewRule(css.QualifiedRule)
	r.Selectors = []string{selector}
	r.Declarations = decls
	return r
}

func important(prop, value string) *css.Declaration {
	return &css.Declaration{Property: prop, Value: value, Important: true}
}

func plain(prop, value string) *css.Declaration {
	return &css.Declaration{Property: prop, Value: value}
}

// Stylesheet is installed once per document under entity.AdaptationStyle.
func Stylesheet() string {
	sheet := css.NewStylesheet()
	sheet.Rules = []*css.Rule{
		qualified("."+entity.ClassHighlight,
			important("outline", "5px solid #6366f1"),
			important("outline-offset", "4px"),
			important("transition", "all 0.3s cubic-bezier(0.4, 0, 0.2, 1)"),
			important("position", "relative"),
			important("z-index", "10000"),
			plain("transform", "scale(1.05)"),
		),
		qualified("."+entity.ClassUpscaled,
			important("transform", "scale(1.25)"),
			important("z-index", "10001"),
			important("box-shadow", "0 10px 15px -3px rgba(0, 0, 0, 0.1), 0 4px 6px -2px rgba(0, 0, 0, 0.05)"),
		),
		qualified("."+entity.ClassFocusMode+" ."+entity.ClassDimmed,
			important("opacity", "0.1"),
			important("pointer-events", "none"),
			important("filter", "blur(2px)"),
			important("transition", "all 0.5s ease"),
		),
		qualified("."+entity.ClassSimplified+" ["+entity.AttrHidden+`="true"]`,
			important("display", "none"),
		),
		qualified("."+entity.ClassAnnotation,
			plain("position", "absolute"),
			plain("background", "#1e293b"),
			plain("color", "white"),
			plain("padding", "0.5rem 0.75rem"),
			plain("border-radius", "6px"),
			plain("font-size", "0.75rem"),
			plain("z-index", "10002"),
			plain("pointer-events", "none"),
			plain("max-width", "200px"),
			plain("box-shadow", "0 4px 6px -1px rgba(0, 0, 0, 0.1)"),
			plain("margin-top", "8px"),
		),
	}
	return sheet.String()
}
