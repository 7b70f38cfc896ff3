package entity

// Marker vocabulary shared by the scraper, the engines and the page adapter.
const (
	AttrAuraID       = "data-aura-id"
	AuraIDPrefix     = "aura-el-"
	AttrHidden       = "data-aura-hidden"
	AttrBionic       = "data-aura-bionic"
	AttrBionicWord   = "data-aura-bionic-word"
	ClassHighlight   = "aura-highlight-active"
	ClassUpscaled    = "aura-upscaled"
	ClassDimmed      = "aura-dimmed"
	ClassFocusMode   = "aura-focus-mode"
	ClassSimplified  = "aura-simplified-mode"
	ClassAnnotation  = "aura-annotation-tooltip"
	AdaptationStyle  = "aura-adaptation-styles"
	ThemeStylePrefix = "aura-theme-"
	ExtensionMountID = "aura-extension-mount"
	ExtensionRootID  = "aura-extension-root"
)

// Storage keys.
const (
	KeyTheme       = "auraTheme"
	KeyWindowState = "aura-floating-window-state"
	KeyProfile     = "auraUserProfile"
)

// ExtensionUISelector matches the assistant's own UI roots.
const ExtensionUISelector = "#" + ExtensionMountID + ", #" + ExtensionRootID

func SelectorForID(id string) string {
	return `[` + AttrAuraID + `="` + id + `"]`
}

func ThemeStyleID(t Theme) string {
	return ThemeStylePrefix + t.String()
}
