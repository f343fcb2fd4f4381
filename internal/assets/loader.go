package assets

// Built-in asset names.
const (
	DefaultStyleName    = "report"
	DefaultTemplateName = "report"
)

// AssetLoader loads report assets by name, without extension.
type AssetLoader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}
