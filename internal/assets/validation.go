package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName rejects empty names and names containing separators or
// dots, which could escape the asset directory or change the extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
