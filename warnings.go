package folio

import "github.com/tsawler/folio/model"

// Warning is a non-fatal issue met during extraction.
type Warning = model.Warning

// FormatWarnings renders warnings one per line for display.
func FormatWarnings(warnings []Warning) string {
	return model.FormatWarnings(warnings)
}
