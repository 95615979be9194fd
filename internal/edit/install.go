package edit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// InstallFonts makes TrueType files available to text operations under
// their pdfcpu font names. Files that are not .ttf are skipped.
func InstallFonts(files []string) (int, error) {
	var ttf []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".ttf") {
			ttf = append(ttf, f)
		}
	}
	if len(ttf) == 0 {
		return 0, nil
	}
	// Loads the pdfcpu configuration, which sets up the user font directory.
	_ = Configuration()
	if err := api.InstallFonts(ttf); err != nil {
		return 0, fmt.Errorf("failed to install fonts: %w", err)
	}
	return len(ttf), nil
}
