package config

import "github.com/jackzampolin/folio/internal/fonts"

// Config holds folio configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Render   RenderCfg `mapstructure:"render" yaml:"render"`
	Fonts    FontsCfg  `mapstructure:"fonts" yaml:"fonts"`
	OCR      OCRCfg    `mapstructure:"ocr" yaml:"ocr"`
	Export   ExportCfg `mapstructure:"export" yaml:"export"`
	Features Features  `mapstructure:"features" yaml:"features"`
	Server   ServerCfg `mapstructure:"server" yaml:"server"`
}

// RenderCfg configures page rasterization.
type RenderCfg struct {
	Engine       string  `mapstructure:"engine" yaml:"engine"`               // "poppler" or "mupdf"
	PdftoppmPath string  `mapstructure:"pdftoppm_path" yaml:"pdftoppm_path"` // Path to the pdftoppm binary
	BaseDPI      float64 `mapstructure:"base_dpi" yaml:"base_dpi"`           // DPI at zoom 1.0
}

// FontsCfg holds the category defaults used by font resolution.
// Values are pdfcpu font names (core fonts or installed TrueType fonts).
type FontsCfg struct {
	Serif    string   `mapstructure:"serif" yaml:"serif"`
	Sans     string   `mapstructure:"sans" yaml:"sans"`
	Mono     string   `mapstructure:"mono" yaml:"mono"`
	Humanist string   `mapstructure:"humanist" yaml:"humanist"`
	Fallback string   `mapstructure:"fallback" yaml:"fallback"`
	Install  []string `mapstructure:"install" yaml:"install"` // TrueType files to install at startup
}

// OCRCfg configures the Tesseract engine.
type OCRCfg struct {
	Languages      []string `mapstructure:"languages" yaml:"languages"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix"`
	Attempts       int      `mapstructure:"attempts" yaml:"attempts"` // Tries per recognition, 1 disables retries
}

// ExportCfg configures file export.
type ExportCfg struct {
	Prefix string `mapstructure:"prefix" yaml:"prefix"` // Prepended to the original file name
}

// Features are deployment toggles. Booleans only.
type Features struct {
	Auth       bool `mapstructure:"auth" yaml:"auth" json:"auth"`
	Database   bool `mapstructure:"database" yaml:"database" json:"database"`
	OCR        bool `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	MergeSplit bool `mapstructure:"merge_split" yaml:"merge_split" json:"merge_split"`
}

// ServerCfg holds HTTP limits.
type ServerCfg struct {
	MaxUploadMB int `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderCfg{
			Engine:       "poppler",
			PdftoppmPath: "pdftoppm",
			BaseDPI:      96,
		},
		Fonts: FontsCfg{
			Serif:    "Times-Roman",
			Sans:     "Helvetica",
			Mono:     "Courier",
			Humanist: "Helvetica",
			Fallback: "Helvetica",
		},
		OCR: OCRCfg{
			Languages: []string{"eng"},
			Attempts:  1,
		},
		Export: ExportCfg{
			Prefix: "edited-",
		},
		Features: Features{
			OCR:        true,
			MergeSplit: true,
		},
		Server: ServerCfg{
			MaxUploadMB: 100,
		},
	}
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.Server.MaxUploadMB <= 0 {
		return 100 << 20
	}
	return int64(c.Server.MaxUploadMB) << 20
}

// FontDefaults returns the font category defaults for resolution.
// Empty entries fall back to the core fonts.
func (c *Config) FontDefaults() fonts.Defaults {
	d := fonts.StandardDefaults()
	for dst, src := range map[*string]string{
		&d.Serif:    c.Fonts.Serif,
		&d.Sans:     c.Fonts.Sans,
		&d.Mono:     c.Fonts.Mono,
		&d.Humanist: c.Fonts.Humanist,
		&d.Fallback: c.Fonts.Fallback,
	} {
		if src != "" {
			*dst = src
		}
	}
	return d
}
