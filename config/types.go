package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/leeforge/imgresize/logging"
)

type Config struct {
	instance   *viper.Viper
	opts       ConfigOptions
	files      []string
	watchOnce  sync.Once
	watchMutex sync.RWMutex
}

type ConfigOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	WatchAble bool
	OnChange  func(e fsnotify.Event)
}

// Settings is the persisted resize policy plus logging. Field defaults are the
// values an interactive user starts from.
type Settings struct {
	Mode       string `mapstructure:"mode" json:"mode" yaml:"mode" default:"percent" validate:"oneof=percent pixel"`
	Percent    int    `mapstructure:"percent" json:"percent" yaml:"percent" default:"50" validate:"min=1"`
	Width      int    `mapstructure:"width" json:"width" yaml:"width" default:"1920" validate:"min=0"`
	Height     int    `mapstructure:"height" json:"height" yaml:"height" default:"1080" validate:"min=0"`
	KeepAspect bool   `mapstructure:"keep_aspect" json:"keep_aspect" yaml:"keep_aspect" default:"true"`

	// DPI and Quality are clamped rather than rejected.
	DPI     int `mapstructure:"dpi" json:"dpi" yaml:"dpi" default:"300"`
	Quality int `mapstructure:"quality" json:"quality" yaml:"quality" default:"90"`

	Format string `mapstructure:"format" json:"format" yaml:"format" default:"original" validate:"oneof=original jpeg jpg png webp tiff tif bmp gif"`
	// Filter falls back to lanczos when unrecognized.
	Filter string `mapstructure:"filter" json:"filter" yaml:"filter" default:"lanczos"`

	KeepEXIF  bool   `mapstructure:"keep_exif" json:"keep_exif" yaml:"keep_exif" default:"true"`
	OutputDir string `mapstructure:"output_dir" json:"output_dir" yaml:"output_dir" default:"./resized" validate:"required"`
	Recursive bool   `mapstructure:"recursive" json:"recursive" yaml:"recursive" default:"true"`

	Log logging.Config `mapstructure:"log" json:"log" yaml:"log"`
}

// settingKeys are bound to environment variables so they apply even when no
// config file mentions them.
var settingKeys = []string{
	"mode", "percent", "width", "height", "keep_aspect",
	"dpi", "quality", "format", "filter",
	"keep_exif", "output_dir", "recursive",
	"log.director", "log.file-name", "log.level", "log.format",
	"log.log-in-terminal", "log.show-line-number",
}
