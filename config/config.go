package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "github.com/leeforge/imgresize/errors"
	"github.com/leeforge/imgresize/media/processor"
)

func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("IMGRESIZE_CONFIG_PATH")
	if basePath == "" {
		basePath = "."
	}

	return ConfigOptions{
		BasePath:  basePath,
		FileName:  "imgresize",
		FileType:  "yaml",
		EnvPrefix: "IMGRESIZE",
	}
}

func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	var opts ConfigOptions
	if len(optsArr) == 0 {
		opts = DefaultConfigOptions()
	} else {
		opts = optsArr[0]
	}

	instance, files, err := CreateConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Config{
		instance: instance,
		opts:     opts,
		files:    files,
	}, nil
}

// Files lists the config files that were merged, lowest priority first.
func (c *Config) Files() []string {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return c.files
}

// Bind unmarshals the current config into instance. A reload never writes to
// an instance bound earlier; bind a new one from OnChange instead.
func (c *Config) Bind(instance any) error {
	if c == nil {
		return fmt.Errorf("config instance is nil")
	}
	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	if c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}

	if err := c.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("failed to unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}

	if c.opts.WatchAble && len(c.files) > 0 {
		c.watchOnce.Do(func() {
			c.instance.OnConfigChange(func(e fsnotify.Event) {
				// rebuild from every layer; the watched file is only the trigger
				fresh, files, err := CreateConfig(c.opts)
				if err != nil {
					fmt.Fprintf(os.Stderr, "config reload error: %v\n", err)
					return
				}

				c.watchMutex.Lock()
				c.instance, c.files = fresh, files
				c.watchMutex.Unlock()

				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			})
			c.instance.WatchConfig()
		})
	}

	return nil
}

// BindWithDefaults fills instance from its `default` tags, then overlays the
// config. Defaults are applied first only, so explicit zero values such as
// keep_exif: false survive.
func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}
	return c.Bind(instance)
}

// CreateConfig merges the config files found for opts into one viper instance
// and layers environment variables on top. Finding no file is not an error.
func CreateConfig(opts ConfigOptions) (*viper.Viper, []string, error) {
	configPaths := getConfigFilePaths(opts)

	v := viper.New()
	v.SetConfigType(opts.FileType)

	for _, configPath := range configPaths {
		tempV := viper.New()
		tempV.SetConfigFile(configPath)
		if err := tempV.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}

		for _, key := range tempV.AllKeys() {
			v.Set(key, tempV.Get(key))
		}
	}
	if len(configPaths) > 0 {
		v.SetConfigFile(configPaths[0])
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()
	for _, key := range settingKeys {
		_ = v.BindEnv(key)
	}

	// Override with environment variables (higher priority than config file values)
	applyEnvOverrides(v, opts.EnvPrefix)

	return v, configPaths, nil
}

// applyEnvOverrides checks all config keys and overrides with environment variables if they exist.
// v.Set has the highest viper priority, so file values merged with Set would otherwise win.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range v.AllKeys() {
		// log.file-name -> IMGRESIZE_LOG_FILE_NAME
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}

		if envValue, ok := os.LookupEnv(envKey); ok && envValue != "" {
			v.Set(key, envValue)
		}
	}
}

func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	fileNames := []string{
		opts.FileName,
		fmt.Sprintf("%s.local", opts.FileName),
	}
	for _, env := range CurrentMode().aliases() {
		fileNames = append(fileNames,
			fmt.Sprintf("%s.%s", opts.FileName, env),
			fmt.Sprintf("%s.%s.local", opts.FileName, env),
		)
	}

	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			configFiles = append(configFiles, file)
		}
	}

	return configFiles
}

// Load reads Settings from the files and environment described by opts.
func Load(opts ConfigOptions) (*Settings, error) {
	cfg, err := NewConfig(opts)
	if err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := cfg.BindWithDefaults(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Watch loads Settings and calls onChange with a freshly loaded copy, defaults
// included, whenever one of the config files changes. The returned Settings is
// never modified. It fails when there is no config file to watch.
func Watch(opts ConfigOptions, onChange func(Settings)) (*Settings, error) {
	var cfg *Config
	opts.WatchAble = true
	opts.OnChange = func(fsnotify.Event) {
		fresh := &Settings{}
		if err := cfg.BindWithDefaults(fresh); err != nil {
			fmt.Fprintf(os.Stderr, "config reload error: %v\n", err)
			return
		}
		if onChange != nil {
			onChange(*fresh)
		}
	}

	var err error
	cfg, err = NewConfig(opts)
	if err != nil {
		return nil, err
	}
	if len(cfg.Files()) == 0 {
		return nil, fmt.Errorf("no %s.%s found in %s to watch", opts.FileName, opts.FileType, opts.BasePath)
	}

	settings := &Settings{}
	if err := cfg.BindWithDefaults(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s Settings) normalized() Settings {
	s.Mode = strings.ToLower(strings.TrimSpace(s.Mode))
	s.Format = strings.ToLower(strings.TrimSpace(s.Format))
	s.Filter = strings.ToLower(strings.TrimSpace(s.Filter))
	return s
}

// Validate reports the first invalid field as an invalid-settings error.
func (s Settings) Validate() error {
	err := validate.Struct(s.normalized())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if apperrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return apperrors.NewInvalid(fe.Field(), fe.Value(), reason)
	}
	return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalid, "invalid settings")
}

// Request converts validated settings into a normalized ResizeRequest.
func (s Settings) Request() (processor.ResizeRequest, error) {
	if err := s.Validate(); err != nil {
		return processor.ResizeRequest{}, err
	}

	n := s.normalized()
	mode, err := processor.ParseMode(n.Mode)
	if err != nil {
		return processor.ResizeRequest{}, err
	}
	format, err := processor.ParseFormat(n.Format)
	if err != nil {
		return processor.ResizeRequest{}, err
	}

	return processor.ResizeRequest{
		Mode:       mode,
		Percent:    n.Percent,
		Width:      n.Width,
		Height:     n.Height,
		KeepAspect: n.KeepAspect,
		DPI:        n.DPI,
		Format:     format,
		KeepEXIF:   n.KeepEXIF,
		Quality:    n.Quality,
		Filter:     processor.ParseFilter(n.Filter),
		OutputDir:  n.OutputDir,
	}.Normalized(), nil
}
