package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/miyamgo/tmod-launcher/internal/locator"
	"github.com/spf13/afero"
)

// ConfigFile is read from the install root when present.
const ConfigFile = "launcher.toml"

const (
	DefaultRepo        = "tModLoader/tModLoader"
	DefaultAssetMarker = "tModLoader.zip"
)

// Config describes where the games live and where mod-loader releases come from.
type Config struct {
	InstallRoot string         `toml:"-" validate:"required"`
	Repo        string         `toml:"repo" validate:"required,contains=/"`
	APIURL      string         `toml:"api-url" validate:"omitempty,url"`
	AssetMarker string         `toml:"asset-marker" validate:"required"`
	ModLoader   locator.Target `toml:"mod-loader" validate:"required"`
	Game        locator.Target `toml:"game" validate:"required"`
}

// Default returns the stock layout: tModLoader/ and Terraria/ next to the
// launcher.
func Default(installRoot string) *Config {
	return &Config{
		InstallRoot: installRoot,
		Repo:        DefaultRepo,
		AssetMarker: DefaultAssetMarker,
		ModLoader: locator.Target{
			Name:          "tModLoader",
			RootDir:       "tModLoader",
			AcceptedNames: []string{"tModLoader.exe", "start-tmodloader.bat", "start-tmodloader.sh"},
		},
		Game: locator.Target{
			Name:          "Terraria",
			RootDir:       "Terraria",
			AcceptedNames: []string{"Terraria.exe"},
		},
	}
}

// Load builds the configuration for installRoot, applying launcher.toml on
// top of the defaults when the file exists.
func Load(fs afero.Fs, installRoot string) (*Config, error) {
	cfg := Default(installRoot)

	path := filepath.Join(installRoot, ConfigFile)
	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.InstallRoot = installRoot
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.resolveDirs()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolveDirs() {
	for _, t := range []*locator.Target{&c.ModLoader, &c.Game} {
		t.RootDir = strings.TrimSpace(t.RootDir)
		if t.RootDir != "" && !filepath.IsAbs(t.RootDir) {
			t.RootDir = filepath.Join(c.InstallRoot, t.RootDir)
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Targets returns the mod-loader and game targets in menu order.
func (c *Config) Targets() []locator.Target {
	return []locator.Target{c.ModLoader, c.Game}
}

// Target looks a target up by name, ignoring case.
func (c *Config) Target(name string) (locator.Target, bool) {
	for _, t := range c.Targets() {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return locator.Target{}, false
}
