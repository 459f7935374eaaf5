package core

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/gokvo/pkg/models"
)

// ConfigFileName is the name (without extension) of the generator config file.
const ConfigFileName = ".kvoconfig"

// ConfigurationManager defines the interface for loading and validating the
// generator configuration stored in .kvoconfig.
type ConfigurationManager interface {
	LoadConfig() (*models.GeneratorConfig, error)
	ValidateConfig(cfg *models.GeneratorConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the directory where .kvoconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// .kvoconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a GeneratorConfig populated with defaults.
func DefaultConfig() *models.GeneratorConfig {
	return &models.GeneratorConfig{
		Package:  "model",
		Format:   models.FormatAuto,
		Output:   "",
		EventLog: true,
	}
}

// LoadConfig reads .kvoconfig from the base path. If the file does not
// exist, defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.GeneratorConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("package", cfg.Package)
	v.SetDefault("format", string(cfg.Format))
	v.SetDefault("output", cfg.Output)
	v.SetDefault("event_log", cfg.EventLog)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConfigFileName, err)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validating %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// configValidate checks the validate tags of models.GeneratorConfig.
var configValidate = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		return token.IsIdentifier(fl.Field().String())
	})
	return v
}

// ValidateConfig checks that the package is a usable Go package name and
// the format is one ParseSchema understands.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GeneratorConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	cfg.Format = models.SchemaFormat(strings.ToLower(strings.TrimSpace(string(cfg.Format))))
	if err := configValidate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return describeConfigError(cfg, fieldErrs[0])
		}
		return fmt.Errorf("validating config: %w", err)
	}
	format, err := ParseFormat(string(cfg.Format))
	if err != nil {
		return err
	}
	cfg.Format = format
	return nil
}

func describeConfigError(cfg *models.GeneratorConfig, fe validator.FieldError) error {
	switch fe.StructField() {
	case "Package":
		return fmt.Errorf("package %q is not a valid Go package name", cfg.Package)
	case "Format":
		return fmt.Errorf("unsupported schema format %q (use json or yaml)", cfg.Format)
	default:
		return fmt.Errorf("invalid %s: fails %q", fe.Field(), fe.Tag())
	}
}
