package models

// GeneratorConfig holds settings read from .kvoconfig via Viper.
// Command line flags take precedence over these values.
type GeneratorConfig struct {
	Package  string       `yaml:"package" mapstructure:"package" validate:"goident"`
	Format   SchemaFormat `yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=json yaml yml"`
	Output   string       `yaml:"output,omitempty" mapstructure:"output"`
	EventLog bool         `yaml:"event_log" mapstructure:"event_log"`
}
