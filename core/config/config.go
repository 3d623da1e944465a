package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
)

// Configuration holds the shell's tunable surface. The zero configuration is
// not valid; use Default or Load.
type Configuration struct {
	configFs afero.Fs

	// Prompt is printed verbatim before each read.
	Prompt string `json:"prompt" validate:"required"`

	// PromptColor optionally colors the prompt.
	PromptColor string `json:"prompt_color" validate:"omitempty,oneof=black red green yellow blue magenta cyan white"`

	// CommandLog names the JSON lines event log file. Empty disables logging.
	CommandLog string `json:"command_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewOsFs()
	}
	return c.configFs
}

// OpenCommandLog opens the command log in an append only state.
func (c *Configuration) OpenCommandLog() (afero.File, error) {
	return c.fs().OpenFile(c.CommandLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadCommandLog opens the command log for reading.
func (c *Configuration) ReadCommandLog() (afero.File, error) {
	return c.fs().OpenFile(c.CommandLog, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration. Command logging is off because
// there is no configuration directory to receive the log.
func Default() *Configuration {
	out := defaultConfig()
	out.CommandLog = ""
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
