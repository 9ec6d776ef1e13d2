// Package cfgloader loads and validates configuration at the start of an application.
//
// Configuration is read from ./config/${ENVIRONMENT}.yaml. A .env file is loaded first,
// ${VAR} references in the YAML are expanded, fields tagged `env:"NAME"` are overridden
// from the environment, `default` tags fill unset fields and `validate` tags are checked
// with go-playground/validator.
package cfgloader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"

	CodeInvalidEnvironment = "CONFIG_INVALID_ENVIRONMENT"
	CodeFileNotFound       = "CONFIG_FILE_NOT_FOUND"
	CodeInvalidConfig      = "CONFIG_INVALID"
)

//nolint:gochecknoglobals // fixed list of environments
var environments = []string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}

// MustLoad loads the configuration and exits the process when it cannot.
// The loaded configuration is printed with `mask:"true"` fields masked unless WithSilent is given.
//
// Example:
//
//	type Config struct {
//	    Host     string `yaml:"host" validate:"required"`
//	    Port     int    `yaml:"port" default:"8080"`
//	    Password string `yaml:"password" env:"DB_PASSWORD" mask:"true"`
//	}
func MustLoad[T any](opts ...Option) T {
	o := buildOptions(opts)

	config, err := Load[T](opts...)
	if err != nil {
		slog.Error("[cfgloader]: " + err.Error())
		os.Exit(1)
	}

	if !o.Silent {
		printConfig(config)
	}
	return config
}

// Load reads, expands, defaults and validates the configuration for the current environment.
func Load[T any](opts ...Option) (T, error) {
	var config T
	o := buildOptions(opts)

	if reflect.TypeFor[T]().Kind() == reflect.Pointer {
		return config, errx.New("config type must not be a pointer", errx.WithCode(CodeInvalidConfig))
	}

	_ = godotenv.Load()

	environment, err := defineEnvironment(o.Environment)
	if err != nil {
		return config, err
	}

	path := filepath.Join(o.Dir, environment+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, errx.New(
			fmt.Sprintf("config file not found in the path %s", path),
			errx.WithCode(CodeFileNotFound),
			errx.WithDetails(errx.D{"path": path}),
		)
	}
	if err != nil {
		return config, errx.Wrap(err, errx.WithDetails(errx.D{"path": path}))
	}

	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return config, errx.New(
			fmt.Sprintf("failed to unmarshal %s config file: %v", environment, err),
			errx.WithCode(CodeInvalidConfig),
		)
	}

	if err = env.Parse(&config); err != nil {
		return config, errx.New(
			fmt.Sprintf("failed to apply environment overrides: %v", err),
			errx.WithCode(CodeInvalidConfig),
		)
	}

	if err = defaults.Set(&config); err != nil {
		return config, errx.New(
			fmt.Sprintf("failed to set default values for config: %v", err),
			errx.WithCode(CodeInvalidConfig),
		)
	}

	if err = validateConfig(&config, environment); err != nil {
		return config, err
	}
	return config, nil
}

func defineEnvironment(override string) (string, error) {
	environment := override
	if environment == "" {
		environment = os.Getenv("ENVIRONMENT")
	}
	if !slices.Contains(environments, environment) {
		return "", errx.New(
			"ENVIRONMENT env variable is not set or invalid. Choices are: "+strings.Join(environments, ", "),
			errx.WithCode(CodeInvalidEnvironment),
			errx.WithDetails(errx.D{"environment": environment}),
		)
	}
	return environment, nil
}

func validateConfig(config any, environment string) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(config)

	failedFields := make([]string, 0)
	fields := make(errx.M)
	if errs, ok := err.(validator.ValidationErrors); ok { //nolint: errorlint // Using type assertion for validator errors handling
		for _, fe := range errs {
			tagErr := fe.Tag()
			if fe.Param() != "" {
				tagErr += "=" + fe.Param()
			}
			failedFields = append(failedFields, fmt.Sprintf("%s: %s", fe.Namespace(), tagErr))
			fields[fe.Namespace()] = tagErr
		}
	}

	if len(failedFields) > 0 {
		return errx.New(
			fmt.Sprintf("invalid fields in %s config -> %s", environment, strings.Join(failedFields, ",  ")),
			errx.WithCode(CodeInvalidConfig),
			errx.WithType(errx.T_Validation),
			errx.WithFields(fields),
		)
	}
	return nil
}
