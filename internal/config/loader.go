package config

import (
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/omeid/uconfig/flat"
)

const (
	TagEnv  = "env"
	TagFlag = "flag"
	TagDesc = "desc"
)

var (
	ErrEnvLoad          = errors.New("cannot load .env file")
	ErrEnvParse         = errors.New("cannot parse env variable")
	ErrFlagParse        = errors.New("cannot parse flag")
	ErrConfigInvalid    = errors.New("invalid config struct")
	ErrConfigValidation = errors.New("config validation error")
)

type defaulter interface {
	SetDefaults()
}

// LoadConfig fills cfg from .env, the environment and flags, in increasing priority, then
// applies defaults and validates
func LoadConfig(cfg interface{}, osArgs *[]string, envFiles ...string) error {
	// missing .env files are fine, variables may come from the environment
	err := godotenv.Load(envFiles...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return lib.WrapError(ErrEnvLoad, err)
	}

	// recursively iterates over each field of the nested struct
	fields, err := flat.View(cfg)
	if err != nil {
		return lib.WrapError(ErrConfigInvalid, err)
	}

	flagset := flag.NewFlagSet("", flag.ContinueOnError)

	for _, field := range fields {
		envName, ok := field.Tag(TagEnv)
		if !ok {
			continue
		}

		if envValue, ok := os.LookupEnv(envName); ok && envValue != "" {
			if err := field.Set(envValue); err != nil {
				return lib.WrapError(ErrEnvParse, lib.WrapError(errors.New(envName), err))
			}
		}

		flagName, ok := field.Tag(TagFlag)
		if !ok {
			continue
		}

		flagDesc, _ := field.Tag(TagDesc)

		// writes flag value to variable
		flagset.Var(field, flagName, flagDesc)
	}

	var args []string
	if osArgs != nil {
		args = *osArgs
	} else {
		args = os.Args
	}

	// flags override .env variables
	err = flagset.Parse(args[1:])
	if err != nil {
		return lib.WrapError(ErrFlagParse, err)
	}

	if d, ok := cfg.(defaulter); ok {
		d.SetDefaults()
	}

	err = validator.New().Struct(cfg)
	if err != nil {
		return lib.WrapError(ErrConfigValidation, err)
	}

	return nil
}
