// Package config loads fswatch configuration from a jsonnet file.
package config

import (
	"encoding/json"
	stdErrors "errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/go-jsonnet"
	"github.com/google/go-jsonnet/ast"
	"github.com/joho/godotenv"
	"github.com/rprtr258/fun"
	"github.com/spf13/afero"

	"github.com/rprtr258/fswatch/internal/errors"
)

const Version = "0.1.0"

var (
	ErrConfigNotExists = stdErrors.New("config file not exists")

	// DefaultPath is where the CLI looks for a config unless told otherwise.
	DefaultPath = filepath.Join(xdg.ConfigHome, "fswatch", "config.jsonnet")
)

type Config struct {
	Debug bool
	// MaxRetries bounds per-path watch re-establishment attempts.
	MaxRetries uint
	// PollInterval drives the periodic verification sweep, 0 disables it.
	PollInterval time.Duration
}

var Default = Config{
	Debug:        false,
	MaxRetries:   5,
	PollInterval: 0,
}

func newVM() *jsonnet.VM {
	vm := jsonnet.MakeVM()
	vm.ExtVar("now", time.Now().Format("15:04:05"))
	vm.NativeFunction(&jsonnet.NativeFunction{
		Name: "dotenv",
		Func: func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errors.New("wrong number of arguments")
			}

			filename, ok := args[0].(string)
			if !ok {
				return nil, errors.Newf("filename must be a string, got %v", args[0])
			}

			env, errRead := godotenv.Read(filename)
			if errRead != nil {
				return nil, errors.Wrapf(errRead, "read env file %s", filename)
			}

			res := make(map[string]any, len(env))
			for k, v := range env {
				res[k] = v
			}
			return res, nil
		},
		Params: ast.Identifiers{"filename"},
	})
	return vm
}

// Read loads and evaluates the jsonnet config at filename. A missing
// file yields ErrConfigNotExists; callers fall back to Default then.
func Read(fsys afero.Fs, filename string) (Config, error) {
	data, errRead := afero.ReadFile(fsys, filename)
	if errRead != nil {
		if stdErrors.Is(errRead, fs.ErrNotExist) {
			return Default, ErrConfigNotExists
		}
		return fun.Zero[Config](), errors.Wrapf(errRead, "read config file %s", filename)
	}

	jsonText, errEval := newVM().EvaluateAnonymousSnippet(filename, string(data))
	if errEval != nil {
		return fun.Zero[Config](), errors.Wrap(errEval, "evaluate config jsonnet")
	}

	type configScanDTO struct {
		Debug        *bool   `json:"debug"`
		MaxRetries   *uint   `json:"max_retries"`
		PollInterval *string `json:"poll_interval"`
	}
	var scanned configScanDTO
	if errUnmarshal := json.Unmarshal([]byte(jsonText), &scanned); errUnmarshal != nil {
		return fun.Zero[Config](), errors.Wrap(errUnmarshal, "unmarshal config json")
	}

	res := Default
	if scanned.Debug != nil {
		res.Debug = *scanned.Debug
	}
	if scanned.MaxRetries != nil {
		res.MaxRetries = *scanned.MaxRetries
	}
	if scanned.PollInterval != nil {
		interval, errParse := time.ParseDuration(*scanned.PollInterval)
		if errParse != nil {
			return fun.Zero[Config](), errors.Wrapf(errParse, "parse poll_interval %q", *scanned.PollInterval)
		}
		res.PollInterval = interval
	}
	return res, nil
}
