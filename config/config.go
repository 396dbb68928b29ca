// SPDX-License-Identifier: ice License 1.0

package config

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	applicationYAML = "application.yaml"
	dotEnvLookups   = 5
)

//nolint:gochecknoinits // Because we load the configs once, for the whole runtime
func init() {
	loadFirstApplicationConfigFile()
	dotEnvPath := `.env`
	for range dotEnvLookups {
		if err := godotenv.Load(dotEnvPath); err == nil {
			break
		}
		dotEnvPath = fmt.Sprintf(`../%v`, dotEnvPath)
	}
}

func MustLoadFromKey(key string, cfg any) {
	if err := LoadFromKey(key, cfg); err != nil {
		log.Panic(err)
	}
}

func LoadFromKey(key string, cfg any) error {
	return errors.Wrapf(viper.UnmarshalKey(key, cfg), "failed to load config by key %q", key)
}

// IsSet reports whether key is present in the loaded configuration, even with a zero value.
func IsSet(key string) bool {
	return viper.IsSet(key)
}

// EnvName turns an application yaml key into an environment variable prefix: `cmd/gate-otp` -> `CMD_GATE_OTP`.
func EnvName(applicationYAMLKey string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", "/", "_", ".", "_").Replace(applicationYAMLKey))
}

// LookupEnv prefers the variable namespaced by the application yaml key and falls back to the bare name.
func LookupEnv(applicationYAMLKey, name string) string {
	if val := os.Getenv(EnvName(applicationYAMLKey) + "_" + name); val != "" {
		return val
	}

	return os.Getenv(name)
}

func loadFirstApplicationConfigFile() {
	for _, f := range findAllApplicationConfigFiles() {
		viper.SetConfigFile(f)
		if err := viper.ReadInConfig(); err == nil {
			return
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Panic(err)
		}
	}

	log.Panic(errors.New("could not find any application.yaml files"))
}

func findAllApplicationConfigFiles() []string {
	var files []string
	var hints []string

	if p, err := os.Getwd(); err == nil {
		hints = append(hints, p)
	}
	if p, err := os.Executable(); err == nil {
		hints = append(hints, path.Dir(filepath.Join(p, "..")))
	}

	for _, dir := range hints {
		files = append(files, glob(filepath.Join(dir, ".testdata", applicationYAML))...)
		files = append(files, glob(filepath.Join(dir, applicationYAML))...)
	}
	//nolint:dogsled // Because those 3 blank identifiers are useless
	_, callerFile, _, _ := runtime.Caller(0)
	files = append(files, glob(filepath.Join(filepath.Dir(callerFile), "..", applicationYAML))...)
	files = append(files, glob(filepath.Join(filepath.Dir(callerFile), "..", "..", applicationYAML))...)

	return files
}

func glob(pattern string) []string {
	files, err := filepath.Glob(pattern)
	if err != nil {
		log.Println(errors.Wrapf(err, "glob failed for [%v]", pattern))
	}

	return files
}
