package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path into conf.
//
// Unknown fields are rejected so typos in the file are reported rather than
// silently ignored. If expandEnv is set, references to ${VAR} or $VAR are
// replaced with the corresponding environment variable before parsing, where
// ${VAR:default} falls back to 'default' when VAR is unset.
func Load(conf any, path string, expandEnv bool) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %s: %w", path, err)
	}

	if expandEnv {
		buf = []byte(os.Expand(string(buf), lookupEnv))
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)

	if err := dec.Decode(conf); err != nil {
		return fmt.Errorf("parse config: %s: %w", path, err)
	}

	return nil
}

func lookupEnv(s string) string {
	name, def, hasDefault := strings.Cut(s, ":")
	v, ok := os.LookupEnv(name)
	if !ok && hasDefault {
		return def
	}
	return v
}
