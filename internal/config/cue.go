// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/spf13/viper"
)

// maxConfigFileSize bounds config reads before CUE parsing. A config file
// this large is a mistake, not a configuration.
const maxConfigFileSize = 1 << 20

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
//
// The config decodes to map[string]any rather than a struct because Viper
// owns the merge: defaults stay in place for absent keys and environment
// variables still override file values. Validation uses Concrete(false)
// because every config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > int(maxConfigFileSize) {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	ctx := cuecontext.New()

	// Compile the schema
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	// Compile the user's config file
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Unify with schema to validate against the #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	// Decode to Go map
	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError flattens a CUE error list into one message with key paths,
// in the form <file>: <key.path>: <message>.
func formatCUEError(err error, path string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}

	var lines []string
	for _, e := range cueErrs {
		keyPath := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		// CUE sometimes repeats the path inside the message; drop the duplicate.
		if keyPath != "" && strings.HasPrefix(msg, keyPath) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, keyPath), ":"))
		}
		if keyPath != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", keyPath, msg))
		} else {
			lines = append(lines, msg)
		}
	}

	return fmt.Errorf("%s: %s", path, strings.Join(lines, "; "))
}
