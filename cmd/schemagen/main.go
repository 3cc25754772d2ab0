// schemagen regenerates the JSON schemas under schemas/. The config
// schema is reflected from the config structs; the anim set schema is
// republished from the copy embedded in pkg/turn.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/Faultbox/pivot/internal/config"
	"github.com/Faultbox/pivot/pkg/turn"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "dir", "schemas", "directory to write schemas into")
	flag.Parse()

	data, err := json.MarshalIndent(buildConfigSchema(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config schema: %v\n", err)
		os.Exit(1)
	}
	if err := writeSchema(filepath.Join(outDir, "config.schema.json"), data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write config schema: %v\n", err)
		os.Exit(1)
	}

	if err := writeSchema(filepath.Join(outDir, "animset.schema.json"), []byte(turn.AnimSetSchema())); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write anim set schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s\n", outDir)
}

func buildConfigSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		Mapper:                     mapType,
	}
	schema := reflector.Reflect(&config.Config{})
	schema.Version = jsonschema.Version
	schema.ID = ""
	schema.Title = "Pivot Daemon Config"
	schema.Description = "Validates pivot daemon configuration files."
	return schema
}

// mapType renders durations the way the yaml loader accepts them, as
// strings like "10s", "1m30s", or "1.5s" rather than raw nanosecond
// integers.
func mapType(t reflect.Type) *jsonschema.Schema {
	if t == reflect.TypeOf(time.Duration(0)) {
		return &jsonschema.Schema{
			Type:    "string",
			Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		}
	}
	return nil
}

func writeSchema(outPath string, data []byte) error {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
