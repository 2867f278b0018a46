package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"keycast/internal/combo"
	"keycast/internal/layout"
	"keycast/internal/logging"
	"keycast/internal/tracker"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// IsWarning reports whether the issue is non-fatal.
func (e *ValidationError) IsWarning() bool {
	// A configured device may be plugged in later.
	return e.Field == "input.device"
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// ErrInvalidConfig is matched by errors.Is on any validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}

// ValidateConfig checks value ranges and names. Warnings alone do not fail
// validation; use ValidateConfigAll to see them.
func ValidateConfig(c *Config) error {
	errs := ValidateConfigAll(c).Errors()
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateConfigAll returns every issue found in c, warnings included.
func ValidateConfigAll(c *Config) ValidationErrors {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	if n := c.History.Capacity; n < 1 || n > combo.MaxCapacity {
		errs = append(errs, RangeError("history.capacity", 1, combo.MaxCapacity))
	}

	errs = append(errs, validateFade(&c.Fade)...)
	errs = append(errs, validateOverlay(&c.Overlay)...)
	errs = append(errs, validateInput(c)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	return errs
}

func validateFade(f *FadeConfig) ValidationErrors {
	var errs ValidationErrors
	if f.DurationMs < 1 || f.DurationMs > 60000 {
		errs = append(errs, RangeError("fade.duration_ms", 1, 60000))
	}
	if f.TickMs < 1 || f.TickMs > 1000 {
		errs = append(errs, RangeError("fade.tick_ms", 1, 1000))
	}
	return errs
}

func validateOverlay(o *OverlayConfig) ValidationErrors {
	var errs ValidationErrors
	if _, err := layout.ParseJustify(o.Justify); err != nil {
		errs = append(errs, ValidationError{Field: "overlay.justify", Message: err.Error()})
	}

	nonNegative := []struct {
		field string
		v     int
	}{
		{"overlay.offset_x", o.OffsetX},
		{"overlay.offset_bottom", o.OffsetBottom},
		{"overlay.padding", o.Padding},
		{"overlay.combo_spacing", o.ComboSpacing},
		{"overlay.label_spacing", o.LabelSpacing},
		{"overlay.label_gap", o.LabelGap},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			errs = append(errs, ValidationError{Field: f.field, Message: "must not be negative"})
		}
	}

	positive := []struct {
		field string
		v     int
	}{
		{"overlay.glyph_size", o.GlyphSize},
		{"overlay.label_size", o.LabelSize},
		{"overlay.width", o.Width},
		{"overlay.height", o.Height},
	}
	for _, f := range positive {
		if f.v <= 0 {
			errs = append(errs, ValidationError{Field: f.field, Message: "must be positive"})
		}
	}
	return errs
}

func validateInput(c *Config) ValidationErrors {
	var errs ValidationErrors
	if _, err := tracker.ParseSampling(c.Input.ModifierSampling); err != nil {
		errs = append(errs, ValidationError{Field: "input.modifier_sampling", Message: err.Error()})
	}
	if _, err := c.ToggleKey(); err != nil {
		errs = append(errs, ValidationError{Field: "input.toggle_key", Message: err.Error()})
	}
	if d := c.Input.Device; d != "" {
		if _, err := os.Stat(d); err != nil {
			errs = append(errs, ValidationError{Field: "input.device", Message: fmt.Sprintf("device not found: %s", d)})
		}
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	if _, err := logging.ParseLevel(l.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(l.Format); err != nil {
		errs = append(errs, ValidationError{Field: "logging.format", Message: err.Error()})
	}
	switch strings.ToLower(l.Output) {
	case "", "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{Field: "logging.file_path", Message: "required when output includes a file"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q (stdout, stderr, file, both)", l.Output),
		})
	}
	if l.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_size_mb", Message: "must not be negative"})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_backups", Message: "must not be negative"})
	}
	return errs
}

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "keycast-config.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Schema returns the JSON schema config files are checked against.
func Schema() []byte {
	return schemaJSON
}

// ValidateDocument checks a raw config file against the schema. Unlike
// ValidateConfig it sees unknown keys and values of the wrong type. The
// format is "toml", "json" or "yaml"; empty picks by trying each.
func ValidateDocument(data []byte, format string) error {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return err
	}
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(doc)
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		var errs ValidationErrors
		flattenSchemaError(ve, &errs)
		return errs
	}
	return err
}

// ValidateFile runs ValidateDocument on path, picking the format from its
// extension.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch format {
	case "toml", "json", "yaml", "yml":
	default:
		format = ""
	}
	return ValidateDocument(data, format)
}

// decodeDocument decodes data into generic values and round-trips them
// through JSON, so the validator sees JSON types whatever the source format.
func decodeDocument(data []byte, format string) (any, error) {
	var raw any
	var err error
	switch format {
	case "toml":
		raw, err = decodeTOMLDocument(data)
	case "json":
		err = json.Unmarshal(data, &raw)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &raw)
	case "":
		if raw, err = decodeTOMLDocument(data); err != nil {
			if err = json.Unmarshal(data, &raw); err != nil {
				err = yaml.Unmarshal(data, &raw)
			}
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	return doc, nil
}

func decodeTOMLDocument(data []byte) (any, error) {
	m := map[string]any{}
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// flattenSchemaError collects the leaf causes of a schema failure as
// dotted field paths.
func flattenSchemaError(ve *jsonschema.ValidationError, out *ValidationErrors) {
	if len(ve.Causes) == 0 {
		field := strings.ReplaceAll(strings.TrimPrefix(ve.InstanceLocation, "/"), "/", ".")
		if field == "" {
			field = "(root)"
		}
		*out = append(*out, ValidationError{Field: field, Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		flattenSchemaError(c, out)
	}
}
