// internal/form/definition.go
//
// Onboard – web form: YAML definition loader.
//
// Context
//   The onboarding form's presentation (labels, input types, placeholders,
//   options, and HTML5 hints) is declared in YAML and embedded in the binary.
//   Business rules do NOT live here; the onboarding Schema is the single
//   authority on what is valid.  The YAML only decides how fields look.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef.
//   •  Parse decodes one document and validates structural rules, including
//      that every field name is a Candidate json name and every option of
//      the services field is a known offering.
//   •  Default returns the embedded onboarding form, parsed once.
//
//------------------------------------------------------------------------------

package form

import (
	_ "embed"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
)

//go:embed forms/onboarding.yaml
var onboardingYAML []byte

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
type FormDef struct {
	ID     string     `yaml:"id"`     // Identifier, e.g. “onboarding”.
	Title  string     `yaml:"title"`  // Page heading.
	Intro  string     `yaml:"intro"`  // Paragraph under the heading, optional.
	Submit string     `yaml:"submit"` // Submit button caption.
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef describes a single input control on the form.  The HTML5
// attributes are hints for the browser only.
type FieldDef struct {
	Name        string   `yaml:"name"`        // Candidate json name.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required.
	Type        string   `yaml:"type"`        // text, email, number, date, checkbox, checkboxes.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Help        string   `yaml:"help"`        // Optional hint under the input.
	Required    bool     `yaml:"required"`    // Adds the HTML required attribute.
	MinLength   int      `yaml:"minlength"`   // ≥ 0, 0 means unset.
	MaxLength   int      `yaml:"maxlength"`   // ≥ 0, 0 means unset.
	Min         string   `yaml:"min"`         // number/date; “today” for dates.
	Max         string   `yaml:"max"`         // number/date.
	Step        string   `yaml:"step"`        // number only.
	Pattern     string   `yaml:"pattern"`     // Regex pattern string.
	Options     []string `yaml:"options"`     // For checkboxes.
}

var fieldTypes = map[string]bool{
	"text":       true,
	"email":      true,
	"number":     true,
	"date":       true,
	"checkbox":   true,
	"checkboxes": true,
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

var (
	defaultOnce sync.Once
	defaultDef  *FormDef
	defaultErr  error
)

// Default returns the embedded onboarding form.
func Default() (*FormDef, error) {
	defaultOnce.Do(func() {
		defaultDef, defaultErr = Parse(onboardingYAML, "forms/onboarding.yaml")
	})
	return defaultDef, defaultErr
}

// Parse decodes raw, validates its structure, and returns a populated
// FormDef.  name only labels error messages.
func Parse(raw []byte, name string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", name, err)
	}
	if err := validateFormDef(&fd, name); err != nil {
		return nil, err
	}
	return &fd, nil
}

// Field returns the named field definition.
func (fd *FormDef) Field(name string) (FieldDef, bool) {
	for _, f := range fd.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.  It returns a descriptive error referencing the offending file.
func validateFormDef(fd *FormDef, path string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", path)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", path)
	}
	if fd.Submit == "" {
		fd.Submit = "Submit"
	}

	known := candidateFields()
	seen := make(map[string]struct{}, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, path); err != nil {
			return err
		}
		if !known[f.Name] {
			return fmt.Errorf("form %s: field '%s' is not an onboarding field", path, f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", path, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	if svc, ok := fd.Field("services"); ok {
		for _, opt := range svc.Options {
			if _, ok := onboarding.ParseService(opt); !ok {
				return fmt.Errorf("form %s: unknown service option '%s'", path, opt)
			}
		}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, path string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", path)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", path, f.Name)
	}
	if !fieldTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type '%s'", path, f.Name, f.Type)
	}
	if f.Type == "checkboxes" && len(f.Options) == 0 {
		return fmt.Errorf("form %s: field '%s' needs 'options'", path, f.Name)
	}

	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", path, f.Name, err)
		}
	}

	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", path, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", path, f.Name)
	}
	return nil
}

// candidateFields lists the json names of onboarding.Candidate.
func candidateFields() map[string]bool {
	t := reflect.TypeOf(onboarding.Candidate{})
	out := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			out[name] = true
		}
	}
	return out
}
