package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"

	"github.com/openarcloud/ssd/pkg/ssr"
)

// Validator checks decoded JSON documents against the SSR schema
type Validator struct {
	config *ValidationConfig
}

// ValidationConfig defines validation rules
type ValidationConfig struct {
	// EnforceServiceTypes rejects service types outside ssr.AvailableServiceTypes.
	// When false an unknown type is only reported as a warning.
	EnforceServiceTypes bool
	// RequirePositionArity requires every position to hold 2 or 3 numbers
	RequirePositionArity bool
}

// DefaultValidationConfig returns default validation settings
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		EnforceServiceTypes:  false,
		RequirePositionArity: true,
	}
}

// NewValidator creates a new validator
func NewValidator(config *ValidationConfig) *Validator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &Validator{config: config}
}

// ValidationError represents a validation error
type ValidationError struct {
	Location string
	Rule     string
	Message  string
	Severity Severity
}

func (e *ValidationError) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// Severity indicates the severity of a validation error
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	return []string{"ERROR", "WARNING", "INFO"}[s]
}

// ValidationResult contains validation errors
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
	Valid    bool
}

// Validate checks a decoded JSON document (as produced by json.Unmarshal into
// an interface{}) against the SSR schema
func (v *Validator) Validate(doc interface{}) *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]*ValidationError, 0),
		Warnings: make([]*ValidationError, 0),
		Valid:    true,
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		result.addError("", "INVALID_TYPE", fmt.Sprintf("expected object, received %s", typeName(doc)))
		result.Valid = false
		return result
	}

	requireString(obj, "id", "", result)
	requireString(obj, "type", "", result)
	requireString(obj, "provider", "", result)
	optionalNumber(obj, "altitude", "", result)
	optionalBool(obj, "active", "", result)

	if ts, ok := requireNumber(obj, "timestamp", "", result); ok && ts != math.Trunc(ts) {
		result.addError("timestamp", "INVALID_TIMESTAMP",
			fmt.Sprintf("timestamp %v must be an integer number of milliseconds", ts))
	}

	if services, ok := requireArray(obj, "services", "", result); ok {
		for i, svc := range services {
			v.validateService(svc, fmt.Sprintf("services[%d]", i), result)
		}
	}

	if raw, present := obj["geometry"]; !present {
		result.addError("geometry", "REQUIRED_FIELD", "required")
	} else {
		v.validateGeometry(raw, "geometry", result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (v *Validator) validateService(raw interface{}, location string, result *ValidationResult) {
	svc, ok := raw.(map[string]interface{})
	if !ok {
		result.addError(location, "INVALID_TYPE", fmt.Sprintf("expected object, received %s", typeName(raw)))
		return
	}

	requireString(svc, "id", location, result)
	requireString(svc, "title", location, result)
	optionalString(svc, "description", location, result)

	if svcType, ok := requireString(svc, "type", location, result); ok {
		if _, known := ssr.ParseServiceType(svcType); !known {
			message := fmt.Sprintf("unknown service type %q (expected one of %v)", svcType, ssr.AvailableServiceTypes)
			if v.config.EnforceServiceTypes {
				result.addError(join(location, "type"), "UNKNOWN_SERVICE_TYPE", message)
			} else {
				result.addWarning(join(location, "type"), "UNKNOWN_SERVICE_TYPE", message)
			}
		}
	}

	if rawURL, ok := requireString(svc, "url", location, result); ok && !isValidURL(rawURL) {
		result.addError(join(location, "url"), "INVALID_URL", fmt.Sprintf("invalid url %q", rawURL))
	}

	if props, present := svc["properties"]; present {
		list, ok := props.([]interface{})
		if !ok {
			result.addError(join(location, "properties"), "INVALID_TYPE",
				fmt.Sprintf("expected array, received %s", typeName(props)))
			return
		}
		for i, p := range list {
			propLocation := fmt.Sprintf("%s.properties[%d]", location, i)
			prop, ok := p.(map[string]interface{})
			if !ok {
				result.addError(propLocation, "INVALID_TYPE", fmt.Sprintf("expected object, received %s", typeName(p)))
				continue
			}
			requireString(prop, "type", propLocation, result)
			requireString(prop, "value", propLocation, result)
		}
	}
}

func (v *Validator) validateGeometry(raw interface{}, location string, result *ValidationResult) {
	geometry, ok := raw.(map[string]interface{})
	if !ok {
		result.addError(location, "INVALID_TYPE", fmt.Sprintf("expected object, received %s", typeName(raw)))
		return
	}

	if geomType, ok := requireString(geometry, "type", location, result); ok {
		switch {
		case !ssr.IsGeometryType(geomType):
			result.addError(join(location, "type"), "INVALID_GEOMETRY_TYPE",
				fmt.Sprintf("unknown geometry type %q", geomType))
		case geomType != string(ssr.GeometryPolygon):
			result.addError(join(location, "type"), "INVALID_GEOMETRY_TYPE",
				fmt.Sprintf("geometry type must be %q, got %q", ssr.GeometryPolygon, geomType))
		}
	}

	if bbox, present := geometry["bbox"]; present {
		v.validateBBox(bbox, join(location, "bbox"), result)
	}

	rings, ok := requireArray(geometry, "coordinates", location, result)
	if !ok {
		return
	}
	for i, ring := range rings {
		ringLocation := fmt.Sprintf("%s.coordinates[%d]", location, i)
		positions, ok := ring.([]interface{})
		if !ok {
			result.addError(ringLocation, "INVALID_TYPE", fmt.Sprintf("expected array, received %s", typeName(ring)))
			continue
		}
		for j, pos := range positions {
			v.validatePosition(pos, fmt.Sprintf("%s[%d]", ringLocation, j), result)
		}
	}
}

func (v *Validator) validatePosition(raw interface{}, location string, result *ValidationResult) {
	values, ok := raw.([]interface{})
	if !ok {
		result.addError(location, "INVALID_TYPE", fmt.Sprintf("expected array, received %s", typeName(raw)))
		return
	}
	for i, value := range values {
		if _, ok := value.(float64); !ok {
			result.addError(fmt.Sprintf("%s[%d]", location, i), "INVALID_TYPE",
				fmt.Sprintf("expected number, received %s", typeName(value)))
		}
	}
	if v.config.RequirePositionArity && len(values) != 2 && len(values) != 3 {
		result.addError(location, "INVALID_POSITION",
			fmt.Sprintf("position must have 2 or 3 values, got %d", len(values)))
	}
}

func (v *Validator) validateBBox(raw interface{}, location string, result *ValidationResult) {
	values, ok := raw.([]interface{})
	if !ok {
		result.addError(location, "INVALID_TYPE", fmt.Sprintf("expected array, received %s", typeName(raw)))
		return
	}
	if len(values) != 4 && len(values) != 6 {
		result.addError(location, "INVALID_BBOX",
			fmt.Sprintf("bounding box must have 4 or 6 values, got %d", len(values)))
	}
	for i, value := range values {
		if _, ok := value.(float64); !ok {
			result.addError(fmt.Sprintf("%s[%d]", location, i), "INVALID_TYPE",
				fmt.Sprintf("expected number, received %s", typeName(value)))
		}
	}
}

func (r *ValidationResult) addError(location, rule, message string) {
	r.Errors = append(r.Errors, &ValidationError{
		Location: location,
		Rule:     rule,
		Message:  message,
		Severity: SeverityError,
	})
}

func (r *ValidationResult) addWarning(location, rule, message string) {
	r.Warnings = append(r.Warnings, &ValidationError{
		Location: location,
		Rule:     rule,
		Message:  message,
		Severity: SeverityWarning,
	})
}

// Field helpers

func requireString(obj map[string]interface{}, key, parent string, result *ValidationResult) (string, bool) {
	raw, present := obj[key]
	if !present {
		result.addError(join(parent, key), "REQUIRED_FIELD", "required")
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		result.addError(join(parent, key), "INVALID_TYPE", fmt.Sprintf("expected string, received %s", typeName(raw)))
		return "", false
	}
	return s, true
}

func optionalString(obj map[string]interface{}, key, parent string, result *ValidationResult) {
	if raw, present := obj[key]; present {
		if _, ok := raw.(string); !ok {
			result.addError(join(parent, key), "INVALID_TYPE", fmt.Sprintf("expected string, received %s", typeName(raw)))
		}
	}
}

func requireNumber(obj map[string]interface{}, key, parent string, result *ValidationResult) (float64, bool) {
	raw, present := obj[key]
	if !present {
		result.addError(join(parent, key), "REQUIRED_FIELD", "required")
		return 0, false
	}
	n, ok := raw.(float64)
	if !ok {
		result.addError(join(parent, key), "INVALID_TYPE", fmt.Sprintf("expected number, received %s", typeName(raw)))
		return 0, false
	}
	return n, true
}

func optionalNumber(obj map[string]interface{}, key, parent string, result *ValidationResult) {
	if raw, present := obj[key]; present {
		if _, ok := raw.(float64); !ok {
			result.addError(join(parent, key), "INVALID_TYPE", fmt.Sprintf("expected number, received %s", typeName(raw)))
		}
	}
}

func optionalBool(obj map[string]interface{}, key, parent string, result *ValidationResult) {
	if raw, present := obj[key]; present {
		if _, ok := raw.(bool); !ok {
			result.addError(join(parent, key), "INVALID_TYPE", fmt.Sprintf("expected boolean, received %s", typeName(raw)))
		}
	}
}

func requireArray(obj map[string]interface{}, key, parent string, result *ValidationResult) ([]interface{}, bool) {
	raw, present := obj[key]
	if !present {
		result.addError(join(parent, key), "REQUIRED_FIELD", "required")
		return nil, false
	}
	list, ok := raw.([]interface{})
	if !ok {
		result.addError(join(parent, key), "INVALID_TYPE", fmt.Sprintf("expected array, received %s", typeName(raw)))
		return nil, false
	}
	return list, true
}

// isValidURL accepts absolute URLs with a scheme, like the WHATWG URL parser
func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "" || u.Path != "")
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
