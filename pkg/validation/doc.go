// Package validation checks Spatial Service Record JSON against the SSR schema.
//
// # Overview
//
// Records are validated at the JSON level, before they are decoded into typed
// values, so missing fields can be told apart from zero values.
//
// # Validation Checks
//
// Required fields:
//   - SSR: id, type, services, geometry, provider, timestamp
//   - Service: id, type, title, url
//   - Property: type, value
//
// Structural rules:
//   - geometry.type must be a GeoJSON geometry type, and Polygon for an SSR
//   - coordinates are arrays of rings of numeric positions (2 or 3 values)
//   - bbox holds 4 or 6 numbers
//   - service urls are absolute URLs
//   - unknown service types are warnings unless EnforceServiceTypes is set
//
// # Usage Example
//
//	if err := validation.ValidateSSR(text, "record.json"); err != nil {
//		var schemaErr *validation.SchemaError
//		if errors.As(err, &schemaErr) && schemaErr.Result != nil {
//			for _, e := range schemaErr.Result.Errors {
//				fmt.Printf("[%s] %s: %s\n", e.Severity, e.Location, e.Message)
//			}
//		}
//	}
//
// # Related Packages
//
//   - pkg/ssr: Typed record definitions
//   - pkg/discovery: Validates files before posting them
package validation
