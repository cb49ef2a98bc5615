// Package validation checks config sections and API request bodies.
//
// Struct tag validation runs go-playground/validator and reports every
// failing field in one INVALID_INPUT error:
//
//	type scoreRequest struct {
//	    Reference  string `json:"reference" validate:"required"`
//	    Hypothesis string `json:"hypothesis"`
//	}
//	err := validation.Validate(req)
//
// The programmatic Validator covers values that do not live in a struct,
// such as path parameters:
//
//	err := validation.New().RequiredUUID("id", c.Param("id")).Validate()
package validation
