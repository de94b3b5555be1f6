// Package validator provides small composable validation rules used for
// signup and login form fields.
//
//	err := validator.Apply(
//	    validator.Required("email", email),
//	    validator.ValidEmail("email", email),
//	    validator.MinLen("password", password, 8),
//	)
//
// Apply returns ValidationErrors, which callers can match with errors.As or
// the IsValidationError helper and map back to form fields via Has.
package validator
