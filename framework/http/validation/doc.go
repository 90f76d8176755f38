// Package validation provides Laravel-style input validation for flat
// string maps such as query strings.
//
// # Basic Usage
//
//	v := validation.Make(req.All(), validation.Rules{
//	    "name":    "required|max:256",
//	    "factory": "sometimes|boolean",
//	})
//
//	if v.Fails() {
//	    res.ValidationError(v.Errors())
//	}
//
// # Available Rules
//
//   - required        field must be present and non-empty
//   - boolean         parseable by strconv.ParseBool
//   - min:n, max:n    length bounds in UTF-8 characters
//   - wildcard        no commas or control characters, so the value
//     survives a comma-separated pattern list
//   - sometimes       skips the remaining rules when the field is absent
//
// Fields are checked in sorted order and each stops at its first failure.
// An unknown rule name panics in Make. Errors serialise to the
// same JSON shape as Laravel's MessageBag:
//
//	{"errors": {"name": ["The name field is required."]}}
package validation
