package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Errors holds validation messages per field, serialised like Laravel's
// MessageBag: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs := e.Bag[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failing fields in sorted order.
func (e *Errors) Fields() []string {
	out := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Rules maps a field to a pipe-separated rule string.
//
//	validation.Rules{"name": "required|max:256", "factory": "sometimes|boolean"}
type Rules map[string]string

// check reports whether value satisfies a rule, and the message when it does not.
type check func(field, value, param string) (string, bool)

var checks = map[string]check{
	"required": func(field, value, _ string) (string, bool) {
		return fmt.Sprintf("The %s field is required.", field), strings.TrimSpace(value) != ""
	},
	"boolean": func(field, value, _ string) (string, bool) {
		_, err := strconv.ParseBool(value)
		return fmt.Sprintf("The %s field must be true or false.", field), err == nil
	},
	"min": func(field, value, param string) (string, bool) {
		n, _ := strconv.Atoi(param)
		return fmt.Sprintf("The %s must be at least %d characters.", field, n), utf8.RuneCountInString(value) >= n
	},
	"max": func(field, value, param string) (string, bool) {
		n, _ := strconv.Atoi(param)
		return fmt.Sprintf("The %s may not be greater than %d characters.", field, n), utf8.RuneCountInString(value) <= n
	},
	// wildcard accepts anything a comma-separated pattern list can carry.
	"wildcard": func(field, value, _ string) (string, bool) {
		ok := !strings.ContainsFunc(value, func(r rune) bool { return r == ',' || unicode.IsControl(r) })
		return fmt.Sprintf("The %s may not contain commas or control characters.", field), ok
	},
}

type rule struct {
	name  string
	param string
}

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	fields []string
	rules  map[string][]rule
	errors *Errors
}

// Make creates a new Validator, mirroring Validator::make($data, $rules).
// It panics on a rule name it does not know.
func Make(data map[string]string, rules Rules) *Validator {
	v := &Validator{
		data:   data,
		rules:  make(map[string][]rule, len(rules)),
		errors: &Errors{},
	}
	for field, set := range rules {
		v.fields = append(v.fields, field)
		v.rules[field] = parseRules(set)
	}
	sort.Strings(v.fields)
	return v
}

func parseRules(set string) []rule {
	var out []rule
	for _, s := range strings.Split(set, "|") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		// max:256 → name=max, param=256
		name, param, _ := strings.Cut(s, ":")
		if _, known := checks[name]; !known && name != "sometimes" {
			panic(fmt.Sprintf("validation: unknown rule %q", name))
		}
		out = append(out, rule{name: name, param: param})
	}
	return out
}

// Fails runs validation and returns true if any rule fails.
// Repeated calls re-run the rules against a fresh error bag.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

func (v *Validator) validate() {
	v.errors.Bag = nil
	for _, field := range v.fields {
		value := v.data[field]
		for _, r := range v.rules[field] {
			if r.name == "sometimes" {
				if value == "" {
					break
				}
				continue
			}
			// a field stops at its first failing rule
			if msg, ok := checks[r.name](field, value, r.param); !ok {
				v.errors.add(field, msg)
				break
			}
		}
	}
}
