// Package secret provides an opaque wrapper for sensitive string values
// (API keys, tokens) that resists accidental disclosure through logging
// or debug printing.
package secret

// String holds a sensitive value. Its zero value is an absent secret.
// Formatting a String never reveals the underlying value; callers must
// call Expose to read it.
type String struct {
	value string
	set   bool
}

// New wraps value as a secret. An empty value is treated as absent by
// callers checking Set(), mirroring the source's "empty env var means
// no key" convention.
func New(value string) String {
	return String{value: value, set: value != ""}
}

// Set reports whether the secret carries a non-empty value.
func (s String) Set() bool {
	return s.set
}

// Expose returns the underlying value. This is the only way to read it.
func (s String) Expose() string {
	return s.value
}

// String implements fmt.Stringer, always redacting the value.
func (s String) String() string {
	return "***"
}

// GoString implements fmt.GoStringer, redacting the value in %#v output.
func (s String) GoString() string {
	return "secret.String(***)"
}
