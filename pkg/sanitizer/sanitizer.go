// Package sanitizer normalizes listing and booking input before validation
// and storage.
//
// All functions are idempotent and handle invalid input by returning empty
// strings or empty slices rather than errors.
package sanitizer

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}
