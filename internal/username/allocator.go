// Package username validates requested display names and hands out unique
// names, appending a "(n)" suffix when the base name is already in use.
package username

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// ErrUnknownName is returned when releasing a name that has no record.
var ErrUnknownName = errors.New("unknown username")

const illegalChars = `:(){}<>\/`

const (
	reasonBlank    = "must contain at least one non-whitespace character"
	reasonReserved = "reserved name"
)

var reservedNames = map[string]struct{}{
	"null":      {},
	"undefined": {},
}

// DeniedError lists every rule a requested name violated.
type DeniedError struct {
	Reasons []string
}

func (e *DeniedError) Error() string {
	return "username denied: " + strings.Join(e.Reasons, "; ")
}

// record tracks one base name. lifetime counts the suffixed names issued
// since the base was first claimed; the bare holder does not consume one.
type record struct {
	active   int
	lifetime int
}

// Allocator tracks which base names are in use. It is not safe for
// concurrent use.
type Allocator struct {
	records map[string]*record
}

// NewAllocator creates an allocator with no names in use.
func NewAllocator() *Allocator {
	return &Allocator{
		records: make(map[string]*record),
	}
}

// Validate returns every reason the requested name cannot be used, or nil.
func Validate(requested string) []string {
	var reasons []string

	for _, c := range illegalChars {
		if strings.ContainsRune(requested, c) {
			reasons = append(reasons, fmt.Sprintf("invalid character %q", string(c)))
		}
	}

	trimmed := strings.TrimSpace(requested)
	if trimmed == "" {
		reasons = append(reasons, reasonBlank)
		return reasons
	}

	if _, reserved := reservedNames[fold(trimmed)]; reserved {
		reasons = append(reasons, reasonReserved)
	}

	return reasons
}

// Claim validates the requested name and assigns a unique display name.
// The first holder of a base name gets it unchanged; later holders get
// base(n) where n is never reused while the base has any active holder.
func (a *Allocator) Claim(requested string) (string, error) {
	if reasons := Validate(requested); len(reasons) > 0 {
		return "", &DeniedError{Reasons: reasons}
	}

	base := fold(strings.TrimSpace(requested))
	rec, exists := a.records[base]
	if !exists {
		a.records[base] = &record{active: 1}
		return base, nil
	}

	rec.active++
	rec.lifetime++
	return base + "(" + strconv.Itoa(rec.lifetime) + ")", nil
}

// Release gives back a name previously returned by Claim. When the last
// holder of a base leaves, the base is forgotten entirely.
func (a *Allocator) Release(assigned string) error {
	base := Base(assigned)
	rec, exists := a.records[base]
	if !exists {
		return fmt.Errorf("release %q: %w", assigned, ErrUnknownName)
	}

	rec.active--
	if rec.active <= 0 {
		delete(a.records, base)
	}
	return nil
}

// Active returns the number of current holders of a base name.
func (a *Allocator) Active(base string) int {
	if rec, exists := a.records[fold(base)]; exists {
		return rec.active
	}
	return 0
}

// Len returns the number of base names with at least one holder.
func (a *Allocator) Len() int {
	return len(a.records)
}

// Base strips a "(n)" disambiguation suffix from an assigned name.
func Base(assigned string) string {
	if i := strings.IndexByte(assigned, '('); i >= 0 {
		return assigned[:i]
	}
	return assigned
}

func fold(s string) string {
	return cases.Fold().String(s)
}
