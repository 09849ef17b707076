package location

import (
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidHostname means the hostname does not carry a location code.
var ErrInvalidHostname = fmt.Errorf("hostname does not match location naming convention")

const codePlaceholder = "{code}"

// NamedPath is one entry of an address set, kept with its role name so
// validation failures can say which path was missing.
type NamedPath struct {
	Name string
	Path string
}

// AddressSet is the full source/destination path set for one location.
type AddressSet struct {
	SourceShare   string
	SourceProfile string
	DestShare     string
	DestProfile   string
}

func (a AddressSet) Named() []NamedPath {
	return []NamedPath{
		{Name: "source_share", Path: a.SourceShare},
		{Name: "source_profile", Path: a.SourceProfile},
		{Name: "dest_share", Path: a.DestShare},
		{Name: "dest_profile", Path: a.DestProfile},
	}
}

// Identity is derived once per run and never mutated afterwards.
type Identity struct {
	Code      string
	Hostname  string
	Addresses AddressSet
}

// Templates are the configured path patterns; every occurrence of {code}
// is replaced with the location code.
type Templates struct {
	SourceShare   string
	SourceProfile string
	DestShare     string
	DestProfile   string
}

type Resolver struct {
	templates Templates
}

func NewResolver(templates Templates) *Resolver {
	return &Resolver{templates: templates}
}

// Resolve extracts the two-digit location code from the hostname and expands
// the address set. Pure; no filesystem access happens here.
func (r *Resolver) Resolve(hostname string) (Identity, error) {
	code, err := ExtractCode(hostname)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		Code:     code,
		Hostname: hostname,
		Addresses: AddressSet{
			SourceShare:   expand(r.templates.SourceShare, code),
			SourceProfile: expand(r.templates.SourceProfile, code),
			DestShare:     expand(r.templates.DestShare, code),
			DestProfile:   expand(r.templates.DestProfile, code),
		},
	}, nil
}

// ExtractCode returns the leading two-digit location code of a hostname.
func ExtractCode(hostname string) (string, error) {
	if len(hostname) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
	}

	for _, r := range hostname[:2] {
		if !unicode.IsDigit(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
		}
	}

	return hostname[:2], nil
}

func expand(template, code string) string {
	return strings.ReplaceAll(template, codePlaceholder, code)
}
