package model

import "strings"

// Relationship tags carried on employee records
const (
	RelationshipDirect   = "Direct"
	RelationshipIndirect = "Indirect"
	RelationshipNone     = "None"
)

const (
	// UnknownValue replaces blank categorical fields (department, country, location...)
	UnknownValue = "Unknown"

	// NoRepresentative is the representative tag of a record nobody represents
	NoRepresentative = "No"
)

// Well-known keys of Employee.Extra
const (
	ExtraPhotoURL     = "photo_url"
	ExtraProfileURL   = "profile_url"
	ExtraLDAP         = "ldap"
	ExtraEmail        = "email"
	ExtraPhone        = "phone"
	ExtraHireDate     = "hire_date"
	ExtraEmployeeID   = "employee_id"
	ExtraManagerEmail = "manager_email"
)

// Employee is one row of the flat directory list
type Employee struct {
	Name           string `json:"name"`
	Position       string `json:"position"`
	Department     string `json:"department"`
	Country        string `json:"country"`
	Location       string `json:"location"`
	ManagerName    string `json:"manager_name"`   // Empty for roots
	Relationship   string `json:"relationship"`   // Direct, Indirect or None
	Representative string `json:"representative"` // Who represents this person, "No" if nobody

	// Opaque pass-through attributes (photo/profile URLs, ldap, phone...)
	Extra map[string]string `json:"extra,omitempty"`
}

// Normalize returns a cleaned copy of the record. Loading is permissive:
// blank categorical fields become "Unknown" instead of failing the record.
func (e Employee) Normalize() Employee {
	out := Employee{
		Name:           clean(e.Name),
		Position:       orUnknown(e.Position),
		Department:     orUnknown(e.Department),
		Country:        orUnknown(e.Country),
		Location:       NormalizeLocation(e.Location),
		ManagerName:    clean(e.ManagerName),
		Relationship:   clean(e.Relationship),
		Representative: clean(e.Representative),
	}
	if out.Relationship == "" {
		out.Relationship = RelationshipNone
	}
	if out.Representative == "" {
		out.Representative = NoRepresentative
	}
	if len(e.Extra) > 0 {
		out.Extra = make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			if v = clean(v); v != "" {
				out.Extra[k] = v
			}
		}
	}
	return out
}

// Attr returns a pass-through attribute, or "" when absent
func (e Employee) Attr(key string) string {
	if e.Extra == nil {
		return ""
	}
	return e.Extra[key]
}

// IsRoot reports whether the record names no manager at all
func (e Employee) IsRoot() bool {
	return strings.TrimSpace(e.ManagerName) == ""
}

// NormalizeName is the key used for case-insensitive name lookups
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeLocation maps a blank location to "Unknown"
func NormalizeLocation(s string) string {
	return orUnknown(s)
}

// IsBlank reports whether a raw cell value carries no data. Spreadsheet
// exports commonly spell missing values as nan/none/null.
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

func clean(s string) string {
	if IsBlank(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func orUnknown(s string) string {
	if s = clean(s); s == "" {
		return UnknownValue
	}
	return s
}
