// Package spreadsheet imports directory exports (xlsx, xls, csv) with a
// forgiving column mapping.
package spreadsheet

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ritzau/org-directory/pkg/model"
)

// Column fields recognized in a header row
const (
	FieldName           = "name"
	FieldPosition       = "position"
	FieldDepartment     = "department"
	FieldCountry        = "country"
	FieldLocation       = "location"
	FieldManager        = "manager"
	FieldRelationship   = "relationship"
	FieldRepresentative = "representative"
)

// aliases maps each field to the header spellings seen in the wild, in
// preference order. Headers are compared after normalizeHeader.
var aliases = map[string][]string{
	FieldName:               {"name", "full name", "employee name"},
	FieldPosition:           {"position", "title", "job title", "role"},
	FieldDepartment:         {"department", "dept", "division", "team"},
	FieldCountry:            {"country", "nation"},
	FieldLocation:           {"location", "city", "office", "site", "location input"},
	FieldManager:            {"manager", "manager name", "reports to", "manager name input"},
	FieldRelationship:       {"relationship", "relationship with qt"},
	FieldRepresentative:     {"representative", "representative from qt"},
	model.ExtraLDAP:         {"ldap", "username", "login"},
	model.ExtraEmail:        {"email", "e mail", "mail"},
	model.ExtraPhone:        {"phone", "mobile", "contact", "phone number"},
	model.ExtraHireDate:     {"hire date", "start date", "join date"},
	model.ExtraEmployeeID:   {"id", "employee id", "empid"},
	model.ExtraPhotoURL:     {"photo", "photo url", "moma photo url"},
	model.ExtraProfileURL:   {"profile", "profile url", "moma url"},
	model.ExtraManagerEmail: {"manager email"},
}

// Options controls derived attributes
type Options struct {
	ProfileBaseURL string // Generates profile and photo URLs from the ldap when set
	MailDomain     string // Generates manager emails when set
}

// Report summarizes an import
type Report struct {
	Rows           int               `json:"rows"`            // Data rows, header excluded
	Imported       int               `json:"imported"`        // Rows that became records
	SkippedNoName  int               `json:"skipped_no_name"` // Rows without a name
	Columns        map[string]string `json:"columns"`         // Field -> header it was read from
	IgnoredHeaders []string          `json:"ignored_headers"` // Headers matching no field
}

// Parse reads a spreadsheet and maps its rows to employees
func Parse(r io.Reader, filename string, opts Options) ([]model.Employee, Report, error) {
	rows, err := ReadRows(r, filename)
	if err != nil {
		return nil, Report{}, err
	}
	return MapRows(rows, opts)
}

// MapRows maps a header row plus data rows to employees. Only the name
// column is required; blank cells are left empty for Normalize to fill.
func MapRows(rows [][]string, opts Options) ([]model.Employee, Report, error) {
	report := Report{Columns: make(map[string]string)}
	if len(rows) == 0 {
		return nil, report, fmt.Errorf("missing header")
	}

	header := rows[0]
	index := headerIndex(header)

	columns := make(map[string]int)
	used := make(map[int]bool)
	for field, names := range aliases {
		for _, alias := range names {
			if i, ok := index[alias]; ok {
				columns[field] = i
				used[i] = true
				report.Columns[field] = strings.TrimSpace(header[i])
				break
			}
		}
	}
	if _, ok := columns[FieldName]; !ok {
		return nil, report, fmt.Errorf("no name column among headers %q", header)
	}
	for i, h := range header {
		if !used[i] && strings.TrimSpace(h) != "" {
			report.IgnoredHeaders = append(report.IgnoredHeaders, strings.TrimSpace(h))
		}
	}

	cell := func(row []string, field string) string {
		i, ok := columns[field]
		if !ok {
			return ""
		}
		v := cellValue(row, i)
		if model.IsBlank(v) {
			return ""
		}
		return v
	}

	extraFields := make([]string, 0)
	for field := range columns {
		if !isCoreField(field) {
			extraFields = append(extraFields, field)
		}
	}
	sort.Strings(extraFields)

	records := make([]model.Employee, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		report.Rows++

		name := cell(row, FieldName)
		if name == "" {
			report.SkippedNoName++
			continue
		}

		e := model.Employee{
			Name:           name,
			Position:       cell(row, FieldPosition),
			Department:     cell(row, FieldDepartment),
			Country:        cell(row, FieldCountry),
			Location:       cell(row, FieldLocation),
			ManagerName:    cell(row, FieldManager),
			Relationship:   cell(row, FieldRelationship),
			Representative: cell(row, FieldRepresentative),
			Extra:          make(map[string]string),
		}
		for _, field := range extraFields {
			if v := cell(row, field); v != "" {
				e.Extra[field] = v
			}
		}
		if d, ok := e.Extra[model.ExtraHireDate]; ok {
			e.Extra[model.ExtraHireDate] = normalizeDate(d)
		}

		enrich(&e, opts)
		records = append(records, e)
	}

	report.Imported = len(records)
	return records, report, nil
}

func isCoreField(field string) bool {
	switch field {
	case FieldName, FieldPosition, FieldDepartment, FieldCountry, FieldLocation,
		FieldManager, FieldRelationship, FieldRepresentative:
		return true
	}
	return false
}

// enrich fills attributes that can be derived from others
func enrich(e *model.Employee, opts Options) {
	ldap := e.Extra[model.ExtraLDAP]
	if ldap == "" {
		if email := e.Extra[model.ExtraEmail]; strings.Contains(email, "@") {
			ldap = strings.ToLower(email[:strings.Index(email, "@")])
		} else {
			ldap = LDAPFromName(e.Name)
		}
		e.Extra[model.ExtraLDAP] = ldap
	}

	if base := strings.TrimRight(opts.ProfileBaseURL, "/"); base != "" {
		if e.Extra[model.ExtraProfileURL] == "" {
			e.Extra[model.ExtraProfileURL] = base + "/person/" + ldap
		}
		if e.Extra[model.ExtraPhotoURL] == "" {
			e.Extra[model.ExtraPhotoURL] = base + "/photos/" + ldap + ".jpg"
		}
	}

	if opts.MailDomain != "" && e.ManagerName != "" && e.Extra[model.ExtraManagerEmail] == "" {
		local := strings.ReplaceAll(strings.ToLower(e.ManagerName), " ", ".")
		e.Extra[model.ExtraManagerEmail] = local + "@" + opts.MailDomain
	}
}

// LDAPFromName derives a login as first.last from a display name
func LDAPFromName(name string) string {
	parts := strings.Fields(strings.ToLower(name))
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0] + "." + parts[len(parts)-1]
}

// normalizeDate turns an Excel date serial into YYYY-MM-DD; anything else is kept
func normalizeDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial < 1 || serial > 2958465 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, exists := m[key]; !exists && key != "" {
			m[key] = i
		}
	}
	return m
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
