package spreadsheet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ritzau/org-directory/pkg/model"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseXLSX(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Full Name", "Job Title", "Dept", "Country", "City", "Reports To", "Email", "Start Date", "Favourite Color"},
		{"Sarah Williams", "CEO", "Executive", "USA", "New York", "", "sarah.w@example.com", 45292, "blue"},
		{"James Thompson", "CTO", "Engineering", "UK", "London", "Sarah Williams", "", "", "green"},
	})

	records, report, err := Parse(buf, "Profiles.xlsx", Options{ProfileBaseURL: "https://directory.example.com/", MailDomain: "example.com"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 2, report.Imported)
	require.Equal(t, "Full Name", report.Columns[FieldName])
	require.Equal(t, []string{"Favourite Color"}, report.IgnoredHeaders)

	sarah := records[0]
	require.Equal(t, "Sarah Williams", sarah.Name)
	require.Equal(t, "CEO", sarah.Position)
	require.Equal(t, "Executive", sarah.Department)
	require.Equal(t, "New York", sarah.Location)
	require.Equal(t, "", sarah.ManagerName)
	require.Equal(t, "sarah.w", sarah.Attr(model.ExtraLDAP))
	require.Equal(t, "2024-01-01", sarah.Attr(model.ExtraHireDate))
	require.Equal(t, "https://directory.example.com/person/sarah.w", sarah.Attr(model.ExtraProfileURL))
	require.Equal(t, "https://directory.example.com/photos/sarah.w.jpg", sarah.Attr(model.ExtraPhotoURL))

	james := records[1]
	require.Equal(t, "Sarah Williams", james.ManagerName)
	require.Equal(t, "james.thompson", james.Attr(model.ExtraLDAP))
	require.Equal(t, "sarah.williams@example.com", james.Attr(model.ExtraManagerEmail))
}

func TestParseCSV(t *testing.T) {
	data := "\xEF\xBB\xBFname,position,department,country,location_input,manager_name,relationship_with_qt,representative_from_qt\n" +
		"Hans Weber,Senior Backend Engineer,Engineering,Germany,Berlin,James Thompson,Indirect,Dennis\n" +
		",Ghost,,,,,,\n" +
		"\n" +
		"Anna Schmidt,nan,NULL,Germany,,Hans Weber,,\n"

	records, report, err := Parse(strings.NewReader(data), "export.csv", Options{})
	require.NoError(t, err)
	require.Equal(t, 3, report.Rows)
	require.Equal(t, 1, report.SkippedNoName)
	require.Len(t, records, 2)

	hans := records[0]
	require.Equal(t, "Berlin", hans.Location)
	require.Equal(t, "Indirect", hans.Relationship)
	require.Equal(t, "Dennis", hans.Representative)

	anna := records[1].Normalize()
	require.Equal(t, model.UnknownValue, anna.Position)
	require.Equal(t, model.UnknownValue, anna.Department)
	require.Equal(t, model.UnknownValue, anna.Location)
	require.Equal(t, "Hans Weber", anna.ManagerName)
	require.Equal(t, model.RelationshipNone, anna.Relationship)
}

func TestParseRequiresNameColumn(t *testing.T) {
	_, _, err := Parse(strings.NewReader("title,dept\nCEO,Exec\n"), "x.csv", Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no name column")
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, _, err := Parse(strings.NewReader("{}"), "people.json", Options{})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupported(t *testing.T) {
	require.True(t, Supported("Profiles.XLSX"))
	require.True(t, Supported("legacy.xls"))
	require.True(t, Supported("export.csv"))
	require.False(t, Supported("notes.txt"))
	require.False(t, Supported("noext"))
}

func TestNormalizeHeader(t *testing.T) {
	require.Equal(t, "manager name", normalizeHeader("  Manager_Name "))
	require.Equal(t, "e mail", normalizeHeader("E-Mail"))
	require.Equal(t, "job title", normalizeHeader("Job   Title"))
}

func TestLDAPFromName(t *testing.T) {
	require.Equal(t, "sarah.williams", LDAPFromName("Sarah Williams"))
	require.Equal(t, "joão.costa", LDAPFromName("João Maria Costa"))
	require.Equal(t, "cher", LDAPFromName("Cher"))
	require.Equal(t, "", LDAPFromName("  "))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "directory.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Manager\nA,\nB,A\n"), 0o644))

	src := NewFileSource(path, Options{})
	require.Equal(t, path, src.Location())

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "A", records[1].ManagerName)

	_, err = NewFileSource(filepath.Join(dir, "missing.csv"), Options{}).Load(context.Background())
	require.Error(t, err)
}
