package csvio

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/colleges/internal/college"
)

func strPtr(s string) *string { return &s }

func sampleRecords() []college.Record {
	return []college.Record{
		{Name: "A", Country: "X", Domain: strPtr("a")},
		{Name: "B", Country: "Y"},
		{Name: "Universidad \"Nacional\", Sede Norte", Country: "Colombia", Domain: strPtr("unal")},
		{Name: "Line\nBreak College", Country: "", Domain: nil},
		{Name: "Université de Montréal", Country: "Canada", Domain: strPtr("umontreal")},
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{"name", "country", "domain"}, Header(false))
	assert.Equal(t, []string{"id", "name", "country", "domain"}, Header(true))
}

func TestProject_WithoutID(t *testing.T) {
	rows := Project(sampleRecords()[:2], false, nil)

	want := [][]string{
		{"name", "country", "domain"},
		{"A", "X", "a"},
		{"B", "Y", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Project() mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_WithID(t *testing.T) {
	ids := []uuid.UUID{
		uuid.MustParse("11111111-1111-4111-8111-111111111111"),
		uuid.MustParse("22222222-2222-4222-8222-222222222222"),
	}
	next := 0
	newID := func() uuid.UUID {
		id := ids[next]
		next++
		return id
	}

	rows := Project(sampleRecords()[:2], true, newID)

	want := [][]string{
		{"id", "name", "country", "domain"},
		{"11111111-1111-4111-8111-111111111111", "A", "X", "a"},
		{"22222222-2222-4222-8222-222222222222", "B", "Y", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Project() mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_IDsDistinct(t *testing.T) {
	records := make([]college.Record, 500)
	for i := range records {
		records[i] = college.Record{Name: "Same", Country: "Same"}
	}

	rows := Project(records, true, nil)

	seen := make(map[string]bool, len(records))
	for _, row := range rows[1:] {
		_, err := uuid.Parse(row[0])
		require.NoError(t, err, "id must be canonical uuid text")
		assert.False(t, seen[row[0]], "duplicate id %s", row[0])
		seen[row[0]] = true
	}
	assert.Len(t, seen, len(records))
}

func TestWrite_RoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Project(records, false, nil)))

	assert.NotContains(t, buf.String(), "None")
	assert.NotContains(t, buf.String(), "null")

	parsed, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, len(records)+1)

	got := parsed[1:]
	want := make([][]string, len(records))
	for i, rec := range records {
		want[i] = []string{rec.Name, rec.Country, rec.DomainText()}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_QuotesSpecialCharacters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, [][]string{{`a,b`, `say "hi"`, "x\ny"}}))

	assert.Equal(t, "\"a,b\",\"say \"\"hi\"\"\",\"x\r\ny\"\r\n", buf.String())
}

func TestExport_EndToEndScenario(t *testing.T) {
	in := `[{"name":"A","country":"X","web_pages":["http://www.a.edu"]}, {"name":"B","country":"Y","web_pages":[]}]`
	records, err := college.Decode(strings.NewReader(in))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "colleges_name_country_domain.csv")
	require.NoError(t, os.WriteFile(path, []byte("old,content\n"), 0o644))

	n, err := Export(college.Enrich(records), path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name,country,domain\r\nA,X,a\r\nB,Y,\r\n", string(data))
}

func TestExport_WithIDShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colleges_id_name_country_domain.csv")

	n, err := Export(sampleRecords(), path, true)
	require.NoError(t, err)
	assert.Equal(t, len(sampleRecords()), n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, Header(true), rows[0])
	for _, row := range rows[1:] {
		assert.Len(t, row, 4)
	}
}
