package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"course_id", "course_name"},
		Rows: []map[string]string{
			{"course_id": "CENG201", "course_name": "Data Structures"},
			{"course_id": "CENG301"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "course_id,course_name\nCENG201,Data Structures\nCENG301,\n", string(out))
}

func TestCSVExporterExcelCompatible(t *testing.T) {
	exporter := NewCSVExporter()
	exporter.ExcelCompatible = true
	out, err := exporter.Render(Dataset{
		Headers: []string{"course_name"},
		Rows:    []map[string]string{{"course_name": "Veri Yapıları"}},
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	require.Contains(t, string(out), "Veri Yapıları")
}

func TestCSVExporterCustomDelimiter(t *testing.T) {
	exporter := NewCSVExporter()
	exporter.Comma = ';'
	out, err := exporter.Render(Dataset{
		Headers: []string{"a", "b"},
		Rows:    []map[string]string{{"a": "1", "b": "2"}},
	})
	require.NoError(t, err)
	require.Equal(t, "a;b\n1;2\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
