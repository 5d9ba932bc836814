package nsdf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProperties(t *testing.T) {
	want := time.Date(2024, 4, 9, 18, 56, 53, 0, time.UTC)

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "props.toml",
			content: `title = "Purkinje cell model"
creator = ["Jane Doe", "John Roe"]
software = ["moose"]
license = "CC-BY-4.0"
tstart = 2024-04-09T18:56:53Z
`,
		},
		{
			name: "yaml",
			file: "props.yml",
			content: `title: Purkinje cell model
creator: [Jane Doe, John Roe]
software: [moose]
license: CC-BY-4.0
tstart: 2024-04-09T18:56:53Z
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LoadProperties(writeTemp(t, tt.file, tt.content))
			require.NoError(t, err)
			require.Equal(t, "Purkinje cell model", p.Title)
			require.Equal(t, []string{"Jane Doe", "John Roe"}, p.Creator)
			require.Equal(t, []string{"moose"}, p.Software)
			require.Equal(t, "CC-BY-4.0", p.License)
			require.True(t, want.Equal(p.TStart), "tstart = %v", p.TStart)
			require.True(t, p.TEnd.IsZero())
		})
	}
}

func TestLoadPropertiesErrors(t *testing.T) {
	_, err := LoadProperties(writeTemp(t, "props.json", `{}`))
	require.ErrorIs(t, err, ErrValidation)

	_, err = LoadProperties(writeTemp(t, "bad.toml", `title = `))
	require.ErrorIs(t, err, ErrValidation)

	_, err = LoadProperties(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPropertiesAttrsSkipZero(t *testing.T) {
	p := Properties{Title: "t", Method: []string{"rk4"}}
	require.Equal(t, map[string]any{
		attrTitle:  "t",
		attrMethod: []string{"rk4"},
	}, p.attrs())
}
