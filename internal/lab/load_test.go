package lab

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeLab materializes a lab source dir from a map of relative path to
// content. The metadata file goes in the map like any other file.
func writeLab(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestLoad_ParsesFullMetadata(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := writeLab(t, map[string]string{
		"lab.hcl": `
lab {
  destination = "Lab1"
  exclude     = ["carol"]

  readonly = ["spec.pdf", "tests/expected.txt"]
  writable = ["main.c", "Makefile"]
  shared   = ["notes.pdf"]
  ignore   = ["*.out"]

  override "dave" {
    destination = "Lab1-retake"
  }

  generate "token.txt" {
    content = "id=${student.id}\n"
    mode    = "readonly"
  }
}
`,
		"spec.pdf":           "pdf",
		"tests/expected.txt": "42\n",
		"main.c":             "int main(void) { return 0; }\n",
		"Makefile":           "all:\n",
		"notes.pdf":          "pdf",
	})

	// --- Act ---
	meta, err := Load(context.Background(), "lab1", dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "lab1", meta.Name)
	require.Equal(t, dir, meta.SourceDir)
	require.Equal(t, "Lab1", meta.Destination)
	require.False(t, meta.Individual)
	require.False(t, meta.UpdateMode())
	require.True(t, meta.WritesPartnerFile())

	require.Equal(t, []string{"spec.pdf", filepath.Join("tests", "expected.txt")}, meta.EffectiveReadonly())
	require.Equal(t, []string{"main.c", "Makefile"}, meta.EffectiveWritable())
	require.Equal(t, []string{"notes.pdf"}, meta.EffectiveShared())
	require.Equal(t, []string{"*.out"}, meta.Ignore)

	require.True(t, meta.Excluded("carol"))
	require.False(t, meta.Excluded("alice"))
	require.Equal(t, "Lab1-retake", meta.DestinationFor("dave"))
	require.Equal(t, "Lab1", meta.DestinationFor("alice"))

	require.Len(t, meta.Generated, 1)
	require.Equal(t, "token.txt", meta.Generated[0].Name)
	require.True(t, meta.Generated[0].ReadOnly())
}

func TestLoad_RendersGeneratedContentPerStudent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := writeLab(t, map[string]string{
		"lab.hcl": `
lab {
  destination = "Lab2"

  generate "login.mk" {
    content = "LOGIN := ${student.id}\n"
  }
}
`,
	})

	meta, err := Load(context.Background(), "lab2", dir)
	require.NoError(t, err)
	require.Len(t, meta.Generated, 1)

	// --- Act ---
	alice, errA := meta.Generated[0].Render("alice")
	bob, errB := meta.Generated[0].Render("bob")

	// --- Assert ---
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Equal(t, "LOGIN := alice\n", alice)
	require.Equal(t, "LOGIN := bob\n", bob)
	require.False(t, meta.Generated[0].ReadOnly(), "mode defaults to writable")
}

func TestLoad_UpdateModeSwapsFileSets(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := writeLab(t, map[string]string{
		"lab.hcl": `
lab {
  destination = "Lab3"
  readonly    = ["spec.pdf"]
  writable    = ["main.c"]

  update {
    readonly = ["spec.pdf"]
  }
}
`,
		"spec.pdf": "pdf",
		"main.c":   "int main(void) { return 0; }\n",
	})

	// --- Act ---
	meta, err := Load(context.Background(), "lab3", dir)

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, meta.UpdateMode())
	require.False(t, meta.WritesPartnerFile())
	require.Equal(t, []string{"spec.pdf"}, meta.EffectiveReadonly())
	require.Empty(t, meta.EffectiveWritable())
	require.Empty(t, meta.EffectiveShared())
}

func TestLoad_MissingDestinationIsRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := writeLab(t, map[string]string{
		"lab.hcl": "lab {\n}\n",
	})

	// --- Act ---
	_, err := Load(context.Background(), "lab1", dir)

	// --- Assert ---
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, err.Error(), "decode failed")
}

func TestLoad_MissingMetadataFileIsRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()

	// --- Act ---
	_, err := Load(context.Background(), "lab1", dir)

	// --- Assert ---
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, err.Error(), "metadata file not found")
}

func TestLoad_MissingLabDirIsRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	missing := filepath.Join(t.TempDir(), "lab9")

	// --- Act ---
	_, err := Load(context.Background(), "lab9", missing)

	// --- Assert ---
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, err.Error(), "lab directory not found")
}

func TestLoad_RejectsInvalidMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name: "syntax error",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \n",
			},
			wantErr: "parse failed",
		},
		{
			name: "unknown attribute",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"Lab1\"\n  copies = 3\n}\n",
			},
			wantErr: "decode failed",
		},
		{
			name: "two lab blocks",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"Lab1\"\n}\nlab {\n  destination = \"Lab2\"\n}\n",
			},
			wantErr: "exactly one lab block",
		},
		{
			name: "absolute destination",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"/tmp/Lab1\"\n}\n",
			},
			wantErr: "must be relative",
		},
		{
			name: "escaping destination",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"../Lab1\"\n}\n",
			},
			wantErr: "escapes its base directory",
		},
		{
			name: "nonexistent readonly entry",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"Lab1\"\n  readonly = [\"ghost.txt\"]\n}\n",
			},
			wantErr: "nonexistent source file",
		},
		{
			name: "file listed readonly and writable",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"Lab1\"\n  readonly = [\"main.c\"]\n  writable = [\"main.c\"]\n}\n",
				"main.c":  "int main(void) { return 0; }\n",
			},
			wantErr: "both readonly and writable",
		},
		{
			name: "metadata file distributed",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"Lab1\"\n  readonly = [\"lab.hcl\"]\n}\n",
			},
			wantErr: "must not be distributed",
		},
		{
			name: "duplicate override",
			files: map[string]string{
				"lab.hcl": `
lab {
  destination = "Lab1"
  override "dave" {
    destination = "A"
  }
  override "dave" {
    destination = "B"
  }
}
`,
			},
			wantErr: `duplicate override for "dave"`,
		},
		{
			name: "bad generate mode",
			files: map[string]string{
				"lab.hcl": `
lab {
  destination = "Lab1"
  generate "token.txt" {
    content = "x"
    mode    = "executable"
  }
}
`,
			},
			wantErr: "mode must be",
		},
		{
			name: "generate references unknown variable",
			files: map[string]string{
				"lab.hcl": `
lab {
  destination = "Lab1"
  generate "token.txt" {
    content = "${course.id}"
  }
}
`,
			},
			wantErr: "Unknown variable",
		},
		{
			name: "generated file also copied",
			files: map[string]string{
				"lab.hcl": `
lab {
  destination = "Lab1"
  writable    = ["token.txt"]
  generate "token.txt" {
    content = "x"
  }
}
`,
				"token.txt": "placeholder",
			},
			wantErr: "both generated and copied",
		},
		{
			name: "empty update block",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"Lab1\"\n  update {\n  }\n}\n",
			},
			wantErr: "update block lists no files",
		},
		{
			name: "duplicate exclude id",
			files: map[string]string{
				"lab.hcl": "lab {\n  destination = \"Lab1\"\n  exclude = [\"bob\", \"bob\"]\n}\n",
			},
			wantErr: `duplicate id "bob"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := writeLab(t, tc.files)

			_, err := Load(context.Background(), "lab1", dir)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
