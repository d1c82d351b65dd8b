package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examradar/internal/domain"
	"examradar/internal/service"
)

func TestAnalyzeInputs_Stdin(t *testing.T) {
	a := service.NewAnalyzer(service.Options{})
	stdin := strings.NewReader("Q1 What is the capital of France?\nQ2 What is the capital of France?")

	r, err := analyzeInputs(context.Background(), a, []string{"-"}, stdin)

	require.NoError(t, err)
	require.Len(t, r.Clusters, 1)
	assert.Equal(t, 2, r.Clusters[0].Count)
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2019.txt", "2020.txt", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files := expandInputs([]string{filepath.Join(dir, "*.txt"), filepath.Join(dir, "missing.pdf")})

	require.Len(t, files, 3)
	assert.Equal(t, "2019.txt", files[0].Name)
	assert.Equal(t, "2020.txt", files[1].Name)
	assert.Equal(t, "missing.pdf", files[2].Name)
}

func TestDirFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.txt", "c.swp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	files := dirFiles(dir, func(n string) bool { return !strings.HasSuffix(n, ".swp") })

	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, filepath.Join(dir, "b.pdf"), files[1].Path)
	assert.Nil(t, dirFiles(filepath.Join(dir, "absent"), nil))
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeReport(&buf, domain.EmptyReport(), false))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, `"snippetsCount":0`)
	assert.Contains(t, out, `"clusters":[]`)
	assert.Contains(t, out, `"message":"No text extracted"`)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "stdin", describe([]string{"-"}, ""))
	assert.Equal(t, "watching papers", describe(nil, "papers"))
	assert.Equal(t, "a.pdf", describe([]string{"a.pdf"}, ""))
	assert.Equal(t, "2 inputs", describe([]string{"a", "b"}, ""))
}
