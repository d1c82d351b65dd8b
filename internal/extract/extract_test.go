package extract

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	pages []Page
	err   error
	calls int
}

func (f *fakeOCR) Recognize(context.Context, string) ([]Page, error) {
	f.calls++
	return f.pages, f.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistry_TextFallback(t *testing.T) {
	path := writeFile(t, "notes.csv", "Q1 Explain the working of a transformer.")
	r := NewDefaultRegistry(nil, 0)

	res := r.Run(context.Background(), path, "")

	require.NoError(t, res.Err)
	assert.Equal(t, "notes.csv", res.Name)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "Q1 Explain the working of a transformer.", res.Pages[0].Text)
	assert.False(t, r.Supports("notes.csv"))
	assert.True(t, r.Supports("paper.PDF"))
	assert.True(t, r.Supports("scan.jpeg"))
}

func TestRegistry_UsesOriginalName(t *testing.T) {
	// Uploaded files are spooled under random names.
	path := writeFile(t, "0f3c2a.upload", "not an image")
	ocr := &fakeOCR{pages: []Page{{Number: 1, Text: "recognized"}}}
	r := NewDefaultRegistry(ocr, 0)

	res := r.Run(context.Background(), path, "scan.png")

	require.NoError(t, res.Err)
	assert.Equal(t, "scan.png", res.Name)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, "recognized", res.Pages[0].Text)
}

func TestRegistry_MissingFile(t *testing.T) {
	res := NewDefaultRegistry(nil, 0).Run(context.Background(), filepath.Join(t.TempDir(), "gone.txt"), "")

	assert.ErrorContains(t, res.Err, "extract gone.txt")
	assert.Empty(t, res.Pages)
}

func TestImageExtractor_OCRUnavailable(t *testing.T) {
	path := writeFile(t, "scan.png", "x")

	res := NewDefaultRegistry(DisabledOCR{}, 0).Run(context.Background(), path, "")

	assert.ErrorIs(t, res.Err, ErrOCRUnavailable)
}

func TestTextLen(t *testing.T) {
	assert.Equal(t, 6, textLen([]Page{{Text: "  abc "}, {Text: "\ndef\n"}}))
	assert.Equal(t, 0, textLen(nil))
}

func TestNewCommandOCR_Validation(t *testing.T) {
	_, err := NewCommandOCR(nil, "", 0)
	assert.ErrorIs(t, err, ErrOCRUnavailable)

	_, err = NewCommandOCR([]string{"tesseract"}, "xml", 0)
	assert.ErrorContains(t, err, "xml")
}

func TestCommandOCR_Args(t *testing.T) {
	o, err := NewCommandOCR([]string{"tesseract", "{input}", "stdout"}, OutputText, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/a.png", "stdout"}, o.args("/tmp/a.png"))

	o, err = NewCommandOCR([]string{"ocr-tool", "--json"}, OutputJSON, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"--json", "/tmp/a.png"}, o.args("/tmp/a.png"))
}

func requireCat(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
}

func TestCommandOCR_TextOutput(t *testing.T) {
	requireCat(t)
	path := writeFile(t, "page.txt", "Explain entropy.")
	o, err := NewCommandOCR([]string{"cat", "{input}"}, OutputText, time.Second)
	require.NoError(t, err)

	pages, err := o.Recognize(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, []Page{{Number: 1, Text: "Explain entropy."}}, pages)
}

func TestCommandOCR_JSONOutput(t *testing.T) {
	requireCat(t)
	path := writeFile(t, "out.json", `[{"page":1,"text":"first"},{"page":2,"text":"second"}]`)
	o, err := NewCommandOCR([]string{"cat"}, OutputJSON, time.Second)
	require.NoError(t, err)

	pages, err := o.Recognize(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, []Page{{Number: 1, Text: "first"}, {Number: 2, Text: "second"}}, pages)
}

func TestCommandOCR_MalformedJSON(t *testing.T) {
	requireCat(t)
	path := writeFile(t, "out.json", `{"page":`)
	o, err := NewCommandOCR([]string{"cat"}, OutputJSON, time.Second)
	require.NoError(t, err)

	_, err = o.Recognize(context.Background(), path)

	assert.ErrorContains(t, err, "decode ocr output")
}

func TestCommandOCR_CommandFails(t *testing.T) {
	requireCat(t)
	o, err := NewCommandOCR([]string{"cat"}, OutputText, time.Second)
	require.NoError(t, err)

	_, err = o.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.ErrorContains(t, err, "cat")
}
