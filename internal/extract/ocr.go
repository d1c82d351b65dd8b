package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrOCRUnavailable is returned when no OCR command is configured.
var ErrOCRUnavailable = errors.New("ocr unavailable")

const (
	OutputJSON = "json"
	OutputText = "text"

	inputPlaceholder = "{input}"
)

// OCR recognizes text in an image or scanned document.
type OCR interface {
	Recognize(ctx context.Context, path string) ([]Page, error)
}

// DisabledOCR is used when no OCR command is configured.
type DisabledOCR struct{}

func (DisabledOCR) Recognize(context.Context, string) ([]Page, error) {
	return nil, ErrOCRUnavailable
}

// CommandOCR runs an external OCR program once per file.
//
// The program's stdout is either a JSON array of {"page","text"} records
// (OutputJSON) or plain text taken as page 1 (OutputText). The input path
// replaces every {input} argument, or is appended when there is none.
type CommandOCR struct {
	command []string
	output  string
	timeout time.Duration
}

func NewCommandOCR(command []string, output string, timeout time.Duration) (*CommandOCR, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, ErrOCRUnavailable
	}
	switch output {
	case "":
		output = OutputJSON
	case OutputJSON, OutputText:
	default:
		return nil, fmt.Errorf("unknown ocr output format %q", output)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CommandOCR{command: command, output: output, timeout: timeout}, nil
}

func (o *CommandOCR) Recognize(ctx context.Context, path string) ([]Page, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, o.command[0], o.args(path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "ocr failed"
		}
		return nil, fmt.Errorf("%s: %w: %s", o.command[0], err, msg)
	}
	if o.output == OutputText {
		return []Page{{Number: 1, Text: stdout.String()}}, nil
	}
	var pages []Page
	if err := json.Unmarshal(stdout.Bytes(), &pages); err != nil {
		return nil, fmt.Errorf("decode ocr output: %w", err)
	}
	return pages, nil
}

func (o *CommandOCR) args(path string) []string {
	args := make([]string, 0, len(o.command))
	substituted := false
	for _, a := range o.command[1:] {
		if strings.Contains(a, inputPlaceholder) {
			a = strings.ReplaceAll(a, inputPlaceholder, path)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, path)
	}
	return args
}
