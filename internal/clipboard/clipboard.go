// Package clipboard reads and writes the system clipboard: plain text via
// atotto/clipboard, and images via the platform's native paste/copy
// utilities since atotto/clipboard only speaks text.
package clipboard

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
)

// ReadText reads text content from the system clipboard.
func ReadText() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// CopyText copies text to the system clipboard.
func CopyText(text string) error {
	return clipboard.WriteAll(text)
}

// ReadImage reads image data from the system clipboard. Returns an error if
// the clipboard doesn't currently hold an image.
func ReadImage() ([]byte, error) {
	switch runtime.GOOS {
	case "darwin":
		return readImageMacOS()
	case "linux":
		return readImageLinux()
	default:
		return nil, fmt.Errorf("clipboard image read not supported on %s", runtime.GOOS)
	}
}

func readImageMacOS() ([]byte, error) {
	if pngpastePath, err := exec.LookPath("pngpaste"); err == nil {
		tmpFile, err := os.CreateTemp("", "clipboard-*.png")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		tmpPath := tmpFile.Name()
		tmpFile.Close()
		defer os.Remove(tmpPath)

		if err := exec.Command(pngpastePath, tmpPath).Run(); err == nil {
			if data, err := os.ReadFile(tmpPath); err == nil && len(data) > 0 {
				return data, nil
			}
		}
	}
	return nil, fmt.Errorf("clipboard does not contain an image (install pngpaste)")
}

func readImageLinux() ([]byte, error) {
	if _, err := exec.LookPath("wl-paste"); err == nil {
		cmd := exec.Command("wl-paste", "--type", "image/png")
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err == nil && out.Len() > 0 {
			return out.Bytes(), nil
		}
	}
	if _, err := exec.LookPath("xclip"); err == nil {
		cmd := exec.Command("xclip", "-selection", "clipboard", "-t", "image/png", "-o")
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err == nil && out.Len() > 0 {
			return out.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("clipboard does not contain an image (or no clipboard utility found)")
}
