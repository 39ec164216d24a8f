package extract

import (
	"fmt"
	"os"
)

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	text := clampDocument(string(data))
	if text == "" {
		return "", fmt.Errorf("file contains no text")
	}

	return text, nil
}
