package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// stdin is shared so input piped to several prompts is not lost between readers.
var stdin = bufio.NewReader(os.Stdin)

func Prompt(message string) (string, error) {
	fmt.Printf("%s: ", BrightWhite(message))
	return readLine()
}

// PromptPassword hides the typed characters when stdin is a terminal.
func PromptPassword(message string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return Prompt(message)
	}
	fmt.Printf("%s: ", BrightWhite(message))
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

func PromptWithDefault(message, defaultValue string) (string, error) {
	fmt.Printf("%s [%s]: ", BrightWhite(message), Dim(defaultValue))
	text, err := readLine()
	if err != nil {
		return "", err
	}
	if text == "" {
		return defaultValue, nil
	}
	return text, nil
}

func readLine() (string, error) {
	text, err := stdin.ReadString('\n')
	if err != nil && text == "" {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
