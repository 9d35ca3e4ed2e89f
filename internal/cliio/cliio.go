package cliio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/devenv/internal/tableutil"
)

// PromptYesNo writes prompt and reads a yes/no response from input.
func PromptYesNo(out io.Writer, in io.Reader, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	return choice == "y" || choice == "yes", nil
}

// Confirm asks prompt unless assumeYes is set.
func Confirm(out io.Writer, in io.Reader, prompt string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	return PromptYesNo(out, in, prompt)
}

// WriteTable renders an aligned table with optional headers.
func WriteTable(out io.Writer, stripEscape bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, stripEscape)
	if !noHeaders {
		if err := tableutil.WriteRow(w, headers...); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := tableutil.WriteRow(w, row...); err != nil {
			return err
		}
	}
	return w.Flush()
}
