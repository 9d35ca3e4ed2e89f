package devenv

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	formatUsage    = "output format: table, json, or yaml"
	noHeadersUsage = "when using table format, do not print headers"
	onlyUsage      = "comma-separated repository name globs to restrict the run to (for example: core,lib-*)"
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "o", "table", formatUsage)
}

func addNoHeadersFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("no-headers", false, noHeadersUsage)
}

func addOnlyFlag(cmd *cobra.Command) {
	cmd.Flags().String("only", "", onlyUsage)
}

func validateFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
