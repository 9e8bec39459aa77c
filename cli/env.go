package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// loadEnvFile exports the variables of a dotenv file without overriding the
// environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve env file path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("env file path '%s' is not a regular file", path)
	}
	if err := godotenv.Load(abs); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", abs, err)
	}
	return nil
}

// colorEnabled honors an explicit --color, then NO_COLOR, then whether the
// command writes to a terminal.
func colorEnabled(cmd *cobra.Command) bool {
	if f := cmd.Flag("color"); f != nil && f.Changed {
		return f.Value.String() == "true"
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	out, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
}
