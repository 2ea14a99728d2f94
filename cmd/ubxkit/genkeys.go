package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ubxkit/internal/keygen"
)

var genkeysCheck bool

var genkeysCmd = &cobra.Command{
	Use:   "genkeys <header>",
	Short: "Regenerate the CFG-VAL key macros in the key header",
	Long: `genkeys reads the configuration-key header, parses the
uGnssCfgValKeyItem_t enum and rewrites, in place, the generated macro block
between the AUTO-GENERATED markers. The enum is the single source of truth;
run this after editing it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenkeys(args[0], genkeysCheck, cmd.OutOrStdout())
	},
}

func init() {
	genkeysCmd.Flags().BoolVar(&genkeysCheck, "check", false,
		"don't write; fail if the header would change (for CI)")
}

func runGenkeys(path string, check bool, stdout io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out, err := keygen.Regenerate(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if bytes.Equal(src, out) {
		fmt.Fprintf(stdout, "%s is up to date\n", path)
		return nil
	}
	if check {
		return fmt.Errorf("%s is out of date, run ubxkit genkeys to regenerate", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "regenerated %s\n", path)
	return nil
}
