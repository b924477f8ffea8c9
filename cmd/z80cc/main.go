package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/z80cc/z80cc/pkg/irjson"
	"github.com/z80cc/z80cc/pkg/pipeline"
	"github.com/z80cc/z80cc/pkg/version"
	"github.com/z80cc/z80cc/pkg/zicjson"
)

var (
	irPath     string
	outPath    string
	dump       bool
	showVer    bool
)

var rootCmd = &cobra.Command{
	Use:   "z80cc",
	Short: "Z80 compiler back end: instruction selection and register allocation",
	Long: `z80cc - C-to-Z80 compiler back end
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
Lowers a typed, width-generic IR module into fully allocated Z80
instructions: virtual-register instruction selection, then a naive
fill-every-read/spill-every-write register allocation pass onto the
physical registers and an IX-relative stack frame.

STAGES:
  isel    IR -> Z80-IC with virtual registers
  ralloc  virtual registers -> physical registers + frame displacements

EXAMPLES:
  z80cc --ir module.json -o out.json     # compile, write allocated Z80-IC
  z80cc --ir module.json --dump          # compile, print a listing to stdout
  z80cc version                          # print build metadata`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Println(version.GetVersion())
			return nil
		}
		if irPath == "" {
			return cmd.Help()
		}
		return compile(irPath, outPath, dump)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build metadata",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersion())
	},
}

func init() {
	rootCmd.Flags().StringVar(&irPath, "ir", "", "path to the input IR module (JSON)")
	rootCmd.Flags().StringVarP(&outPath, "output", "o", "", "path to write the allocated Z80-IC module (JSON); defaults to stdout")
	rootCmd.Flags().BoolVar(&dump, "dump", false, "print a human-readable instruction listing instead of JSON")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "z80cc: %v\n", err)
		os.Exit(1)
	}
}

func compile(irPath, outPath string, dump bool) error {
	in, err := os.Open(irPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", irPath, err)
	}
	defer in.Close()

	module, err := irjson.DecodeModule(in)
	if err != nil {
		return err
	}

	out, err := pipeline.Compile(module)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", irPath, err)
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	if dump {
		return zicjson.Dump(w, out)
	}
	return zicjson.EncodeModule(w, out)
}
