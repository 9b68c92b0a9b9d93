package main

import (
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ezrec/synacor/config"
	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/emulator"
)

// newAsmCmd creates the 'asm' command, which assembles a source file
// into a program image.
func newAsmCmd(v *viper.Viper) *cobra.Command {
	var output string

	asmCmd := &cobra.Command{
		Use:   "asm SOURCE",
		Short: "Assemble a source file into a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg := config.Config{Log: config.LogConfig{Level: v.GetString("log.level")}}
			if len(cfg.Log.Level) == 0 {
				cfg.Log.Level = config.DEFAULT_LEVEL
			}
			err = setupLogger(cfg)
			if err != nil {
				return
			}

			return assemble(args[0], output)
		},
	}

	asmCmd.Flags().StringVarP(&output, "output", "o", "", "image file (default is SOURCE with a .bin extension)")

	return asmCmd
}

// assemble writes the image of the source file to output.
func assemble(source string, output string) (err error) {
	source, err = homedir.Expand(source)
	if err != nil {
		return
	}

	if len(output) == 0 {
		output = strings.TrimSuffix(source, filepath.Ext(source)) + ".bin"
	}
	output, err = homedir.Expand(output)
	if err != nil {
		return
	}

	inf, err := os.Open(source)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Logger: logger.WithField("tag", "asm")}
	prog, err := asm.Parse(inf)
	if err != nil {
		return
	}

	ouf, err := os.Create(output)
	if err != nil {
		return
	}
	defer func() {
		cerr := ouf.Close()
		if err == nil {
			err = cerr
		}
	}()

	image := prog.Binary()
	err = emulator.WriteImage(ouf, image)
	if err != nil {
		return
	}

	logger.WithField("tag", "asm").Infof("%v: %d words", output, len(image))

	return
}
