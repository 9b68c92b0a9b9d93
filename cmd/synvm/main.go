// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ezrec/synacor/config"
	"github.com/ezrec/synacor/emulator"
	vmio "github.com/ezrec/synacor/io"
	"github.com/ezrec/synacor/trace"
)

var logger = logrus.New()

func main() {
	err := newRootCmd(os.Stdin, os.Stdout).Execute()
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// newRootCmd creates the command tree, with console I/O on stdin/stdout.
func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var cfgFile string

	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "synvm [program.bin]",
		Short: "Run a program image on the 16-bit virtual machine",
		Long: `synvm loads a little-endian program image into memory and runs it
until it halts. Console input comes from a script file, the terminal,
or the script followed by the terminal.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) == 1 {
				v.Set("program", args[0])
			}

			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return
			}

			err = setupLogger(cfg)
			if err != nil {
				return
			}

			return run(cfg, stdin, stdout)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.synvm.yaml)")

	rootCmd.PersistentFlags().String("log-level", config.DEFAULT_LEVEL, "log level [trace|debug|info|warn|error]")
	v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.Flags().StringP("script", "s", "", "file of input commands, one per line")
	v.BindPFlag("script", rootCmd.Flags().Lookup("script"))

	rootCmd.Flags().BoolP("interactive", "i", true, "read from the terminal once the script is exhausted")
	v.BindPFlag("interactive", rootCmd.Flags().Lookup("interactive"))

	rootCmd.Flags().BoolP("trace", "t", false, "log every executed instruction")
	v.BindPFlag("trace", rootCmd.Flags().Lookup("trace"))

	rootCmd.AddCommand(newAsmCmd(v))

	return rootCmd
}

// setupLogger applies the configured log level.
func setupLogger(cfg config.Config) (err error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return
	}

	if cfg.Trace && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	logger.WithField("tag", "config").Debugf("\n%v", cfg)

	return
}

// run executes the configured program image.
func run(cfg config.Config, stdin io.Reader, stdout io.Writer) (err error) {
	log := logger.WithField("tag", "run")

	emu := emulator.NewEmulator()

	inf, err := os.Open(cfg.Program)
	if err != nil {
		return
	}
	defer inf.Close()

	err = emu.LoadImage(inf)
	if err != nil {
		return
	}

	var sources vmio.Sequence

	if len(cfg.Script) != 0 {
		var sf *os.File
		sf, err = os.Open(cfg.Script)
		if err != nil {
			return
		}
		defer sf.Close()

		var script *vmio.Script
		script, err = vmio.ParseScript(sf)
		if err != nil {
			return
		}
		log.Debugf("%v: %d commands", cfg.Script, len(script.Lines))
		sources = append(sources, script)
	}

	if cfg.Interactive || len(cfg.Script) == 0 {
		sources = append(sources, &vmio.Interactive{Input: stdin})
	}

	emu.Tape.Source = &sources
	emu.Tape.Output = stdout

	if cfg.Trace {
		tracer := trace.New(logger)
		tracer.Cpu = emu.Cpu
		emu.Cpu.Tracer = tracer
	}

	emu.Reset()

	err = emu.Run()

	var fault *emulator.ErrRuntime
	if errors.As(err, &fault) {
		log.WithFields(logrus.Fields{
			"ip":    fault.Ip,
			"ticks": emu.Ticks(),
		}).Debugf("fault state:\n%v", emu.Cpu.String())
		return
	}
	if err != nil {
		return
	}

	log.WithField("ticks", emu.Ticks()).Info("halted")

	return
}
