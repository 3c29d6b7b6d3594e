package cli

import (
	"context"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/mjoin/internal/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(g *globals) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			cfg, err := g.loadConfig(config.File{})
			if err != nil {
				return err
			}

			execPrintConfig(o, cfg)

			return nil
		},
	}
}

func execPrintConfig(o *IO, cfg config.Config) {
	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Println("left.delimiter=" + config.FormatByte(cfg.Left.Delimiter))
	o.Println("left.terminator=" + config.FormatByte(cfg.Left.Terminator))
	o.Println("left.key=" + config.FormatKey(cfg.Left.Key))
	o.Println("right.delimiter=" + config.FormatByte(cfg.Right.Delimiter))
	o.Println("right.terminator=" + config.FormatByte(cfg.Right.Terminator))
	o.Println("right.key=" + config.FormatKey(cfg.Right.Key))
	o.Println("output.delimiter=" + config.FormatByte(cfg.OutDelimiter))
	o.Println("output.terminator=" + config.FormatByte(cfg.OutTerminator))
	o.Println("show=" + cfg.Policy.String())
	o.Println("header=" + strconv.FormatBool(cfg.Header))
	o.Println("buffer_size=" + strconv.Itoa(cfg.BufferSize))

	if cfg.MaxBufferSize > 0 {
		o.Println("max_buffer_size=" + strconv.Itoa(cfg.MaxBufferSize))
	}

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")

		return
	}

	if cfg.Sources.Global != "" {
		o.Println("global_config=" + cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		o.Println("project_config=" + cfg.Sources.Project)
	}
}
