package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-band/config"
	"github.com/RyanBlaney/sonido-band/logging"
)

// app carries state shared by the subcommands.
type app struct {
	configPath string
	cfg        *config.Root
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sonido-band",
		Short:         "Score speaking and writing samples and map them to bands",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./sonido-band.yaml if present)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "log format: plain, text or json")

	root.AddCommand(
		newScoreCmd(a),
		newBatchCmd(a),
		newCalibrateCmd(a),
		newKappaCmd(a),
		newConfigCmd(a),
	)
	return root
}

// load reads the configuration, binding the named flags of cmd onto config
// keys, and installs the configured logger.
func (a *app) load(cmd *cobra.Command, bindings map[string]string) error {
	v, err := config.NewViper(a.configPath)
	if err != nil {
		return err
	}

	all := map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	}
	for key, flag := range bindings {
		all[key] = flag
	}
	if err := bindFlags(v, cmd, all); err != nil {
		return err
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Format, level)
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logger)
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}
