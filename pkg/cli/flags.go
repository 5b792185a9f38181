/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// ParseFlags parses args (without the program name). Global options may
// appear before the command or among its options.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{set: make(map[string]bool)}

	fs := newFlagSet("ncc")
	registerGlobalFlags(fs, cfg)

	if err := parse(fs, args, cfg); err != nil {
		return cfg, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return cfg, nil
	}

	cfg.SubCmd = rest[0]

	subcommands := map[string]SubcommandHandler{
		"backup":  BackupHandler{},
		"vendors": NoFlagsHandler{name: "vendors"},
		"info":    NoFlagsHandler{name: "info"},
		"version": NoFlagsHandler{name: "version"},
		"help":    NoFlagsHandler{name: "help"},
	}

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(rest[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// BackupHandler handles flags for the backup subcommand.
type BackupHandler struct{}

// Parse processes the command-line arguments for the backup subcommand.
func (BackupHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("backup")
	registerGlobalFlags(fs, cfg)

	fs.StringVar(&cfg.Devices, "devices", "", "inventory file of target devices")
	fs.StringVar(&cfg.Directory, "directory", "", "where to write backups")
	fs.StringVar(&cfg.Tag, "tag", "", "tag added to backup filenames")
	fs.BoolVar(&cfg.Silent, "silent", false, "no console output")
	fs.BoolVar(&cfg.ListVendors, "vendors", false, "list supported device types")

	if err := parse(fs, args, cfg); err != nil {
		return fmt.Errorf("parsing backup flags: %w", err)
	}

	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %v", errUnexpectedArgs, fs.Args())
	}

	return nil
}

// NoFlagsHandler accepts only the global options.
type NoFlagsHandler struct {
	name string
}

// Parse processes the global options that follow a command.
func (h NoFlagsHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(h.name)
	registerGlobalFlags(fs, cfg)

	if err := parse(fs, args, cfg); err != nil {
		return fmt.Errorf("parsing %s flags: %w", h.name, err)
	}

	cfg.Args = fs.Args()

	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	return fs
}

func registerGlobalFlags(fs *flag.FlagSet, cfg *CmdConfig) {
	fs.BoolVar(&cfg.Help, "help", cfg.Help, "show help message")
	fs.BoolVar(&cfg.Version, "version", cfg.Version, "print the version")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug mode")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of parallel tasks")
	fs.StringVar(&cfg.Username, "username", cfg.Username, "username for device authentication")
	fs.StringVar(&cfg.Password, "password", cfg.Password, "password for device authentication")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "path to log file")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "settings file")
}

func parse(fs *flag.FlagSet, args []string, cfg *CmdConfig) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cfg.Help = true

			return nil
		}

		return err
	}

	fs.Visit(func(f *flag.Flag) {
		cfg.set[f.Name] = true
	})

	return nil
}
