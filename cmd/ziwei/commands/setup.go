package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ziwei/am"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/logger"
	"github.com/teranos/ziwei/rules"
	"github.com/teranos/ziwei/tables"
)

// settings is the configuration after command line flags are applied
type settings struct {
	TablesPath  string
	RulesPath   string
	RulesFormat rules.Format
	Gender      string
	Output      string
	ShowDetails bool
}

// resolve loads am.toml and lets any flag the user changed win over it
func resolve(cmd *cobra.Command) (*settings, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	s := &settings{
		TablesPath:  cfg.Tables.Path,
		RulesPath:   cfg.Rules.Path,
		Gender:      cfg.Eval.Gender,
		Output:      cfg.Eval.Output,
		ShowDetails: cfg.Eval.ShowDetails,
	}
	format := cfg.Rules.Format

	overrideString(cmd, "tables", &s.TablesPath)
	overrideString(cmd, "rules", &s.RulesPath)
	overrideString(cmd, "format", &format)
	overrideString(cmd, "gender", &s.Gender)
	overrideString(cmd, "output", &s.Output)
	if f := cmd.Flags().Lookup("details"); f != nil && f.Changed {
		s.ShowDetails, _ = cmd.Flags().GetBool("details")
	}

	if s.RulesFormat, err = rules.ParseFormat(format); err != nil {
		return nil, err
	}

	source := am.ConfigFileUsed()
	if source == "" {
		source = "defaults and environment"
	}
	notice(cmd, logger.OutputConfig, "config from %s: rules=%s tables=%q output=%s", source, s.RulesPath, s.TablesPath, s.Output)
	return s, nil
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}

// loadTables returns the embedded tables, overlaid with path when set
func (s *settings) loadTables() (*tables.Tables, error) {
	if s.TablesPath == "" {
		return tables.Default(), nil
	}
	t, err := tables.Load(s.TablesPath)
	if err != nil {
		return nil, err
	}
	logger.Logger.Debugw("loaded table overrides", logger.FieldFile, s.TablesPath)
	return t, nil
}

// loadLibrary reads the rule library and logs its size
func (s *settings) loadLibrary() (*rules.Library, error) {
	lib, err := rules.Load(s.RulesPath, s.RulesFormat)
	if err != nil {
		return nil, err
	}
	logger.Logger.Infow("loaded rule library",
		logger.FieldFile, lib.Source,
		logger.FieldVersion, lib.Version,
		logger.FieldCount, len(lib.Rules),
		"rejected", len(lib.Rejected),
	)
	return lib, nil
}

// notice writes a gray status line to stderr when the verbosity admits category
func notice(cmd *cobra.Command, category logger.OutputCategory, format string, args ...any) {
	if !logger.ShouldOutput(verbosity(cmd), category) {
		return
	}
	msg := fmt.Sprintf("[%s] %s", logger.CategoryName(category), fmt.Sprintf(format, args...))
	pterm.Fprintln(cmd.ErrOrStderr(), pterm.Gray(msg))
}

// verbosity reads the persistent -v count from the root command
func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

func addLibraryFlags(cmd *cobra.Command) {
	cmd.Flags().String("rules", "", "Rule library path (default from am.toml rules.path)")
	cmd.Flags().String("format", "", "Rule library format: auto, json, yaml")
	cmd.Flags().String("tables", "", "Constant tables override file")
}
