package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/lotas/autopin/internal/export"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/settings"
	"github.com/spf13/cobra"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List and edit pin rules",
	}
	cmd.AddCommand(
		newRulesListCmd(a),
		newRulesAddCmd(a),
		newRulesAddHostCmd(a),
		newRulesEditCmd(a, "remove", "Delete rule N", func(rs []rules.Rule, i int) ([]rules.Rule, string) {
			removed := rs[i]
			return append(rs[:i:i], rs[i+1:]...), "Removed " + removed.String()
		}),
		newRulesEditCmd(a, "enable", "Enable rule N", setEnabled(true)),
		newRulesEditCmd(a, "disable", "Disable rule N", setEnabled(false)),
		newRulesMoveCmd(a),
		newRulesTestCmd(a),
		newRulesExportCmd(a),
		newRulesImportCmd(a),
	)
	return cmd
}

// editRules loads the rule set, applies fn and saves the result. fn
// returns the message printed on success.
func (a *app) editRules(ctx context.Context, fn func([]rules.Rule) ([]rules.Rule, string, error)) error {
	st, adapter, err := a.openSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	rs, err := adapter.LoadRules(ctx)
	if err != nil {
		return err
	}
	next, msg, err := fn(rs)
	if err != nil {
		return err
	}
	if err := adapter.SaveRules(ctx, next); err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) loadRules(ctx context.Context) ([]rules.Rule, error) {
	st, adapter, err := a.openSettings()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return adapter.LoadRules(ctx)
}

// ruleIndex parses a 1-based rule number.
func ruleIndex(arg string, rs []rules.Rule) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("rule number %q is not a number", arg)
	}
	if n < 1 || n > len(rs) {
		return 0, fmt.Errorf("rule %d out of range (have %s)", n, plural(len(rs), "rule"))
	}
	return n - 1, nil
}

func hasRule(rs []rules.Rule, r rules.Rule) bool {
	for _, have := range rs {
		if have.Pattern == r.Pattern && have.IsRegex == r.IsRegex {
			return true
		}
	}
	return false
}

func addRule(r rules.Rule) func([]rules.Rule) ([]rules.Rule, string, error) {
	return func(rs []rules.Rule) ([]rules.Rule, string, error) {
		if res := r.Validate(); !res.OK() {
			return nil, "", fmt.Errorf("invalid rule: %s", res.Error())
		}
		if hasRule(rs, r) {
			return nil, "", fmt.Errorf("rule %s already exists", r.Pattern)
		}
		return append(rs, r), fmt.Sprintf("Added rule %d: %s", len(rs)+1, r), nil
	}
}

func setEnabled(on bool) func([]rules.Rule, int) ([]rules.Rule, string) {
	return func(rs []rules.Rule, i int) ([]rules.Rule, string) {
		rs[i].Enabled = on
		return rs, fmt.Sprintf("Rule %d: %s", i+1, rs[i])
	}
}

func newRulesListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the rule set in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			rs, err := a.loadRules(cmd.Context())
			if err != nil {
				return err
			}
			out, err := export.Rules(f, rs)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md, json, yaml")
	return cmd
}

func newRulesAddCmd(a *app) *cobra.Command {
	var regex bool
	cmd := &cobra.Command{
		Use:   "add <url-or-pattern>",
		Short: "Add a rule matching a URL exactly, or a regex with --regex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRules(cmd.Context(), addRule(rules.NewRule(args[0], regex)))
		},
	}
	cmd.Flags().BoolVarP(&regex, "regex", "r", false, "treat the pattern as a regular expression")
	return cmd
}

func newRulesAddHostCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-host <url>",
		Short: "Add a regex rule matching every URL on the same scheme and host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRules(cmd.Context(), addRule(rules.BuildRuleFromOrigin(args[0])))
		},
	}
}

func newRulesEditCmd(a *app, use, short string, fn func([]rules.Rule, int) ([]rules.Rule, string)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <n>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRules(cmd.Context(), func(rs []rules.Rule) ([]rules.Rule, string, error) {
				i, err := ruleIndex(args[0], rs)
				if err != nil {
					return nil, "", err
				}
				next, msg := fn(rs, i)
				return next, msg, nil
			})
		},
	}
}

func newRulesMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <n> <to>",
		Short: "Move rule N to position TO, changing its priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRules(cmd.Context(), func(rs []rules.Rule) ([]rules.Rule, string, error) {
				from, err := ruleIndex(args[0], rs)
				if err != nil {
					return nil, "", err
				}
				to, err := ruleIndex(args[1], rs)
				if err != nil {
					return nil, "", err
				}
				r := rs[from]
				next := append(rs[:from:from], rs[from+1:]...)
				next = append(next[:to], append([]rules.Rule{r}, next[to:]...)...)
				return next, fmt.Sprintf("Moved %s to position %d", r.Pattern, to+1), nil
			})
		},
	}
}

func newRulesTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <url>",
		Short: "Show which rule, if any, would pin a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := a.loadRules(cmd.Context())
			if err != nil {
				return err
			}
			url := args[0]
			if r, i, ok := rules.FindMatch(rs, url); ok {
				fmt.Printf("Pinned by rule %d: %s\n", i+1, r)
				return nil
			}
			fmt.Printf("No rule matches. A host rule would be: %s\n", rules.BuildRuleFromOrigin(url).Pattern)
			return nil
		},
	}
}

func newRulesExportCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the rule set as JSON, YAML or a Markdown table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := export.FormatJSON
			if format != "" {
				var err error
				if f, err = export.ParseFormat(format); err != nil {
					return err
				}
			} else if out != "" {
				f = export.FormatFromPath(out)
			}

			rs, err := a.loadRules(cmd.Context())
			if err != nil {
				return err
			}
			output, err := export.Rules(f, rs)
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Print(output)
				return nil
			}
			if err := os.WriteFile(out, []byte(output), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(os.Stderr, "Exported %s to %s\n", plural(len(rs), "rule"), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json, yaml or md (default from --out extension, else json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newRulesImportCmd(a *app) *cobra.Command {
	var (
		format  string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add rules from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f := export.FormatFromPath(path)
			if format != "" {
				var err error
				if f, err = export.ParseFormat(format); err != nil {
					return err
				}
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			imported, err := export.Import(f, data)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			if err := settings.ValidateAll(imported); err != nil {
				return err
			}

			return a.editRules(cmd.Context(), func(rs []rules.Rule) ([]rules.Rule, string, error) {
				if replace {
					return imported, fmt.Sprintf("Replaced rule set with %s", plural(len(imported), "rule")), nil
				}
				added := 0
				for _, r := range imported {
					if hasRule(rs, r) {
						continue
					}
					rs = append(rs, r)
					added++
				}
				return rs, fmt.Sprintf("Imported %s (%d already present)", plural(added, "rule"), len(imported)-added), nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from file extension)")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the rule set instead of appending")
	return cmd
}
