package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change your preferences",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change preferences",
	Long: `Change preferences. Only the given flags are applied.

Examples:
  taskboard settings set --name "Ana" --theme dark
  taskboard settings set --priority high --ai=false`,
	RunE: runSettingsSet,
}

var (
	settingsName     string
	settingsTheme    string
	settingsPriority string
	settingsAI       bool
)

func init() {
	settingsSetCmd.Flags().StringVar(&settingsName, "name", "", "Display name")
	settingsSetCmd.Flags().StringVar(&settingsTheme, "theme", "", "Theme (light, dark, system)")
	settingsSetCmd.Flags().StringVar(&settingsPriority, "priority", "", "Default priority for new tasks")
	settingsSetCmd.Flags().BoolVar(&settingsAI, "ai", true, "Enable AI summaries")

	settingsCmd.AddCommand(settingsSetCmd)
}

func printSettings(u model.User) {
	s := u.Settings
	fmt.Printf("Email:            %s\n", u.Email)
	fmt.Printf("Display name:     %s\n", s.DisplayName)
	fmt.Printf("Theme:            %s\n", s.Theme)
	fmt.Printf("Default priority: %s\n", s.DefaultPriority)
	fmt.Printf("AI summaries:     %t\n", s.EnableAISummaries)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	u, err := c.Me(ctx)
	if err != nil {
		return err
	}
	printSettings(u)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	var patch client.SettingsPatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		patch.DisplayName = &settingsName
	}
	if flags.Changed("theme") {
		switch model.Theme(settingsTheme) {
		case model.ThemeLight, model.ThemeDark, model.ThemeSystem:
		default:
			return fmt.Errorf("invalid theme %q (use light, dark or system)", settingsTheme)
		}
		patch.Theme = &settingsTheme
	}
	if flags.Changed("priority") {
		p, ok := model.ParsePriority(settingsPriority)
		if !ok {
			return fmt.Errorf("invalid priority %q (use low, medium or high)", settingsPriority)
		}
		s := string(p)
		patch.DefaultPriority = &s
	}
	if flags.Changed("ai") {
		patch.EnableAISummaries = &settingsAI
	}
	if patch == (client.SettingsPatch{}) {
		return fmt.Errorf("nothing to change, see 'taskboard settings set --help'")
	}

	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	u, err := c.UpdateSettings(ctx, patch)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	fmt.Printf("%s Settings saved\n", success("✓"))
	printSettings(u)
	return nil
}
