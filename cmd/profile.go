package cmd

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/atlas-vision/atlas/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage API profiles",
	Long:  `Manage profiles for different recognition services and chat providers.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Fprintln(out, "Available Profiles:")
		for _, name := range profileNames(cfg, "") {
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Fprintf(out, "  %s%s\n", name, marker)
			printProfile(cmd, cfg.Profiles[name], "    ")
			fmt.Fprintln(out)
		}
		return nil
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		name := strings.ToLower(args[0])
		profile, exists := cfg.Profiles[name]
		if !exists {
			return fmt.Errorf("%w: %s", config.ErrUnknownProfile, name)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile: %s\n", name)
		printProfile(cmd, profile, "")
		return nil
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			prompt := promptui.Prompt{Label: "Profile name"}
			if name, err = prompt.Run(); err != nil {
				return fmt.Errorf("prompt failed: %w", err)
			}
		}
		name = strings.ToLower(strings.TrimSpace(name))

		if _, exists := cfg.Profiles[name]; exists {
			return fmt.Errorf("profile '%s' already exists", name)
		}

		profile, err := promptProfile(config.DefaultProfile())
		if err != nil {
			return err
		}
		cfg.Profiles[name] = profile

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' added successfully!\n", name)
		return nil
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		name, err := pickProfile(cfg, args, "Select profile to edit", "")
		if err != nil {
			return err
		}
		profile, exists := cfg.Profiles[name]
		if !exists {
			return fmt.Errorf("%w: %s", config.ErrUnknownProfile, name)
		}

		if profile, err = promptProfile(profile); err != nil {
			return err
		}
		cfg.Profiles[name] = profile

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' updated successfully!\n", name)
		return nil
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		name, err := pickProfile(cfg, args, "Select profile to delete", "")
		if err != nil {
			return err
		}
		if _, exists := cfg.Profiles[name]; !exists {
			return fmt.Errorf("%w: %s", config.ErrUnknownProfile, name)
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'", name),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
			return nil
		}

		delete(cfg.Profiles, name)
		if cfg.ActiveProfile == name {
			cfg.ActiveProfile = config.DefaultProfileName
			if others := profileNames(cfg, ""); len(others) > 0 {
				cfg.ActiveProfile = others[0]
			} else {
				cfg.Profiles[config.DefaultProfileName] = config.DefaultProfile()
			}
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' deleted successfully!\n", name)
		return nil
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		name, err := pickProfile(cfg, args, "Select profile to switch to", cfg.ActiveProfile)
		if err != nil {
			return err
		}
		if err := cfg.Use(name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile '%s'\n", cfg.ActiveProfile)
		return nil
	},
}

func profileNames(cfg *config.Config, exclude string) []string {
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		if name != exclude {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// pickProfile takes the name from args or lets the user select one.
func pickProfile(cfg *config.Config, args []string, label, exclude string) (string, error) {
	if len(args) > 0 {
		return strings.ToLower(args[0]), nil
	}
	names := profileNames(cfg, exclude)
	if len(names) == 0 {
		return "", fmt.Errorf("no profiles available")
	}
	prompt := promptui.Select{Label: label, Items: names}
	_, name, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection failed: %w", err)
	}
	return name, nil
}

// promptProfile walks through every profile field, starting from current.
func promptProfile(current config.Profile) (config.Profile, error) {
	p := current
	var err error

	baseURLPrompt := promptui.Prompt{
		Label:    "Recognition API base URL",
		Default:  p.APIBaseURL,
		Validate: validateURL,
	}
	if p.APIBaseURL, err = baseURLPrompt.Run(); err != nil {
		return p, fmt.Errorf("prompt failed: %w", err)
	}

	timeoutPrompt := promptui.Prompt{
		Label:    "Timeout (seconds)",
		Default:  strconv.Itoa(int(p.Timeout().Seconds())),
		Validate: validatePositiveInt,
	}
	timeout, err := timeoutPrompt.Run()
	if err != nil {
		return p, fmt.Errorf("prompt failed: %w", err)
	}
	p.TimeoutSeconds, _ = strconv.Atoi(timeout)

	providerPrompt := promptui.Select{
		Label: "Chat provider",
		Items: []string{config.ProviderAtlas, config.ProviderOpenAI},
	}
	if _, p.ChatProvider, err = providerPrompt.Run(); err != nil {
		return p, fmt.Errorf("selection failed: %w", err)
	}

	if p.ChatProvider == config.ProviderOpenAI {
		keyPrompt := promptui.Prompt{Label: "OpenAI API Key", Default: p.OpenAIAPIKey, Mask: '*'}
		if p.OpenAIAPIKey, err = keyPrompt.Run(); err != nil {
			return p, fmt.Errorf("prompt failed: %w", err)
		}
		modelPrompt := promptui.Prompt{Label: "Model", Default: p.Model()}
		if p.OpenAIModel, err = modelPrompt.Run(); err != nil {
			return p, fmt.Errorf("prompt failed: %w", err)
		}
		openaiURLPrompt := promptui.Prompt{Label: "OpenAI base URL (optional)", Default: p.OpenAIBaseURL}
		if p.OpenAIBaseURL, err = openaiURLPrompt.Run(); err != nil {
			return p, fmt.Errorf("prompt failed: %w", err)
		}
	}

	directoryPrompt := promptui.Prompt{Label: "Landmark directory file (optional)", Default: p.DirectoryFile}
	if p.DirectoryFile, err = directoryPrompt.Run(); err != nil {
		return p, fmt.Errorf("prompt failed: %w", err)
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter an absolute URL")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func printProfile(cmd *cobra.Command, p config.Profile, indent string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%sAPI: %s\n", indent, p.APIBaseURL)
	fmt.Fprintf(out, "%sTimeout: %s\n", indent, p.Timeout())
	provider := p.ChatProvider
	if provider == "" {
		provider = config.ProviderAtlas
	}
	fmt.Fprintf(out, "%sChat: %s\n", indent, provider)
	if provider == config.ProviderOpenAI {
		fmt.Fprintf(out, "%sModel: %s\n", indent, p.Model())
		hasKey := "Not set"
		if p.OpenAIAPIKey != "" {
			hasKey = "Set (hidden for security)"
		}
		fmt.Fprintf(out, "%sOpenAI Key: %s\n", indent, hasKey)
	}
	if p.DirectoryFile != "" {
		fmt.Fprintf(out, "%sDirectory: %s\n", indent, p.DirectoryFile)
	}
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}
