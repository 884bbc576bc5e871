package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/taglog/internal/config"
	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/output"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create taglog configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the effective configuration as YAML, after defaults, the user
config, the project config and TAGLOG_* environment variables are merged.`,
	Args: argsBetween(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runConfigShow(cmd, cfg)
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every configuration key with its type",
	Args:  argsBetween(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigKeys(cmd)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented .taglog.yml to the project",
	Example: `  taglog config init
  taglog config init --force`,
	Args: argsBetween(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd, projectDir(), configInitForce)
	},
}

func init() {
	configCmd.GroupID = GroupConfiguration
	configCmd.AddCommand(configShowCmd, configKeysCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)

	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing .taglog.yml")
}

// shownConfig mirrors Configuration with the debounce as a duration string.
type shownConfig struct {
	RepoPath               string `yaml:"repo_path"`
	OutputFile             string `yaml:"output_file"`
	Backend                string `yaml:"backend"`
	GitBinary              string `yaml:"git_binary"`
	DropSelfVersionLine    bool   `yaml:"drop_self_version_line"`
	AllowBareCloneFallback bool   `yaml:"allow_bare_clone_fallback"`
	MergeDetection         string `yaml:"merge_detection"`
	ManifestPath           string `yaml:"manifest_path"`
	WatchDebounce          string `yaml:"watch_debounce"`
}

func runConfigShow(cmd *cobra.Command, cfg *config.Configuration) error {
	out, err := yaml.Marshal(shownConfig{
		RepoPath:               cfg.RepoPath,
		OutputFile:             cfg.OutputFile,
		Backend:                cfg.Backend,
		GitBinary:              cfg.GitBinary,
		DropSelfVersionLine:    cfg.DropSelfVersionLine,
		AllowBareCloneFallback: cfg.AllowBareCloneFallback,
		MergeDetection:         cfg.MergeDetection,
		ManifestPath:           cfg.ManifestPath,
		WatchDebounce:          cfg.WatchDebounce.String(),
	})
	if err != nil {
		return clierrors.Wrap(err, clierrors.Runtime)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigKeys(cmd *cobra.Command) error {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	keys := config.SortedKeys()
	keyWidth, typeWidth := 0, 0
	for _, key := range keys {
		schema, _ := config.GetKeySchema(key)
		keyWidth = max(keyWidth, len(key))
		typeWidth = max(typeWidth, len(schema.TypeLabel()))
	}

	// Pad on the plain text; color codes would throw off width verbs.
	for _, key := range keys {
		schema, _ := config.GetKeySchema(key)
		label := schema.TypeLabel()
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s  %s%s  %s\n",
			bold(key), strings.Repeat(" ", keyWidth-len(key)),
			label, strings.Repeat(" ", typeWidth-len(label)),
			dim(schema.Description))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nOverride any key with %s<KEY>, e.g. %sBACKEND=native\n", config.EnvPrefix, config.EnvPrefix)
	return nil
}

func runConfigInit(cmd *cobra.Command, dir string, force bool) error {
	path, _ := config.ProjectConfigPaths(dir)
	if _, err := os.Stat(path); err == nil && !force {
		return clierrors.NewArgumentError(
			fmt.Sprintf("%s already exists", path),
			"Use --force to overwrite it",
		)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return clierrors.FileNotWritable(path, err)
	}
	output.PrintSuccess(cmd.OutOrStdout(), "Created "+filepath.Clean(path))
	return nil
}

// projectDir is the directory whose project config applies: --repo when it
// names a directory, else the working directory.
func projectDir() string {
	if info, err := os.Stat(repoFlag); repoFlag != "" && err == nil && info.IsDir() {
		return repoFlag
	}
	return "."
}
