package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/taglog/internal/config"
	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Read or bump the package.json version",
	Long: `Read or bump the version in package.json, keeping a sibling bower.json in sync.

PATH is a package.json file or the directory holding one, and defaults to
manifest_path. Packages that use the sl-blip install hook get .sl-blip.js
rewritten and their install script normalized on every write.`,
}

var manifestShowCmd = &cobra.Command{
	Use:   "show [PATH]",
	Short: "Print name@version of the package",
	Example: `  taglog manifest show
  taglog manifest show packages/cli`,
	Args: argsBetween(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runManifestShow(cmd, cfg, args)
	},
}

var manifestSetCmd = &cobra.Command{
	Use:   "set <VERSION> [PATH]",
	Short: "Set the package version and print name@version",
	Example: `  # Bump before tagging
  taglog manifest set 2.1.0

  # Leading "v" is dropped
  taglog manifest set v2.1.0 packages/cli`,
	Args: argsBetween(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runManifestSet(cmd, cfg, args[0], args[1:])
	},
}

func init() {
	manifestCmd.GroupID = GroupProject
	manifestCmd.AddCommand(manifestShowCmd, manifestSetCmd)
	rootCmd.AddCommand(manifestCmd)
}

func runManifestShow(cmd *cobra.Command, cfg *config.Configuration, args []string) error {
	m, err := loadManifest(manifestPath(cfg, args))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), m.NameVersion())
	return nil
}

func runManifestSet(cmd *cobra.Command, cfg *config.Configuration, version string, args []string) error {
	path := manifestPath(cfg, args)
	m, err := loadManifest(path)
	if err != nil {
		return err
	}
	if _, err := m.SetVersion(version); err != nil {
		return clierrors.InvalidVersion(version)
	}
	if err := m.Persist(); err != nil {
		if errors.Is(err, manifest.ErrNoBlipSlot) {
			return clierrors.WrapWithMessage(err, clierrors.Configuration,
				"cannot install the sl-blip hook in "+m.PackagePath(),
				"Free one of the preinstall, postinstall or install scripts")
		}
		return clierrors.FileNotWritable(m.PackagePath(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), m.NameVersion())
	return nil
}

func manifestPath(cfg *config.Configuration, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.ManifestPath
}

func loadManifest(path string) (*manifest.Manifest, error) {
	m, err := manifest.Load(path)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, clierrors.ManifestNotFound(path)
	case errors.Is(err, manifest.ErrInvalidJSON):
		return nil, clierrors.ManifestParseError(path, err)
	default:
		return nil, clierrors.Wrap(err, clierrors.Runtime)
	}
}
