// Package recctl implements the recctl command-line tree: ad-hoc hardware
// probing, catalog validation, and running the recommendation pipeline
// against file-based fixtures, without standing up the HTTP server.
package recctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"recommendd/internal/catalog"
	"recommendd/internal/hwprobe"
	"recommendd/internal/recommend"
	"recommendd/pkg/types"
)

// NewRootCmd constructs the recctl Cobra command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recctl",
		Short:         "Hardware probing, catalog validation, and offline recommendation runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProbeCmd(), newCatalogCmd(), newRecommendCmd())
	return root
}

func newProbeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Detect the local hardware profile and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := hwprobe.Detect(cmd.Context())
			if err != nil {
				return err
			}
			return printProfile(cmd.OutOrStdout(), *profile, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON instead of a human-readable summary")
	return cmd
}

func printProfile(w io.Writer, hw types.HardwareProfile, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hw)
	}
	fmt.Fprintf(w, "platform:        %s\n", hw.Platform)
	fmt.Fprintf(w, "gpu:             %s (%.1f GB)\n", hw.GPU.Name, hw.GPU.VRAMGB)
	fmt.Fprintf(w, "effective vram:  %.1f GB\n", hw.EffectiveVRAMGB)
	fmt.Fprintf(w, "tier:            %s\n", hw.Tier)
	fmt.Fprintf(w, "ram available:   %.1f GB (usable for offload: %.1f GB)\n", hw.RAM.AvailableGB, hw.RAM.UsableForOffloadGB)
	fmt.Fprintf(w, "storage free:    %.1f GB (%s, %.0f MB/s)\n", hw.Storage.FreeGB, hw.Storage.Tier, hw.Storage.ReadMBps)
	for _, warn := range hw.Warnings {
		fmt.Fprintf(w, "warning [%s]:    %s\n", warn.Severity, warn.Message)
	}
	return nil
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Catalog document inspection",
	}
	cmd.AddCommand(newCatalogValidateCmd())
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Load a catalog document and report errors or warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d entries loaded\n", len(cat.All()))
			for _, w := range cat.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			return nil
		},
	}
}

func newRecommendCmd() *cobra.Command {
	var catalogPath, userPath, hardwarePath string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Run the recommendation pipeline against file-based fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogPath == "" || userPath == "" {
				return fmt.Errorf("--catalog and --user are required")
			}
			cat, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}
			user, err := loadUserProfile(userPath)
			if err != nil {
				return fmt.Errorf("loading user profile: %w", err)
			}
			hw, err := resolveHardware(cmd.Context(), hardwarePath)
			if err != nil {
				return fmt.Errorf("resolving hardware profile: %w", err)
			}
			result, err := recommend.Recommend(cmd.Context(), user, hw, cat, nil)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printResultSummary(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to the catalog document (yaml/json/toml)")
	cmd.Flags().StringVar(&userPath, "user", "", "path to the user profile document (yaml/json)")
	cmd.Flags().StringVar(&hardwarePath, "hardware", "", "path to a hardware profile document; if omitted, probes the local host")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full RecommendationResult as JSON instead of a summary")
	return cmd
}

// printResultSummary renders the manifest half of a RecommendationResult:
// what got selected per modality and the aggregate download footprint,
// formatted for a terminal rather than for a machine consumer.
func printResultSummary(w io.Writer, result *types.RecommendationResult) error {
	for modality, ranked := range result.PerModalityRankings {
		if len(ranked) == 0 {
			continue
		}
		top := ranked[0]
		fmt.Fprintf(w, "%-8s %s (score %.2f)\n", modality, top.Passing.ModelID, top.TopsisScore)
	}
	fmt.Fprintf(w, "\ndownload footprint: %s across %d selection(s), ~%d min install\n",
		humanize.Bytes(uint64(result.Manifest.TotalSizeGB*1e9)),
		len(result.Manifest.Selected),
		result.Manifest.EstimatedInstallMinutes,
	)
	if result.Manifest.SpaceShortGB > 0 {
		fmt.Fprintf(w, "storage short by %s\n", humanize.Bytes(uint64(result.Manifest.SpaceShortGB*1e9)))
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning [%s]: %s\n", warn.Severity, warn.Message)
	}
	return nil
}

func resolveHardware(ctx context.Context, path string) (types.HardwareProfile, error) {
	if path == "" {
		profile, err := hwprobe.Detect(ctx)
		if err != nil {
			return types.HardwareProfile{}, err
		}
		return *profile, nil
	}
	return loadHardwareProfile(path)
}

// Main is the recctl entry point, returning a process exit code. It lets
// cmd/recctl stay a thin wrapper while keeping Execute's error handling
// testable from within this package.
func Main() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}
