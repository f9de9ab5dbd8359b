package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cutoutd/internal/catalog"
	"cutoutd/internal/download"
)

func newModelsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model catalog and local availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts, cmd.Flags(), os.Getenv)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			return listModels(cmd.OutOrStdout(), cat, cfg.ModelsDir)
		},
	}
	cmd.AddCommand(newModelsDownloadCmd(opts))
	return cmd
}

func listModels(w io.Writer, cat *catalog.Catalog, dir string) error {
	have, err := cat.Downloaded(dir)
	if err != nil {
		return err
	}
	got := make(map[string]bool, len(have))
	for _, id := range have {
		got[id] = true
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tRAM\tSPEED\tQUALITY\tDEFAULT\tDOWNLOADED")
	for _, m := range cat.Models() {
		fmt.Fprintf(tw, "%s\t%s\t%dMB\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Name, m.SizeMB, m.RAM, m.Speed, m.Quality, yesNo(m.IsDefault), yesNo(got[m.ID]))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newModelsDownloadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "download [model-id]",
		Short: "Download a model into the models directory",
		Long:  "Download a model into the models directory. Without an id the catalog default is fetched.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts, cmd.Flags(), os.Getenv)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			want := cfg.DefaultModel
			if len(args) == 1 {
				want = args[0]
			}
			id, err := initialModel(cat, want)
			if err != nil {
				return err
			}
			if catalog.IsDownloaded(cfg.ModelsDir, id) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already downloaded\n", id)
				return nil
			}
			dest, err := catalog.ModelPath(cfg.ModelsDir, id)
			if err != nil {
				return err
			}
			dl := download.New(cfg.DownloadBaseURL, cfg.HFToken, cfg.DownloadTimeout(), cfg.ProgressInterval())
			errOut := cmd.ErrOrStderr()
			err = dl.Download(cmd.Context(), id, dest, func(done, total int64) {
				if total > 0 {
					fmt.Fprintf(errOut, "\r%s: %d/%d MB (%d%%)", id, done>>20, total>>20, done*100/total)
					return
				}
				fmt.Fprintf(errOut, "\r%s: %d MB", id, done>>20)
			})
			fmt.Fprintln(errOut)
			if err != nil {
				return fmt.Errorf("failed to download requested model: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s saved to %s\n", id, dest)
			return nil
		},
	}
}
