package tracks

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/lapracer/pkg/track"
)

func NewTracksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "commands to inspect track definitions",
	}
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newCheckCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	var trackFile string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists the builtin tracks and those of an optional track file",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := track.NewCatalog()
			if trackFile != "" {
				if err := catalog.LoadFile(trackFile); err != nil {
					return err
				}
			}
			return listTracks(cmd.OutOrStdout(), catalog)
		},
	}
	cmd.Flags().StringVar(&trackFile, "track-file", "", "YAML file with additional tracks")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <tracks.yaml>",
		Short: "validates a track file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := track.Load(args[0])
			if err != nil {
				return err
			}
			for _, t := range tracks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", t.Name)
			}
			return nil
		},
	}
}

func listTracks(w io.Writer, catalog *track.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBOUNDARY\tLAPS\tCHECKPOINTS\tDESCRIPTION")
	for _, name := range catalog.Names() {
		t, err := catalog.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			t.Name, t.Config.Boundary.Type, t.TotalLaps, len(t.Checkpoints), t.Description)
	}
	return tw.Flush()
}
