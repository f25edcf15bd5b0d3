package replay

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/config"
	"github.com/mpapenbr/lapracer/pkg/replay"
	"github.com/mpapenbr/lapracer/pkg/service"
	"github.com/mpapenbr/lapracer/pkg/track"
)

var speed int

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "replays a scripted race and prints the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args[0])
		},
	}
	cmd.Flags().IntVar(&speed, "speed", 0,
		"Replay speed (0 means: go as fast as possible)")
	cmd.Flags().StringVar(&config.TrackFile,
		"track-file", "", "YAML file with additional tracks")
	cmd.Flags().StringVar(&config.BlockID,
		"block-id", "", "block id reported in the completion record")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level", "warn",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format", "text", "controls the log output format")
	return cmd
}

func runReplay(cmd *cobra.Command, scriptFile string) error {
	logger, err := config.SetupLogger()
	if err != nil {
		return err
	}
	script, err := replay.LoadScript(scriptFile)
	if err != nil {
		return err
	}
	catalog := track.NewCatalog(track.WithLogger(logger.Named("track")))
	if config.TrackFile != "" {
		if err := catalog.LoadFile(config.TrackFile); err != nil {
			return err
		}
	}
	races := service.NewRaceService(
		service.WithCatalog(catalog),
		service.WithBlockID(config.BlockID),
		service.WithLogger(logger.Named("race")),
	)
	ctx := log.AddToContext(cmd.Context(), logger)
	res, err := replay.NewRunner(races, replay.WithSpeed(speed)).Run(ctx, script)
	if err != nil {
		log.Error("replay failed", log.ErrorField(err))
		return err
	}
	return printResult(cmd.OutOrStdout(), script, res)
}

func printResult(w io.Writer, script *replay.Script, res *replay.Result) error {
	fmt.Fprintf(w, "track:      %s\n", script.Track)
	fmt.Fprintf(w, "frames:     %d\n", res.Frames)
	fmt.Fprintf(w, "collisions: %d\n", res.Collisions)
	fmt.Fprintf(w, "laps:       %d/%d %v\n",
		res.Final.CurrentLap, res.Final.TotalLaps, res.LapFrames)
	fmt.Fprintf(w, "position:   x=%.3f z=%.3f rot=%.3f\n",
		res.Final.Position.X, res.Final.Position.Z, res.Final.Rotation)
	fmt.Fprintf(w, "elapsed:    %dms\n", res.Final.ElapsedMillis)
	if res.Completion == nil {
		fmt.Fprintln(w, "completion: none")
		return nil
	}
	data, err := json.Marshal(res.Completion)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "completion: %s\n", data)
	return nil
}
