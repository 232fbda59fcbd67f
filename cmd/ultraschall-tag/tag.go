package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ultraschall/podcast-tools/internal/audio"
	"github.com/ultraschall/podcast-tools/internal/batch"
	ioutils "github.com/ultraschall/podcast-tools/internal/io"
	"github.com/ultraschall/podcast-tools/internal/model"
)

// maxInputSize bounds property, marker and cover files read from disk.
const maxInputSize = 32 << 20

func newPropertiesCmd(a *app) *cobra.Command {
	var (
		from   string
		fields model.Properties
		backup bool
	)

	cmd := &cobra.Command{
		Use:   "properties <file.mp3>...",
		Short: "Show or write title, artist, album, date, genre and comment",
		Long: `Without --from or field flags the current properties of each file are
printed. --from reads six newline separated fields from a file ("-" for
stdin). Field flags override single fields of the --from input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			changed := false
			for _, name := range []string{"title", "artist", "album", "date", "genre", "comment"} {
				changed = changed || flags.Changed(name)
			}

			if from == "" && !changed {
				return showProperties(cmd, args)
			}

			props := &model.Properties{}
			if from != "" {
				data, err := readInput(cmd, from)
				if err != nil {
					return err
				}
				if props, err = model.ParseProperties(string(data)); err != nil {
					return err
				}
			} else if len(args) == 1 {
				// Single file: start from what is already there.
				if current, err := audio.ReadProperties(args[0]); err == nil {
					props = current
				}
			}

			override(flags.Changed("title"), &props.Title, fields.Title)
			override(flags.Changed("artist"), &props.Artist, fields.Artist)
			override(flags.Changed("album"), &props.Album, fields.Album)
			override(flags.Changed("date"), &props.Date, fields.Date)
			override(flags.Changed("genre"), &props.Genre, fields.Genre)
			override(flags.Changed("comment"), &props.Comment, fields.Comment)

			return a.runBatch(cmd, args, batch.Job{Backup: backup, Properties: props.String()})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&from, "from", "f", "", "file with six newline separated fields")
	flags.StringVar(&fields.Title, "title", "", "title")
	flags.StringVar(&fields.Artist, "artist", "", "artist")
	flags.StringVar(&fields.Album, "album", "", "album")
	flags.StringVar(&fields.Date, "date", "", "recording date")
	flags.StringVar(&fields.Genre, "genre", "", "genre")
	flags.StringVar(&fields.Comment, "comment", "", "comment")
	flags.BoolVarP(&backup, "backup", "b", false, "copy each file to <name>.bak first")
	return cmd
}

func override(changed bool, dst *string, value string) {
	if changed {
		*dst = value
	}
}

func showProperties(cmd *cobra.Command, paths []string) error {
	out := cmd.OutOrStdout()
	for _, path := range paths {
		props, err := audio.ReadProperties(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", path)
		fmt.Fprintf(out, "  Title:   %s\n", props.Title)
		fmt.Fprintf(out, "  Artist:  %s\n", props.Artist)
		fmt.Fprintf(out, "  Album:   %s\n", props.Album)
		fmt.Fprintf(out, "  Date:    %s\n", props.Date)
		fmt.Fprintf(out, "  Genre:   %s\n", props.Genre)
		fmt.Fprintf(out, "  Comment: %s\n", props.Comment)
	}
	return nil
}

func newCoverCmd(a *app) *cobra.Command {
	var (
		maxSize int
		jpeg    bool
		save    string
		backup  bool
	)

	cmd := &cobra.Command{
		Use:   "cover <image|url> <file.mp3>...",
		Short: "Embed a JPEG or PNG front cover",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				data []byte
				err  error
			)
			switch {
			case isURL(args[0]) && save != "":
				if err = a.downloadCover(cmd, args[0], save); err == nil {
					data, err = ioutils.ReadFile(save, maxInputSize)
				}
			case isURL(args[0]):
				data, err = a.httpClient().DownloadBytes(ctx, args[0])
			default:
				data, err = ioutils.ReadFile(args[0], maxInputSize)
			}
			if err != nil {
				return fmt.Errorf("reading cover: %w", err)
			}

			if audio.QueryMIMEType(data) == "" {
				return audio.ErrUnknownImageType
			}

			opts := ioutils.CoverOptions{MaxSize: a.settings.CoverMaxSize, ConvertToJPEG: a.settings.ConvertCoverToJPG}
			if cmd.Flags().Changed("max-size") {
				opts.MaxSize = maxSize
			}
			if cmd.Flags().Changed("jpeg") {
				opts.ConvertToJPEG = jpeg
			}
			data, err = ioutils.NewImageService().PrepareCover(ctx, data, opts)
			if err != nil {
				return fmt.Errorf("preparing cover: %w", err)
			}

			return a.runBatch(cmd, args[1:], batch.Job{Backup: backup, Cover: data})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&maxSize, "max-size", 0, "shrink the cover to fit this many pixels (0 keeps the size)")
	flags.BoolVar(&jpeg, "jpeg", false, "re-encode the cover as JPEG")
	flags.StringVar(&save, "save", "", "keep a downloaded cover at this path")
	flags.BoolVarP(&backup, "backup", "b", false, "copy each file to <name>.bak first")
	return cmd
}

// downloadCover stores the cover at url in path, printing the progress.
func (a *app) downloadCover(cmd *cobra.Command, url, path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	err := a.httpClient().DownloadFile(cmd.Context(), url, path, func(written, total int64) {
		if total > 0 && a.verbose {
			fmt.Fprintf(out, "\r  %.1f%%", float64(written)/float64(total)*100)
		}
	})
	if a.verbose {
		fmt.Fprintln(out)
	}
	if err != nil {
		return err
	}
	a.log.Debug().Str("url", url).Str("path", path).Msg("cover downloaded")
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func newChaptersCmd(a *app) *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "chapters <markers.txt> <file.mp3>...",
		Short: "Write chapters from a marker file",
		Long: `The marker file holds one chapter per line in the mp4chaps layout:

  00:00:00.000 Intro
  00:05:12.500 Interview

Existing chapters and the table of contents are replaced.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			markers, err := model.ParseMarkers(bytes.NewReader(data))
			if err != nil {
				return err
			}
			if len(markers) == 0 {
				return audio.ErrNoMarkers
			}
			return a.runBatch(cmd, args[1:], batch.Job{Backup: backup, Markers: markers})
		},
	}

	cmd.Flags().BoolVarP(&backup, "backup", "b", false, "copy each file to <name>.bak first")
	return cmd
}

func newListChaptersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-chapters <file.mp3>",
		Short: "Print the chapters of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, toc, err := audio.ReadChapters(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if toc != nil {
				fmt.Fprintf(out, "Table of contents %q: %d entries\n", toc.ElementID, len(toc.Children))
			}
			for _, c := range chapters {
				fmt.Fprintf(out, "%s %s - %s %s\n", c.ElementID,
					model.FormatTimestamp(c.Start.Seconds()), model.FormatTimestamp(c.End.Seconds()), c.Title)
			}
			return nil
		},
	}
}

func newExportChaptersCmd(a *app) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export-chapters <file.mp3>",
		Short: "Write the chapters of a file as mp4chaps, psc or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := audio.ParseChapterFormat(format)
			if err != nil {
				return err
			}

			chapters, _, err := audio.ReadChapters(args[0])
			if err != nil {
				return err
			}
			markers := make([]model.Marker, len(chapters))
			for i, c := range chapters {
				markers[i] = c.Marker()
			}

			content := audio.NewChapterExporter(f).Export(markers)
			if output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], ".mp3") + f.Extension()
			}
			if err := ioutils.EnsureDir(filepath.Dir(output)); err != nil {
				return err
			}
			if err := ioutils.WriteFile(cmd.Context(), output, []byte(content)); err != nil {
				return err
			}
			a.log.Info().Str("path", output).Int("chapters", len(markers)).Msg("chapters exported")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&format, "format", "mp4chaps", "mp4chaps, psc or json")
	flags.StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default <file> with the format extension)`)
	return cmd
}

func newDurationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duration <file.mp3>...",
		Short: "Print the playing time of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				d, err := audio.ProbeDuration(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", model.FormatTimestamp(d.Seconds()), path)
			}
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "remove <frame-id> <file.mp3>...",
		Short: "Delete every frame with the given id, e.g. APIC or CHAP",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args[1:], batch.Job{Backup: backup, Remove: []string{strings.ToUpper(args[0])}})
		},
	}

	cmd.Flags().BoolVarP(&backup, "backup", "b", false, "copy each file to <name>.bak first")
	return cmd
}

// readInput reads a small input file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxInputSize+1))
		if err != nil {
			return nil, err
		}
		if len(data) > maxInputSize {
			return nil, fmt.Errorf("stdin exceeds %d bytes", maxInputSize)
		}
		return data, nil
	}
	return ioutils.ReadFile(path, maxInputSize)
}
