package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/imgcrop/client"
	"github.com/imgcrop/config"
	"github.com/imgcrop/crop"
	"github.com/imgcrop/editor"
	"github.com/imgcrop/model"
	"github.com/imgcrop/preview"
	"github.com/imgcrop/transcoder"
	"github.com/imgcrop/web/downloader"
)

const usage = `usage: imgcrop <command> [flags] [args]

commands:
  preview <file>  write the bounded preview of a file
  crop <file>     crop a file locally without uploading
  upload <file>   crop a file and upload it
  list            list uploaded images, newest first
  delete <id>     delete an uploaded image
  pull <id>       download one variant of an uploaded image
`

type command func(ctx context.Context, env *env, args []string) error

type env struct {
	api  *client.Client
	cfg  config.Client
	out  io.Writer
	flag *pflag.FlagSet
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	commands := map[string]command{
		"preview": runPreview,
		"crop":    runCrop,
		"upload":  runUpload,
		"list":    runList,
		"delete":  runDelete,
		"pull":    runPull,
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	fs := pflag.NewFlagSet("imgcrop "+os.Args[1], pflag.ExitOnError)
	fs.String("api.url", "", "imgcrop server url")
	fs.String("log.level", "", "log level")
	fs.String("aspect", string(model.Free), "aspect ratio: 1:1, 4:3, 3:4 or free")
	fs.String("rect", "", "selection as x,y,width,height in percent of the image, or in pixels of the original with a px suffix")
	fs.String("variant", transcoder.Original, "variant to pull: original, size60 or size30")
	fs.StringP("output", "o", "", "output file")
	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatal().Err(err).Send()
	}

	v, err := config.New(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("could not read configuration")
	}
	cfg, err := config.LoadClient(v)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	e := &env{api: client.New(cfg.APIURL, nil), cfg: cfg, out: os.Stdout, flag: fs}
	if err := run(ctx, e, fs.Args()); err != nil {
		log.Error().Err(err).Msg(os.Args[1] + " failed")
		cancel()
		os.Exit(1)
	}
}

func (e *env) pipeline() preview.Pipeline {
	return preview.Pipeline{MaxDimension: e.cfg.MaxDimension, MaxFileSize: e.cfg.MaxFileSize}
}

// openEditor loads path and applies the --aspect and --rect flags.
func (e *env) openEditor(path string) (*editor.Editor, error) {
	aspect, _ := e.flag.GetString("aspect")
	tag, err := model.ParseAspectRatio(aspect)
	if err != nil {
		return nil, err
	}

	ed := editor.New(e.pipeline(), e.api, tag)
	if _, err := ed.Open(path); err != nil {
		return nil, err
	}
	if raw, _ := e.flag.GetString("rect"); raw != "" {
		r, err := parseRect(raw)
		if err != nil {
			return nil, err
		}
		adjust := ed.Adjust
		if r.Unit == crop.Pixel {
			adjust = ed.AdjustNatural
		}
		if err := adjust(r); err != nil {
			return nil, err
		}
	}
	if sel, err := ed.NaturalSelection(); err == nil {
		log.Info().
			Float64("x", sel.X).
			Float64("y", sel.Y).
			Float64("width", sel.Width).
			Float64("height", sel.Height).
			Msg("selection in original pixels")
	}
	return ed, nil
}

func (e *env) write(b []byte) error {
	out, _ := e.flag.GetString("output")
	if out == "" {
		_, err := e.out.Write(b)
		return err
	}
	return os.WriteFile(out, b, 0o644)
}

func runPreview(_ context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("preview needs exactly one file")
	}
	p, err := e.pipeline().Open(args[0])
	if err != nil {
		return err
	}
	log.Info().
		Str("file", p.Name).
		Int("width", p.Original.X).
		Int("height", p.Original.Y).
		Bool("scaled", p.Scaled()).
		Msg("preview ready")
	return e.write(p.Data)
}

func runCrop(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("crop needs exactly one file")
	}
	ed, err := e.openEditor(args[0])
	if err != nil {
		return err
	}
	blob, err := ed.Render(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("mime", blob.MIME).Int("width", blob.Width).Int("height", blob.Height).Msg("cropped")
	return e.write(blob.Data)
}

func runUpload(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("upload needs exactly one file")
	}
	ed, err := e.openEditor(args[0])
	if err != nil {
		return err
	}

	rec, err := ed.Save(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func runList(ctx context.Context, e *env, _ []string) error {
	recs, err := e.api.List(ctx)
	if err != nil {
		return err
	}
	return printRecords(e.out, recs)
}

func printRecords(out io.Writer, recs []model.ImageRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tASPECT\tORIGINAL\t60%\t30%\tCREATED")
	for _, r := range recs {
		d := r.Dimensions
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.AspectRatio,
			size(d.Original), size(d.Size60), size(d.Size30),
			r.CreatedAt.Local().Format(time.RFC822))
	}
	return w.Flush()
}

func size(d model.Dimensions) string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

func runDelete(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("delete needs exactly one id")
	}
	if err := e.api.Delete(ctx, args[0]); err != nil {
		return err
	}
	log.Info().Str("id", args[0]).Msg("deleted")
	return nil
}

func runPull(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("pull needs exactly one id")
	}
	rec, err := e.api.Get(ctx, args[0])
	if err != nil {
		return err
	}

	variant, _ := e.flag.GetString("variant")
	url, err := variantURL(rec, variant)
	if err != nil {
		return err
	}

	b, err := downloader.New(nil).Download(ctx, url)
	if err != nil {
		return err
	}
	return e.write(b)
}

func variantURL(rec model.ImageRecord, variant string) (string, error) {
	switch variant {
	case transcoder.Original:
		return rec.OriginalURL, nil
	case transcoder.Size60:
		return rec.CompressedURL60, nil
	case transcoder.Size30:
		return rec.CompressedURL30, nil
	}
	return "", fmt.Errorf("unknown variant %q", variant)
}

// parseRect reads x,y,width,height. A trailing px puts the rect in pixels
// of the original file, otherwise values are percent of the image.
func parseRect(s string) (crop.Rect, error) {
	unit := crop.Percent
	body := strings.TrimSpace(s)
	if strings.HasSuffix(body, "px") {
		unit = crop.Pixel
		body = strings.TrimSuffix(body, "px")
	}
	parts := strings.Split(body, ",")
	if len(parts) != 4 {
		return crop.Rect{}, fmt.Errorf("rect %q: want x,y,width,height", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return crop.Rect{}, fmt.Errorf("rect %q: %w", s, err)
		}
		v[i] = f
	}
	return crop.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3], Unit: unit}, nil
}
