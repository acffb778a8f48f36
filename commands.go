package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/OneeMe/obsidian-social-share/config"
	"github.com/OneeMe/obsidian-social-share/document"
	"github.com/OneeMe/obsidian-social-share/fonts"
	"github.com/OneeMe/obsidian-social-share/layout"
	"github.com/OneeMe/obsidian-social-share/renderer"
	canvasrenderer "github.com/OneeMe/obsidian-social-share/renderer/canvas"
	"github.com/OneeMe/obsidian-social-share/renderer/raster"
	"github.com/OneeMe/obsidian-social-share/share"
	"github.com/OneeMe/obsidian-social-share/state"
)

func backendNames() []string { return []string{"canvas", "raster"} }

func newBackend(name string, log *zap.Logger) (renderer.Backend, error) {
	switch name {
	case "", "canvas":
		return canvasrenderer.NewBackendWithOptions(canvasrenderer.Options{Log: log}), nil
	case "raster":
		return raster.NewBackend(raster.Options{}), nil
	default:
		return nil, fmt.Errorf("unknown drawing backend %q", name)
	}
}

// applyFlags overwrites configuration values with explicitly given flags.
func applyFlags(cfg config.ShareConfig, cmd *cli.Command) config.ShareConfig {
	if cmd.IsSet("label") {
		cfg.Label = cmd.String("label")
	}
	if cmd.IsSet("lines") {
		cfg.LinesPerPage = int(cmd.Int("lines"))
	}
	if cmd.IsSet("layout") {
		cfg.LayoutPath = cmd.String("layout")
	}
	if cmd.IsSet("format") {
		cfg.Format = cmd.String("format")
	}
	if cmd.IsSet("backend") {
		cfg.Backend = cmd.String("backend")
	}
	if cmd.IsSet("policy") {
		cfg.FailurePolicy = cmd.String("policy")
	}
	return cfg
}

func sheetOptions(cfg config.SheetConfig) (share.SheetOptions, error) {
	bg, err := layout.ParseColor(cfg.Background)
	if err != nil {
		return share.SheetOptions{}, fmt.Errorf("bad contact sheet background: %w", err)
	}
	return share.SheetOptions{Columns: cfg.Columns, ThumbWidth: cfg.ThumbWidth, Gap: cfg.Gap, Background: bg}, nil
}

func shareDocument(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("share")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input document has been specified")
	}
	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	cfg := applyFlags(env.Cfg.Share, cmd)

	var cp encoding.Encoding
	if charset := cmd.String("charset"); len(charset) > 0 {
		if cp, err = ianaindex.IANA.Encoding(charset); err != nil || cp == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", charset), zap.Error(err))
			cp = nil
		}
	}

	doc, err := document.Load(src, cp, log)
	if err != nil {
		return err
	}
	if cmd.IsSet("name") {
		doc.Name = cmd.String("name")
	}

	cardLayout := layout.DefaultConfig()
	if len(cfg.LayoutPath) > 0 {
		if cardLayout, err = layout.LoadConfigFile(cfg.LayoutPath); err != nil {
			return fmt.Errorf("unable to load card layout: %w", err)
		}
	}
	format, err := renderer.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	policy, err := share.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return err
	}
	backend, err := newBackend(cfg.Backend, log)
	if err != nil {
		return err
	}

	r := renderer.NewRasterizer(backend, cardLayout, renderer.Options{
		Encode: renderer.EncodeOptions{Format: format, JPEGQuality: cfg.JPEGQuality, DPI: cfg.DPI},
		Log:    log,
	})

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("backend", backend.Name()), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	res, err := share.Run(ctx, doc, r, share.Options{
		Label:             cfg.Label,
		LinesPerPage:      cfg.LinesPerPage,
		ContinuationTitle: cfg.ContinuationTitle,
		NameTemplate:      cfg.NameTemplate,
		Transliterate:     cfg.NameTransliterate,
		Policy:            policy,
		Log:               log,
	})
	if errors.Is(err, share.ErrNoContent) {
		log.Info("Nothing to share", zap.String("document", src))
		return nil
	}
	if err != nil {
		return err
	}
	if res.Failed != nil {
		log.Warn("Some cards were not produced", zap.Ints("pages", res.Skipped), zap.Error(res.Failed))
	}

	files, err := share.Write(res, dst, cfg.Manifest, log)
	if err != nil {
		return err
	}

	if path := cmd.String("debug-layout"); len(path) > 0 {
		if err := layout.WriteDebugJSON(res.Layouts(), path); err != nil {
			return fmt.Errorf("unable to write layout debug file: %w", err)
		}
		log.Debug("Layout written", zap.String("file", path))
	}

	if cmd.Bool("sheet") && len(res.Cards) > 0 {
		opts, err := sheetOptions(cfg.Sheet)
		if err != nil {
			return err
		}
		imgs := make([]image.Image, 0, len(res.Cards))
		for _, c := range res.Cards {
			img, err := imaging.Decode(bytes.NewReader(c.Image.Data))
			if err != nil {
				return fmt.Errorf("unable to decode card %d: %w", c.Page.PageNumber, err)
			}
			imgs = append(imgs, img)
		}
		sheet, err := share.Sheet(imgs, opts)
		if err != nil {
			return err
		}
		path := filepath.Join(dst, config.CleanFileName(doc.Name+"_"+res.Label+"_sheet")+".png")
		if err := imaging.Save(sheet, path); err != nil {
			return fmt.Errorf("unable to save contact sheet: %w", err)
		}
		files = append(files, path)
	}

	log.Info("Cards created", zap.Int("cards", len(res.Cards)), zap.Int("pages", res.TotalPages), zap.Strings("files", files))
	return nil
}

func buildSheet(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("sheet")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no source directory has been specified")
	}
	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = filepath.Join(src, "sheet.png")
	}

	opts, err := sheetOptions(env.Cfg.Share.Sheet)
	if err != nil {
		return err
	}
	paths, err := share.CollectImages(src, log)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Info("No card images found", zap.String("source", src))
		return nil
	}
	sheet, err := share.SheetFromFiles(paths, opts)
	if err != nil {
		return err
	}
	if err := imaging.Save(sheet, dst); err != nil {
		return fmt.Errorf("unable to save contact sheet: %w", err)
	}
	log.Info("Contact sheet created", zap.Int("cards", len(paths)), zap.String("file", dst))
	return nil
}

func listFonts(ctx context.Context, _ *cli.Command) error {
	env := state.EnvFromContext(ctx)
	for _, name := range fonts.Names() {
		fmt.Fprintln(os.Stdout, "embed:"+name)
	}
	env.Log.Debug("Embedded fonts listed", zap.Int("count", len(fonts.Names())))
	return nil
}
