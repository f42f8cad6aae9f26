package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/xob0t/PixelTyper/clients/desktop"
	"github.com/xob0t/PixelTyper/clients/server"
	"github.com/xob0t/PixelTyper/pkg/capture"
	"github.com/xob0t/PixelTyper/pkg/compose"
	"github.com/xob0t/PixelTyper/pkg/template"
)

func runOverlay(e *env, args []string) error {
	fs := flag.NewFlagSet("overlay", flag.ExitOnError)
	var (
		imagePath, text, output string
		x, y                    int
		style                   styleFlags
	)
	fs.StringVar(&imagePath, "image", "", "Source image")
	fs.StringVar(&text, "text", "", "Text to draw")
	fs.IntVar(&x, "x", 0, "Left edge of the text")
	fs.IntVar(&y, "y", 0, "Top edge of the text")
	fs.StringVar(&output, "o", "", "Output image (format from extension)")
	style.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if output == "" {
		output = defaultOutput(e, "overlay", imagePath)
	}

	if _, err := e.engine.Overlay(compose.OverlayRequest{
		ImagePath:  imagePath,
		Text:       text,
		Position:   image.Pt(x, y),
		Style:      style.style(),
		OutputPath: output,
	}); err != nil {
		return err
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

func runCapture(e *env, args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	var (
		imagePath, name string
		headless        bool
	)
	fs.StringVar(&imagePath, "image", "", "Image to place points on")
	fs.StringVar(&name, "name", "", "Template name")
	fs.BoolVar(&headless, "headless", false, "Read clicks and labels from stdin instead of opening a window")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if e.store.Exists(name) {
		e.log.WithField("template", name).Warn("template exists and will be overwritten on save")
	}

	s, err := capture.NewSession(e.store, name, imagePath, capture.Options{
		MaxWidth:  e.cfg.Capture.MaxWidth,
		MaxHeight: e.cfg.Capture.MaxHeight,
		Log:       e.log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res *capture.Result
	if headless {
		fmt.Fprintf(os.Stderr, "Display scale %.3f; coordinates are in the scaled %dx%d image.\n",
			s.Scale(), s.Display().Bounds().Dx(), s.Display().Bounds().Dy())
		res, err = capture.Run(ctx, s, capture.NewLineOperator(os.Stdin, os.Stderr))
	} else {
		res, err = desktop.Capture(ctx, s)
	}
	if err != nil {
		return err
	}

	switch res.State {
	case capture.Finished:
		fmt.Printf("Saved template %q with %d points to %s\n", name, res.Points.Len(), e.store.Path(name))
	default:
		fmt.Println("Capture cancelled, nothing saved")
	}
	return nil
}

func runApply(e *env, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	var (
		imagePath, name, textsFile, output string
		texts, overrides                   multiFlag
		style                              styleFlags
	)
	fs.StringVar(&imagePath, "image", "", "Source image")
	fs.StringVar(&name, "template", "", "Template name")
	fs.Var(&texts, "text", "point=text (repeatable, drawn in order)")
	fs.StringVar(&textsFile, "texts", "", "JSON file of point → text")
	fs.Var(&overrides, "override", "point.field=value for this render only (repeatable)")
	fs.StringVar(&output, "o", "", "Output image (format from extension)")
	style.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var mapping template.TextMapping
	if textsFile != "" {
		data, err := os.ReadFile(textsFile)
		if err != nil {
			return fmt.Errorf("read texts: %w", err)
		}
		if err := json.Unmarshal(data, &mapping); err != nil {
			return fmt.Errorf("parse texts %s: %w", textsFile, err)
		}
	}
	for _, t := range texts {
		point, text, err := parseText(t)
		if err != nil {
			return err
		}
		mapping.Set(point, text)
	}

	fields := map[string]template.FontFields{}
	for _, o := range overrides {
		if err := parseFieldAssign(o, fields); err != nil {
			return err
		}
	}

	if output == "" {
		output = defaultOutput(e, name, imagePath)
	}

	res, err := e.engine.Apply(compose.ApplyRequest{
		ImagePath:  imagePath,
		Template:   name,
		Texts:      mapping,
		Overrides:  fields,
		Defaults:   style.style(),
		OutputPath: output,
	})
	if err != nil {
		return err
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped points not in template: %s\n", strings.Join(res.Skipped, ", "))
	}
	fmt.Printf("Done: %s (%d texts)\n", output, res.Drawn)
	return nil
}

func runUpdate(e *env, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	var (
		name, file string
		sets       multiFlag
	)
	fs.StringVar(&name, "template", "", "Template name")
	fs.Var(&sets, "set", "point.field=value (repeatable)")
	fs.StringVar(&file, "file", "", "JSON file of point → font fields")
	if err := fs.Parse(args); err != nil {
		return err
	}

	updates := map[string]template.FontFields{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read updates: %w", err)
		}
		if err := json.Unmarshal(data, &updates); err != nil {
			return fmt.Errorf("parse updates %s: %w", file, err)
		}
	}
	for _, s := range sets {
		if err := parseFieldAssign(s, updates); err != nil {
			return err
		}
	}
	if len(updates) == 0 {
		return fmt.Errorf("nothing to update: use --set or --file")
	}

	skipped, err := e.store.UpdateFonts(name, updates)
	if err != nil {
		return err
	}
	for _, p := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: point %q not in template %q, skipped\n", p, name)
	}
	fmt.Printf("Updated %s\n", e.store.Path(name))
	return nil
}

func runList(e *env, args []string) error {
	names, err := e.store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("No templates in %s\n", e.store.Dir())
		return nil
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runShow(e *env, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	var name string
	fs.StringVar(&name, "template", "", "Template name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if name == "" && fs.NArg() > 0 {
		name = fs.Arg(0)
	}

	pts, err := e.store.Load(name)
	if err != nil {
		return err
	}
	fmt.Print(template.Describe(name, pts))
	return nil
}

func runFonts(e *env, args []string) error {
	if len(args) > 0 && args[0] == "install" {
		if len(args) < 2 {
			return fmt.Errorf("usage: pixeltyper fonts install <file>...")
		}
		for _, path := range args[1:] {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			name, err := e.fonts.Install(filepath.Base(path), f)
			f.Close()
			if err != nil {
				return err
			}
			fmt.Printf("Installed %s into %s\n", name, e.fonts.UserDir())
		}
		return nil
	}

	for _, name := range e.fonts.Available() {
		fmt.Println(name)
	}
	return nil
}

func runServe(e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var addr string
	fs.StringVar(&addr, "addr", ":8080", "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv, err := server.New(server.Options{Engine: e.engine, Store: e.store, Fonts: e.fonts, Log: e.log})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}

// defaultOutput places output under the data directory, keeping the source
// image's extension.
func defaultOutput(e *env, prefix, imagePath string) string {
	base := filepath.Base(imagePath)
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" || ext == ".webp" {
		ext = ".png"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(e.cfg.OutputDir(), fmt.Sprintf("%s_%s%s", prefix, stem, ext))
}
