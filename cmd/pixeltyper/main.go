// PixelTyper - Template-based text overlay for raster images.
//
// Usage:
//
//	pixeltyper [--config <file>] [--data-dir <dir>] [-v] <command> [options]
//	pixeltyper overlay --image in.png --text "Hello" --x 10 --y 20 -o out.png
//	pixeltyper capture --image in.png --name cert
//	pixeltyper apply --image in.png --template cert --text name=Alice -o out.png
//	pixeltyper serve [--addr :8080]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/PixelTyper/pkg/compose"
	"github.com/xob0t/PixelTyper/pkg/config"
	"github.com/xob0t/PixelTyper/pkg/fonts"
	"github.com/xob0t/PixelTyper/pkg/template"
)

// env is everything a command needs, built once from the configuration.
type env struct {
	cfg    *config.Config
	log    *logrus.Logger
	fonts  *fonts.Resolver
	store  *template.Store
	engine *compose.Engine
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"overlay": runOverlay,
	"capture": runCapture,
	"apply":   runApply,
	"update":  runUpdate,
	"list":    runList,
	"show":    runShow,
	"fonts":   runFonts,
	"serve":   runServe,
}

func main() {
	root := flag.NewFlagSet("pixeltyper", flag.ContinueOnError)
	var (
		configPath string
		dataDir    string
		verbose    bool
	)
	root.StringVar(&configPath, "config", "config.json", "Configuration file")
	root.StringVar(&dataDir, "data-dir", "", "Override the data directory")
	root.BoolVar(&verbose, "v", false, "Verbose (debug) logging")
	root.Usage = printUsage

	if err := root.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if root.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	name, args := root.Arg(0), root.Args()[1:]
	if name == "help" {
		printUsage()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		printUsage()
		fatal(fmt.Errorf("unknown command %q", name))
	}

	e, err := setup(configPath, dataDir, verbose)
	if err != nil {
		fatal(err)
	}
	if err := cmd(e, args); err != nil {
		fatal(err)
	}
}

func setup(configPath, dataDir string, verbose bool) (*env, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg = cfg.WithDataDir(dataDir)
	}
	log.WithFields(logrus.Fields{"config": configPath, "data_dir": cfg.DataDir}).Debug("configuration loaded")

	resolver := fonts.FromConfig(cfg, log)
	store := template.NewStore(cfg.TemplateDir(), log)
	return &env{
		cfg:    cfg,
		log:    log,
		fonts:  resolver,
		store:  store,
		engine: compose.New(resolver, store, log),
	}, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`PixelTyper - Template-based text overlay for raster images

USAGE:
    pixeltyper [global options] <command> [options]

GLOBAL OPTIONS:
    --config <file>        Configuration JSON (default: config.json)
    --data-dir <dir>       Data directory holding coord_templates/ and fonts/
    -v                     Debug logging

COMMANDS:
    overlay                Draw one line of text at a position
    capture                Click points on an image to create a template
    apply                  Draw texts at the points of a template
    update                 Change the stored font fields of template points
    list                   List templates
    show                   Print the points of a template
    fonts                  List fonts, or "fonts install <file>"
    serve                  Start the HTTP API

STYLE OPTIONS (overlay, apply):
    --color <c>            Colour name, #hex or rgb() (default: black)
    --size <n>             Font size in pixels (default: 20)
    --font <name>          Font name (default: built-in fallback)
    --opacity <0-100>      Text opacity percent (default: 100)

EXAMPLES:
    pixeltyper capture --image blank.png --name certificate
    pixeltyper capture --image blank.png --name certificate --headless < clicks.txt
    pixeltyper apply --image blank.png --template certificate \
        --text name="Ada Lovelace" --text date=1843-07-01 \
        --override name.size=36 -o out/ada.png
    pixeltyper apply --image blank.png --template certificate --texts people.json
    pixeltyper update --template certificate --set date.color=#336699
    pixeltyper overlay --image photo.jpg --text "DRAFT" --x 40 --y 40 --opacity 50 -o draft.jpg
    pixeltyper serve --addr :8080
`)
}
