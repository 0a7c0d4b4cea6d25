// iccconvert converts the colour profile of a PNG, TIFF or JPEG 2000 image.
//
// The input's embedded ICC profile is taken as the source (sRGB when the
// file has none). The output is written with the target profile embedded.
//
// Usage:
//
//	iccconvert [options] infile outfile
//
// Options:
//
//	-preset <name>   target preset (srgb, rec709, rec2020, dcip3, dcip3d65) - default: srgb
//	-profile <file>  target ICC profile file; overrides -preset
//	-linear          use the linear-TRC variant of the target
//	-wide            convert to linear wide-gamut RGB instead of a target profile
//	-workers <n>     goroutines applying rows; 0 uses every CPU
//	-v               verbose output
//	-version         show version information
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mrjoshuak/go-iccimage/iccimage"
	"github.com/mrjoshuak/go-iccimage/imageio"
	"github.com/mrjoshuak/go-iccimage/observability"
)

const version = "1.0.0"

type config struct {
	inFile, outFile string
	preset          iccimage.Preset
	profileFile     string
	linear          bool
	wide            bool
	workers         int
	verbose         bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("iccconvert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	presetName := fs.String("preset", "srgb", "target preset (srgb, rec709, rec2020, dcip3, dcip3d65)")
	profileFile := fs.String("profile", "", "target ICC profile file; overrides -preset")
	linear := fs.Bool("linear", false, "use the linear-TRC variant of the target")
	wide := fs.Bool("wide", false, "convert to linear wide-gamut RGB")
	workers := fs.Int("workers", 0, "goroutines applying rows; 0 uses every CPU")
	verbose := fs.Bool("v", false, "verbose output")
	showVersion := fs.Bool("version", false, "show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iccconvert [options] infile outfile\n\n")
		fmt.Fprintf(stderr, "Convert the colour profile of a PNG, TIFF or JPEG 2000 image.\n")
		fmt.Fprintf(stderr, "The format of each file is taken from its extension.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "iccconvert version %s\n", version)
		return 0
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}

	preset, err := iccimage.ParsePreset(*presetName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *workers == 0 {
		*workers = -1
	}

	cfg := config{
		inFile:      fs.Arg(0),
		outFile:     fs.Arg(1),
		preset:      preset,
		profileFile: *profileFile,
		linear:      *linear,
		wide:        *wide,
		workers:     *workers,
		verbose:     *verbose,
	}
	if err := convert(cfg, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) observability.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return observability.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func convert(cfg config, stdout, stderr io.Writer) error {
	inFormat := imageio.FormatFromPath(cfg.inFile)
	outFormat := imageio.FormatFromPath(cfg.outFile)
	if inFormat == imageio.FormatUnknown {
		return fmt.Errorf("cannot tell the format of %s", cfg.inFile)
	}
	if outFormat == imageio.FormatUnknown {
		return fmt.Errorf("cannot tell the format of %s", cfg.outFile)
	}

	log := newLogger(stderr, cfg.verbose)
	conv := iccimage.NewConverter(iccimage.Options{Logger: log, Workers: cfg.workers})

	if cfg.verbose {
		fmt.Fprintf(stdout, "Reading file %s\n", cfg.inFile)
	}
	f, err := os.Open(cfg.inFile)
	if err != nil {
		return fmt.Errorf("cannot open input file: %w", err)
	}
	img, err := imageio.Decode(f, inFormat)
	f.Close()
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	defer img.Release()

	if cfg.verbose {
		fmt.Fprintf(stdout, "  Size: %dx%d, %d channels of %d bytes (%v)\n",
			img.Width(), img.Height(), img.Channels(), img.ComponentSize(), img.Encoding())
		fmt.Fprintf(stdout, "  Source profile: %s\n", describe(img.Profile()))
	}

	out := img
	if cfg.wide {
		var src []byte
		if p := img.Profile(); p != nil {
			src = p.Data()
		}
		out, err = conv.ConvertToLinearWideGamut(img.Data(), img.Layout(), src)
		if err != nil {
			return err
		}
		defer out.Release()
	} else {
		target, err := loadTarget(conv, cfg)
		if err != nil {
			return err
		}
		defer target.Release()
		if err := conv.ConvertColorProfile(img, target); err != nil {
			return err
		}
	}

	if cfg.verbose {
		fmt.Fprintf(stdout, "  Target profile: %s\n", describe(out.Profile()))
		fmt.Fprintf(stdout, "Writing file %s\n", cfg.outFile)
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, out, outFormat); err != nil {
		return fmt.Errorf("cannot encode output: %w", err)
	}
	if err := os.WriteFile(cfg.outFile, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("cannot write output file: %w", err)
	}
	return nil
}

func loadTarget(conv *iccimage.Converter, cfg config) (*iccimage.ColorProfile, error) {
	var target *iccimage.ColorProfile
	if cfg.profileFile != "" {
		data, err := os.ReadFile(cfg.profileFile)
		if err != nil {
			return nil, fmt.Errorf("cannot read profile: %w", err)
		}
		if target, err = iccimage.NewColorProfile(data); err != nil {
			return nil, err
		}
	} else {
		var err error
		if target, err = conv.NewPreset(cfg.preset); err != nil {
			return nil, err
		}
	}
	if !cfg.linear {
		return target, nil
	}
	defer target.Release()
	return conv.Linearize(target)
}

func describe(p *iccimage.ColorProfile) string {
	if p == nil {
		return "none (sRGB)"
	}
	name := p.Name()
	if name == "" {
		name = "unnamed"
	}
	return fmt.Sprintf("%s, %d bytes, linear=%v, sRGB=%v", name, p.Size(), p.IsLinear(), p.IsSRGB())
}
