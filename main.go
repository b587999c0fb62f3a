package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/bob-anderson-ok/BiconvexPSF/paraxial"
	"github.com/bob-anderson-ok/BiconvexPSF/psf"
)

const version = "1_0_0"

// Exit codes
const (
	exitOK = iota
	exitUsage
	exitParamFileRead
	exitParamFileFormat
	exitParamValue
	exitLensConfig
	exitDegenerate
	exitPlotWrite
	exitSpotWrite
	exitProfileWrite
)

// Plot size in pixels (6 x 6 inches at 96 dpi)
const plotSizePixels = 576

// Samples around each ring when rasterising the spot image
const spotSamplesPerRing = 360

// Profile plot size in pixels
const (
	profileWidthPixels  = 768
	profileHeightPixels = 432
)

type options struct {
	inputs      paraxial.Inputs
	name        string  // scatter diagram output file
	spotName    string  // spot image output file, empty to skip
	spotSigma   float64 // detector blur applied to the spot in pixels, 0 for none
	profileName string  // spot cross-section plot file, empty to skip
	title       string
	windowSize  int // 0: no display window
	seed        int64
	showInput   bool
	verbose     bool
	paramsPath  string
}

func defaultOptions() options {
	return options{
		inputs: paraxial.DefaultInputs(),
		name:   "psf.png",
		title:  "Biconvex lens point spread",
		seed:   time.Now().UnixNano(),
	}
}

// parseOptions reads the command line. Values from a parameter file given
// with -params are applied first; flags set explicitly on the command line
// override them.
func parseOptions(args []string, out io.Writer) (options, int, error) {
	opts := defaultOptions()
	in := &opts.inputs

	fs := flag.NewFlagSet("BiconvexPSF", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Float64Var(&in.ObjectDistanceMm, "D", in.ObjectDistanceMm, "point source distance in mm")
	fs.Float64Var(&in.R1Mm, "R1", in.R1Mm, "radius R1 on the subject side in mm")
	fs.Float64Var(&in.ThicknessMm, "T", in.ThicknessMm, "thickness in mm")
	fs.Float64Var(&in.R2Mm, "R2", in.R2Mm, "radius R2 in mm")
	fs.Float64Var(&in.SensorDistanceMm, "D2", in.SensorDistanceMm, "distance between surface 2 and sensor plane in mm")
	fs.Float64Var(&in.ApertureMm, "OD", in.ApertureMm, "aperture in mm")
	fs.Float64Var(&in.WavelengthNm, "lambda", in.WavelengthNm, "wavelength in nm")
	fs.IntVar(&in.NumRays, "N", in.NumRays, "number of rays uniformly sampled in angle")
	fs.Float64Var(&in.SensorSizeMm, "h", in.SensorSizeMm, "size of sensor in mm")
	fs.IntVar(&in.NumPixels, "M", in.NumPixels, "number of pixels per axis")
	fs.StringVar(&opts.name, "name", opts.name, "scatter diagram image name")
	fs.StringVar(&opts.spotName, "spot", opts.spotName, "spot image name (empty: no spot image)")
	fs.Float64Var(&opts.spotSigma, "spot_sigma", opts.spotSigma, "gaussian detector blur of the spot in pixels (0: none)")
	fs.StringVar(&opts.profileName, "profile", opts.profileName, "spot cross-section plot name (empty: no plot)")
	fs.IntVar(&opts.windowSize, "window", opts.windowSize, "display window size in pixels (0: no window)")
	fs.Int64Var(&opts.seed, "seed", opts.seed, "seed for the display angle shuffle")
	fs.BoolVar(&opts.showInput, "show_input", opts.showInput, "print the parameter file contents")
	fs.BoolVar(&opts.verbose, "v", opts.verbose, "log every traced ray")
	fs.StringVar(&opts.paramsPath, "params", "", "parameter file (.json5, .json, .toml, .yaml)")

	if err := fs.Parse(args); err != nil {
		return opts, exitUsage, err
	}
	if fs.NArg() > 0 {
		return opts, exitUsage, fmt.Errorf("unexpected arguments %q", fs.Args())
	}
	if err := psf.CheckSigma(opts.spotSigma); err != nil {
		return opts, exitUsage, fmt.Errorf("spot_sigma: %w", err)
	}
	if opts.paramsPath == "" {
		return opts, exitOK, nil
	}

	fromCmdLine := opts
	table, data, err := readParamFile(opts.paramsPath)
	if err != nil {
		if data == nil {
			return opts, exitParamFileRead, err
		}
		return opts, exitParamFileFormat, err
	}

	fromFile := defaultOptions()
	fromFile.seed = fromCmdLine.seed
	fromFile.paramsPath = fromCmdLine.paramsPath
	fromFile.verbose = fromCmdLine.verbose
	if msg, ok := validateParamsAndFillOptions(table, &fromFile); !ok {
		return opts, exitParamValue, errors.New(msg)
	}
	if fromFile.showInput || fromCmdLine.showInput {
		fmt.Fprintf(out, "\nPrintout of complete parameter file contents...\n%s\n", data)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "D":
			fromFile.inputs.ObjectDistanceMm = fromCmdLine.inputs.ObjectDistanceMm
		case "R1":
			fromFile.inputs.R1Mm = fromCmdLine.inputs.R1Mm
		case "T":
			fromFile.inputs.ThicknessMm = fromCmdLine.inputs.ThicknessMm
		case "R2":
			fromFile.inputs.R2Mm = fromCmdLine.inputs.R2Mm
		case "D2":
			fromFile.inputs.SensorDistanceMm = fromCmdLine.inputs.SensorDistanceMm
		case "OD":
			fromFile.inputs.ApertureMm = fromCmdLine.inputs.ApertureMm
		case "lambda":
			fromFile.inputs.WavelengthNm = fromCmdLine.inputs.WavelengthNm
		case "N":
			fromFile.inputs.NumRays = fromCmdLine.inputs.NumRays
		case "h":
			fromFile.inputs.SensorSizeMm = fromCmdLine.inputs.SensorSizeMm
		case "M":
			fromFile.inputs.NumPixels = fromCmdLine.inputs.NumPixels
		case "name":
			fromFile.name = fromCmdLine.name
		case "spot":
			fromFile.spotName = fromCmdLine.spotName
		case "spot_sigma":
			fromFile.spotSigma = fromCmdLine.spotSigma
		case "profile":
			fromFile.profileName = fromCmdLine.profileName
		case "seed":
			fromFile.seed = fromCmdLine.seed
		case "window":
			fromFile.windowSize = fromCmdLine.windowSize
		case "show_input":
			fromFile.showInput = fromCmdLine.showInput
		}
	})
	return fromFile, exitOK, nil
}

// run builds the lens, traces the ray fan and writes the images. It returns
// the process exit code and the files written.
func run(opts options, out io.Writer, logger *slog.Logger) (int, []string, error) {
	programStart := time.Now()
	fmt.Fprintf(out, "\nVersion %s\n\n", version)

	lens, err := paraxial.NewBiconvex(opts.inputs)
	if err != nil {
		if errors.Is(err, paraxial.ErrNumericDegeneracy) {
			return exitDegenerate, nil, err
		}
		return exitLensConfig, nil, err
	}
	logger.Info("lens constructed", "lens", lens)

	p := lens.Parameters()
	fmt.Fprintf(out, "Calculated refractive index = %0.3f\n", p.RefractiveIndex)
	fmt.Fprintf(out, "Calculated focal length = %0.3f mm\n", p.FocalLengthMm)
	fmt.Fprintf(out, "Calculated f-Number = %0.3f\n", p.FNumber)
	fmt.Fprintf(out, "Calculated point object image distance %0.3f mm\n", p.ImageDistanceMm)
	fmt.Fprintf(out, "Calculated circle confusion diameter %0.3f mm\n", p.CoCDiameterMm)
	fmt.Fprintf(out, "Calculated pixel size %0.3f mm\n", p.PixelPitchMm)

	start := time.Now()
	hits := lens.Trace()
	for i, h := range hits {
		logger.Debug("ray traced", "ray", i, "angle_rad", h.Angle, "offset_m", h.Offset, "offset_px", h.OffsetPixels)
	}
	fmt.Fprintf(out, "\nTracing of %d rays took %s\n", len(hits), time.Since(start))
	fmt.Fprintf(out, "Largest sensor offset is %0.3f pixels (CoC radius %0.3f pixels)\n",
		paraxial.MaxOffsetPixels(hits), lens.CoCRadiusPixels())

	radii := paraxial.OffsetsPixels(hits)
	diagram := psf.Diagram{
		Radii:     radii,
		Angles:    psf.DisplayAngles(len(radii), rand.New(rand.NewSource(opts.seed))),
		CoCRadius: lens.CoCRadiusPixels(),
		NumPixels: lens.NumPixels(),
	}
	if err := diagram.Save(opts.name, plotSizePixels, plotSizePixels); err != nil {
		return exitPlotWrite, nil, fmt.Errorf("writing of %q failed: %w", opts.name, err)
	}
	written := []string{opts.name}
	logger.Info("scatter diagram written", "file", opts.name)

	if opts.spotName == "" && opts.profileName == "" {
		fmt.Fprintf(out, "\nTotal program run time is %s\n", time.Since(programStart))
		return exitOK, written, nil
	}

	spot, err := psf.SpotMatrix(radii, lens.NumPixels(), spotSamplesPerRing)
	if err == nil {
		spot, err = psf.Smooth(spot, opts.spotSigma)
	}
	if err != nil {
		return exitSpotWrite, written, fmt.Errorf("creation of the spot image failed: %w", err)
	}

	if opts.spotName != "" {
		img, err := psf.MatrixToGray(spot)
		if err != nil {
			return exitSpotWrite, written, fmt.Errorf("creation of the spot image failed: %w", err)
		}
		if err := psf.SaveImage(opts.spotName, img); err != nil {
			return exitSpotWrite, written, fmt.Errorf("writing of %q failed: %w", opts.spotName, err)
		}
		written = append(written, opts.spotName)
		logger.Info("spot image written", "file", opts.spotName, "sigma_px", opts.spotSigma)
	}

	if opts.profileName != "" {
		points, err := psf.Profile(spot, 0)
		if err == nil {
			err = psf.SaveProfilePlot(opts.profileName, points, lens.CoCRadiusPixels(), profileWidthPixels, profileHeightPixels)
		}
		if err != nil {
			return exitProfileWrite, written, fmt.Errorf("writing of %q failed: %w", opts.profileName, err)
		}
		written = append(written, opts.profileName)
		logger.Info("profile plot written", "file", opts.profileName)
	}

	fmt.Fprintf(out, "\nTotal program run time is %s\n", time.Since(programStart))
	return exitOK, written, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	opts, code, err := parseOptions(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		fmt.Println(fmt.Errorf("\n\t%w\n", err))
		os.Exit(code)
	}

	code, _, err = run(opts, os.Stdout, newLogger(opts.verbose))
	if err != nil {
		fmt.Println(fmt.Errorf("\n\t%w\n", err))
		os.Exit(code)
	}

	if opts.windowSize > 0 {
		showResults(opts)
	}
}
