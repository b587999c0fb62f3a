package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/KevinWang15/go-json5"
	"github.com/bob-anderson-ok/BiconvexPSF/psf"
	"gopkg.in/yaml.v3"
)

// readParamFile loads a parameter file into a generic table. The format follows
// the file extension: .toml, .yaml/.yml, anything else is read as json5 (which
// also accepts plain json). The raw bytes are returned for show_input_bool.
func readParamFile(path string) (map[string]interface{}, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("attempt to read parameter file %q failed: %w", path, err)
	}
	table, err := parseParams(data, filepath.Ext(path))
	if err != nil {
		return nil, data, fmt.Errorf("format error in file %q: %w", path, err)
	}
	return table, data, nil
}

func parseParams(data []byte, ext string) (map[string]interface{}, error) {
	var table map[string]interface{}
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(data, &table)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &table)
	default:
		err = json.Unmarshal(data, &table)
	}
	if err != nil {
		return nil, err
	}
	if table == nil {
		table = map[string]interface{}{} // empty yaml document
	}
	return table, nil
}

func getLeafValue(table map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = table
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// asFloat accepts the number types produced by the three decoders.
func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

// Every field is optional; a missing field leaves *dst at its default.

func floatParam(table map[string]interface{}, key string, dst *float64) (string, bool) {
	v, ok := getLeafValue(table, key)
	if !ok {
		return "", true
	}
	f, ok := asFloat(v)
	if !ok {
		return key + ": is not a float64", false
	}
	*dst = f
	return "", true
}

func intParam(table map[string]interface{}, key string, dst *int) (string, bool) {
	v, ok := getLeafValue(table, key)
	if !ok {
		return "", true
	}
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return key + ": is not an integer", false
	}
	*dst = int(f)
	return "", true
}

func stringParam(table map[string]interface{}, key string, dst *string) (string, bool) {
	v, ok := getLeafValue(table, key)
	if !ok {
		return "", true
	}
	s, ok := v.(string)
	if !ok {
		return key + ": is not a string", false
	}
	*dst = s
	return "", true
}

func boolParam(table map[string]interface{}, key string, dst *bool) (string, bool) {
	v, ok := getLeafValue(table, key)
	if !ok {
		return "", true
	}
	b, ok := v.(bool)
	if !ok {
		return key + ": is not a bool", false
	}
	*dst = b
	return "", true
}

// validateParamsAndFillOptions copies the recognised fields of a parameter file
// into opts, checking each value's type. Unknown keys are reported so that a
// misspelt field does not silently fall back to its default.
func validateParamsAndFillOptions(table map[string]interface{}, opts *options) (string, bool) {
	in := &opts.inputs
	floats := []struct {
		key string
		dst *float64
	}{
		{"object_distance_mm", &in.ObjectDistanceMm},
		{"r1_mm", &in.R1Mm},
		{"thickness_mm", &in.ThicknessMm},
		{"r2_mm", &in.R2Mm},
		{"sensor_distance_mm", &in.SensorDistanceMm},
		{"aperture_mm", &in.ApertureMm},
		{"wavelength_nm", &in.WavelengthNm},
		{"sensor_size_mm", &in.SensorSizeMm},
		{"spot_sigma_pixels", &opts.spotSigma},
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"num_rays", &in.NumRays},
		{"num_pixels", &in.NumPixels},
		{"window_size_pixels", &opts.windowSize},
	}
	strs := []struct {
		key string
		dst *string
	}{
		{"title", &opts.title},
		{"output_name", &opts.name},
		{"spot_image_name", &opts.spotName},
		{"profile_name", &opts.profileName},
	}

	known := map[string]bool{"show_input_bool": true, "seed": true}
	for _, p := range floats {
		known[p.key] = true
		if msg, ok := floatParam(table, p.key, p.dst); !ok {
			return msg, false
		}
	}
	for _, p := range ints {
		known[p.key] = true
		if msg, ok := intParam(table, p.key, p.dst); !ok {
			return msg, false
		}
	}
	for _, p := range strs {
		known[p.key] = true
		if msg, ok := stringParam(table, p.key, p.dst); !ok {
			return msg, false
		}
	}
	if err := psf.CheckSigma(opts.spotSigma); err != nil {
		return "spot_sigma_pixels: " + err.Error(), false
	}
	if msg, ok := boolParam(table, "show_input_bool", &opts.showInput); !ok {
		return msg, false
	}
	seed := int(opts.seed)
	if msg, ok := intParam(table, "seed", &seed); !ok {
		return msg, false
	}
	opts.seed = int64(seed)

	for key := range table {
		if !known[key] {
			return key + ": is not a recognised parameter", false
		}
	}

	return "No problem found in parameter file", true
}
