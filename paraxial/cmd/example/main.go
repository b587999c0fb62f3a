// Example program showing how to use the paraxial and psf packages to:
//  1. Build the reference biconvex lens and print its derived parameters
//  2. Sweep the sensor towards the image plane and watch the blur shrink
//  3. Save a scatter diagram and a spot image for one sensor position
//
// Usage:
//
//	go run main.go
//
// The images are written to the current directory.
package main

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/bob-anderson-ok/BiconvexPSF/paraxial"
	"github.com/bob-anderson-ok/BiconvexPSF/psf"
)

func main() {
	fmt.Println("Biconvex Lens Point Spread Example")
	fmt.Println("==================================")

	in := paraxial.DefaultInputs()
	lens, err := paraxial.NewBiconvex(in)
	if err != nil {
		log.Fatalf("Failed to build lens: %v", err)
	}

	p := lens.Parameters()
	fmt.Printf("\nReference lens:")
	fmt.Printf("\n  Refractive index: %.4f", p.RefractiveIndex)
	fmt.Printf("\n  Focal length:     %.3f mm", p.FocalLengthMm)
	fmt.Printf("\n  f-number:         %.3f", p.FNumber)
	fmt.Printf("\n  Image distance:   %.3f mm", p.ImageDistanceMm)
	fmt.Printf("\n  Pixel pitch:      %.4f mm\n", p.PixelPitchMm)

	// The sensor must stay in front of the image, so stop short of it
	fmt.Println("\nSensor sweep:")
	fmt.Println("  D2 (mm)   CoC (mm)   CoC radius (px)   max offset (px)")
	for d2 := 40.0; d2 < p.ImageDistanceMm; d2 += 5 {
		in.SensorDistanceMm = d2
		l, err := paraxial.NewBiconvex(in)
		if err != nil {
			log.Fatalf("Failed to build lens with D2=%.1f mm: %v", d2, err)
		}
		hits := l.Trace()
		fmt.Printf("  %7.1f   %8.4f   %15.3f   %15.3f\n",
			d2, l.CoCDiameter()*1e3, l.CoCRadiusPixels(), paraxial.MaxOffsetPixels(hits))
	}

	hits := lens.Trace()
	radii := paraxial.OffsetsPixels(hits)

	diagram := psf.Diagram{
		Radii:     radii,
		Angles:    psf.DisplayAngles(len(radii), rand.New(rand.NewSource(1))),
		CoCRadius: lens.CoCRadiusPixels(),
		NumPixels: lens.NumPixels(),
	}
	if err := diagram.Save("example_psf.png", 576, 576); err != nil {
		log.Fatalf("Failed to save scatter diagram: %v", err)
	}
	fmt.Println("\nScatter diagram saved to example_psf.png")

	img, err := psf.SpotImage(radii, lens.NumPixels(), 360)
	if err != nil {
		log.Fatalf("Failed to build spot image: %v", err)
	}
	if err := psf.SaveImage("example_spot.png", img); err != nil {
		log.Fatalf("Failed to save spot image: %v", err)
	}
	fmt.Println("Spot image saved to example_spot.png")
}
