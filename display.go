package main

import (
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

// showResults displays the scatter diagram in the main window, with the spot
// image and profile plot (when written) in windows of their own. It blocks
// until the main window is closed.
func showResults(opts options) {
	size := float32(opts.windowSize)

	// We supply an ID because the preferences API may be needed
	myApp := app.NewWithID("com.gmail.ok.anderson.bob.psf")

	w := myApp.NewWindow(opts.title)
	w.SetPadded(false)
	w.CenterOnScreen()
	img := canvas.NewImageFromFile(opts.name)
	img.FillMode = canvas.ImageFillContain
	w.SetContent(container.NewStack(img))
	w.Resize(fyne.Size{Height: size, Width: size})

	if opts.spotName != "" {
		spot := canvas.NewImageFromFile(opts.spotName)
		spot.FillMode = canvas.ImageFillContain
		// Keep each sensor pixel a sharp square when scaled up
		spot.ScaleMode = canvas.ImageScalePixels
		spot.SetMinSize(fyne.NewSize(size/2, size/2))

		w2 := myApp.NewWindow("Spot image " + filepath.Base(opts.spotName))
		w2.SetContent(container.NewCenter(spot))
		w2.Resize(fyne.NewSize(size/2, size/2))
		w2.Show()
	}

	if opts.profileName != "" {
		profile := canvas.NewImageFromFile(opts.profileName)
		profile.FillMode = canvas.ImageFillContain
		profile.SetMinSize(fyne.NewSize(profileWidthPixels, profileHeightPixels))

		w3 := myApp.NewWindow("Cut through the spot center")
		w3.SetContent(container.NewCenter(profile))
		w3.Resize(fyne.NewSize(profileWidthPixels+50, profileHeightPixels+50))
		w3.Show()
	}

	w.ShowAndRun()
}
