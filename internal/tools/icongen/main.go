package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

const iconSize = 22

func main() {
	var output string
	var overwrite bool
	flag.StringVar(&output, "output", "tray/icon.png", "output path for the tray icon")
	flag.StringVar(&output, "o", "tray/icon.png", "output path for the tray icon")
	flag.BoolVar(&overwrite, "force", false, "overwrite an existing icon")
	flag.Parse()

	if !overwrite {
		if _, err := os.Stat(output); err == nil {
			fmt.Fprintf(os.Stderr, "%s exists (use -force to overwrite)\n", output)
			os.Exit(1)
		}
	}
	if err := writePNG(output, drawIcon()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, output)
}

// drawIcon renders the terminal glyph used as the tray icon: a dark
// rounded square holding a prompt chevron and a cursor bar.
func drawIcon() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	bg := color.NRGBA{R: 0x20, G: 0x24, B: 0x28, A: 0xff}
	fg := color.NRGBA{R: 0x9c, G: 0xf0, B: 0x87, A: 0xff}
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			if cornerCut(x, y) {
				continue
			}
			img.SetNRGBA(x, y, bg)
		}
	}
	for i := 0; i < 4; i++ {
		img.SetNRGBA(5+i, 7+i, fg)
		img.SetNRGBA(6+i, 7+i, fg)
		img.SetNRGBA(5+i, 13-i, fg)
		img.SetNRGBA(6+i, 13-i, fg)
	}
	for x := 11; x <= 16; x++ {
		img.SetNRGBA(x, 14, fg)
		img.SetNRGBA(x, 15, fg)
	}
	return img
}

// cornerCut reports whether the pixel lies outside the rounded corner radius.
func cornerCut(x, y int) bool {
	const r = 3
	dx := 0
	if x < r {
		dx = r - x
	} else if x >= iconSize-r {
		dx = x - (iconSize - r - 1)
	}
	dy := 0
	if y < r {
		dy = r - y
	} else if y >= iconSize-r {
		dy = y - (iconSize - r - 1)
	}
	return dx+dy > r
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create icon dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create icon file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode icon: %w", err)
	}
	return f.Close()
}
