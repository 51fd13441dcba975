package paint

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/h2non/filetype"
	lru "github.com/hashicorp/golang-lru"
	"github.com/mitchellh/go-homedir"
	"github.com/nfnt/resize"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

//go:embed icons/*.svg
var iconFS embed.FS

// Builtin lists the icon names LoadImage resolves without touching the disk.
var Builtin = []string{"bulb", "check", "cross", "moon", "power", "sun"}

// imageCache holds rendered icons; a switch re-requests the same few images
// on every config reload.
type imageCache struct {
	lru *lru.Cache
}

type imageKey struct {
	src  string
	size int
	col  color.NRGBA
}

func newImageCache(size int) (*imageCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}
	return &imageCache{lru: c}, nil
}

// LoadImage resolves src to a size×size image. src is either a builtin icon
// name, an SVG file, or a PNG/JPEG file; "~" expands to the home directory.
// SVG strokes and fills written as currentColor are drawn in col. An empty
// src yields a nil image.
func (p *Painter) LoadImage(src string, size int, col color.Color) (image.Image, error) {
	if src == "" || size <= 0 {
		return nil, nil
	}
	key := imageKey{src: src, size: size, col: color.NRGBAModel.Convert(col).(color.NRGBA)}
	if img, ok := p.images.lru.Get(key); ok {
		return img.(image.Image), nil
	}

	data, err := readImageSource(src)
	if err != nil {
		return nil, err
	}

	var img image.Image
	if filetype.IsImage(data) {
		img, err = decodeRaster(data, size)
	} else {
		img, err = renderSVG(string(data), size, key.col)
	}
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", src, err)
	}

	p.images.lru.Add(key, img)
	return img, nil
}

func readImageSource(src string) ([]byte, error) {
	if data, err := iconFS.ReadFile("icons/" + src + ".svg"); err == nil {
		return data, nil
	}
	path, err := homedir.Expand(src)
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", src, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

func decodeRaster(data []byte, size int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return resize.Resize(uint(size), uint(size), img, resize.Bilinear), nil
}

// renderSVG rasterizes an SVG document to a transparent size×size image.
func renderSVG(svgContent string, size int, col color.NRGBA) (image.Image, error) {
	hexColor := fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B)
	svgContent = strings.ReplaceAll(svgContent, "currentColor", hexColor)

	icon, err := oksvg.ReadIconStream(strings.NewReader(svgContent))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Transparent}, image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(size), float64(size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, float64(col.A)/255)

	return img, nil
}
