package sanity

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Reference points at another document or asset.
type Reference struct {
	Type string `json:"_type,omitempty"`
	Ref  string `json:"_ref"`
}

// Crop is the fraction trimmed from each edge of the source image.
type Crop struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Hotspot is the focal area of the image, in fractions of its size.
type Hotspot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Image is an image field as stored on a document. Callers treat it as
// opaque and resolve it through Client.Image.
type Image struct {
	Type    string     `json:"_type,omitempty"`
	Asset   *Reference `json:"asset,omitempty"`
	Crop    *Crop      `json:"crop,omitempty"`
	Hotspot *Hotspot   `json:"hotspot,omitempty"`
}

// IsZero reports whether the image has no asset to point at.
func (img *Image) IsZero() bool {
	return img == nil || img.Asset == nil || img.Asset.Ref == ""
}

// assetRef is a parsed "image-<id>-<width>x<height>-<format>" reference.
type assetRef struct {
	id     string
	width  int
	height int
	format string
}

func parseAssetRef(ref string) (assetRef, bool) {
	parts := strings.Split(ref, "-")
	if len(parts) < 4 || parts[0] != "image" {
		return assetRef{}, false
	}
	format := parts[len(parts)-1]
	dims := strings.SplitN(parts[len(parts)-2], "x", 2)
	if len(dims) != 2 || format == "" {
		return assetRef{}, false
	}
	w, err := strconv.Atoi(dims[0])
	if err != nil || w <= 0 {
		return assetRef{}, false
	}
	h, err := strconv.Atoi(dims[1])
	if err != nil || h <= 0 {
		return assetRef{}, false
	}
	return assetRef{
		id:     strings.Join(parts[1:len(parts)-2], "-"),
		width:  w,
		height: h,
		format: format,
	}, true
}

// ImageBuilder accumulates transformation parameters for one image.
type ImageBuilder struct {
	cfg     Config
	img     Image
	width   int
	height  int
	quality int
	fit     string
	auto    string
}

// Image starts a URL for img. A nil or empty image produces an empty URL.
func (c *Client) Image(img *Image) *ImageBuilder {
	b := &ImageBuilder{cfg: c.cfg}
	if img != nil {
		b.img = *img
	}
	return b
}

// Width sets the output width in pixels.
func (b *ImageBuilder) Width(w int) *ImageBuilder {
	b.width = w
	return b
}

// Height sets the output height in pixels.
func (b *ImageBuilder) Height(h int) *ImageBuilder {
	b.height = h
	return b
}

// Fit sets the resize mode: clip, crop, fill, fillmax, max, scale, min.
func (b *ImageBuilder) Fit(mode string) *ImageBuilder {
	b.fit = mode
	return b
}

// Quality sets the lossy compression quality (1-100).
func (b *ImageBuilder) Quality(q int) *ImageBuilder {
	b.quality = q
	return b
}

// AutoFormat lets the image service choose the best format for the client.
func (b *ImageBuilder) AutoFormat() *ImageBuilder {
	b.auto = "format"
	return b
}

// URL renders the final image URL, or "" when the reference is unusable.
func (b *ImageBuilder) URL() string {
	if b.img.IsZero() {
		return ""
	}
	ref, ok := parseAssetRef(b.img.Asset.Ref)
	if !ok {
		return ""
	}
	u := b.cfg.imageHost() + "/images/" + url.PathEscape(b.cfg.ProjectID) + "/" +
		url.PathEscape(b.cfg.Dataset) + "/" + ref.id + "-" +
		strconv.Itoa(ref.width) + "x" + strconv.Itoa(ref.height) + "." + ref.format

	q := url.Values{}
	if rect, ok := cropRect(b.img.Crop, ref); ok {
		q.Set("rect", rect)
	}
	if b.width > 0 {
		q.Set("w", strconv.Itoa(b.width))
	}
	if b.height > 0 {
		q.Set("h", strconv.Itoa(b.height))
	}
	if b.fit != "" {
		q.Set("fit", b.fit)
	}
	if b.fit == "crop" && b.img.Hotspot != nil {
		q.Set("crop", "focalpoint")
		q.Set("fp-x", formatFraction(b.img.Hotspot.X))
		q.Set("fp-y", formatFraction(b.img.Hotspot.Y))
	}
	if b.quality > 0 {
		q.Set("q", strconv.Itoa(b.quality))
	}
	if b.auto != "" {
		q.Set("auto", b.auto)
	}
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}

// cropRect converts edge fractions to a pixel rectangle "left,top,w,h".
// An absent or no-op crop yields ok == false.
func cropRect(c *Crop, ref assetRef) (string, bool) {
	if c == nil || (c.Top == 0 && c.Bottom == 0 && c.Left == 0 && c.Right == 0) {
		return "", false
	}
	w, h := float64(ref.width), float64(ref.height)
	left := int(math.Round(c.Left * w))
	top := int(math.Round(c.Top * h))
	width := int(math.Round(w - c.Right*w - c.Left*w))
	height := int(math.Round(h - c.Bottom*h - c.Top*h))
	if width <= 0 || height <= 0 {
		return "", false
	}
	return strconv.Itoa(left) + "," + strconv.Itoa(top) + "," +
		strconv.Itoa(width) + "," + strconv.Itoa(height), true
}

func formatFraction(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
