package imageio

import (
	"bytes"
	"image"
	"io"

	"github.com/mrjoshuak/go-jpeg2000"
)

// jp2Options are the encoder settings for JP2 output. Lossless keeps the
// converted samples intact.
func jp2Options(icc []byte) *jpeg2000.Options {
	opts := jpeg2000.DefaultOptions()
	opts.Format = jpeg2000.FormatJP2
	opts.Lossless = true
	opts.ICCProfile = icc
	return opts
}

func decodeJP2(data []byte) (image.Image, []byte, error) {
	meta, err := jpeg2000.DecodeMetadata(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	m, err := jpeg2000.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return m, meta.ICCProfile, nil
}

func encodeJP2(w io.Writer, m image.Image, icc []byte) error {
	return jpeg2000.Encode(w, m, jp2Options(icc))
}
