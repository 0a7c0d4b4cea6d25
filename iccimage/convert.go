package iccimage

import (
	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/internal/bufpool"
	"github.com/mrjoshuak/go-iccimage/internal/proxy"
	"github.com/mrjoshuak/go-iccimage/observability"
)

// InPlaceFlags are the engine flags for ConvertColorProfile. CopyAlpha is
// added when the image has an alpha channel.
const InPlaceFlags = cms.FlagNoCache | cms.FlagNoOptimize | cms.FlagNoWhiteOnWhiteFixup

// converted is a transformed pixel buffer waiting to be committed.
type converted struct {
	buf     []byte
	samples int
	proxied bool
	pool    *bufpool.Pool
}

// commitTo stores the result in dst in the image's own encoding.
func (r *converted) commitTo(dst []byte) {
	if r.proxied {
		proxy.Narrow(dst, r.buf, r.samples)
		return
	}
	copy(dst, r.buf)
}

func (r *converted) release() {
	r.pool.Put(r.buf)
	r.buf = nil
}

// transform runs src to dst over data without modifying it. The caller
// must validate the layout and release the result.
func (c *Converter) transform(data []byte, l Layout, src, dst cms.Profile, intent cms.Intent, flags cms.Flags) (*converted, error) {
	format := cms.ResolveFormat(l.Channels, l.ComponentSize, l.Encoding)
	if format == cms.FormatUnsupported {
		return nil, newError(CodeInvalidComponentWidth, nil, "no pixel format for %d channels of %d bytes", l.Channels, l.ComponentSize)
	}
	if format.HasAlpha() {
		flags |= cms.FlagCopyAlpha
	}

	samples := l.Width * l.Height * l.Channels
	work := data
	proxied := l.normalized().Encoding.NeedsProxy()
	if proxied {
		wide := c.pool.Get(proxy.ExpandedSize(samples))
		if wide == nil {
			return nil, newError(CodeAllocationFailure, nil, "proxy buffer of %d bytes", proxy.ExpandedSize(samples))
		}
		defer c.pool.Put(wide)
		proxy.Expand(wide, data, samples)
		work = wide
	}

	xf, err := c.engine.CreateTransform(src, format, dst, format, intent, flags)
	if err != nil {
		return nil, newError(CodeTransformCreationFailure, err, "create %v transform", format)
	}
	defer xf.Close()

	out := c.pool.Get(len(work))
	if out == nil {
		return nil, newError(CodeAllocationFailure, nil, "output buffer of %d bytes", len(work))
	}
	rowBytes := l.Width * format.PixelSize()
	if err := applyRows(xf, work, out, l.Width, l.Height, rowBytes, rowBytes, c.workers); err != nil {
		c.pool.Put(out)
		return nil, newError(CodeTransformApplyFailure, err, "apply transform")
	}
	return &converted{buf: out, samples: samples, proxied: proxied, pool: c.pool}, nil
}

// ConvertColorProfile converts img in place from its current profile to
// target, using relative colorimetric intent. A nil profile on either side
// means sRGB.
//
// On success the pixel buffer holds the converted samples and the image's
// profile is replaced by the engine's serialization of target. On failure
// img is left exactly as it was.
func (c *Converter) ConvertColorProfile(img *Image, target *ColorProfile) error {
	if img == nil {
		return c.fail(newError(CodeInvalidDimension, nil, "nil image"))
	}
	l := img.layout
	data := img.Data()
	if err := l.validateBuffer(len(data)); err != nil {
		return c.fail(err.(*Error))
	}

	src, err := c.openProfile(img.profile)
	if err != nil {
		return c.fail(newError(CodeProfileOpenFailure, err, "open source profile"))
	}
	defer src.Close()

	dst, err := c.openProfile(target)
	if err != nil {
		return c.fail(newError(CodeProfileOpenFailure, err, "open target profile"))
	}
	defer dst.Close()

	res, err := c.transform(data, l, src, dst, cms.IntentRelativeColorimetric, InPlaceFlags)
	if err != nil {
		return c.fail(err.(*Error))
	}
	defer res.release()

	saved, err := c.engine.SaveProfile(dst)
	if err != nil {
		return c.fail(newError(CodeProfileSaveFailure, err, "save target profile"))
	}

	res.commitTo(data)
	old := img.profile
	img.profile = wrapProfile(saved)
	old.Release()

	c.log.Debug("converted image",
		observability.Int("width", l.Width),
		observability.Int("height", l.Height),
		observability.Int("channels", l.Channels),
		observability.Bool("proxy", res.proxied))
	return nil
}

func (c *Converter) fail(err *Error) error {
	c.log.Warn("colour conversion failed",
		observability.String("code", err.Code.String()),
		observability.Error("error", err))
	return err
}
