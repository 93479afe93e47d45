package units

import (
	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
)

type Face struct{}

func (Face) Name() string { return "face" }

func (Face) DecodeElement(dc *protocol.DecodeContext, e wire.Element) bool {
	f, ok := e.(wire.Face)
	if !ok {
		return false
	}
	dc.Add(message.Face{ID: f.Index})
	return true
}

func (Face) EncodeComponent(ec *protocol.EncodeContext, c message.Component) (bool, error) {
	f, ok := c.(message.Face)
	if !ok {
		return false, nil
	}
	ec.Emit(wire.Face{Index: f.ID})
	return true, nil
}

type Image struct{}

func (Image) Name() string { return "image" }

func (Image) DecodeElement(dc *protocol.DecodeContext, e wire.Element) bool {
	img, ok := e.(wire.Image)
	if !ok {
		return false
	}
	dc.Add(message.Image{
		ResID:  img.ResID,
		Width:  img.Width,
		Height: img.Height,
		Size:   img.Size,
		MD5:    img.MD5,
	})
	return true
}

func (Image) EncodeComponent(ec *protocol.EncodeContext, c message.Component) (bool, error) {
	img, ok := c.(message.Image)
	if !ok {
		return false, nil
	}
	ec.Emit(wire.Image{
		ResID:  img.ResID,
		Width:  img.Width,
		Height: img.Height,
		Size:   img.Size,
		MD5:    img.MD5,
	})
	return true, nil
}

// Audio decodes voice fragments, whether inline or carried as a batch
// item's trailing field.
type Audio struct{}

func (Audio) Name() string { return "audio" }

func (Audio) DecodeElement(dc *protocol.DecodeContext, e wire.Element) bool {
	p, ok := e.(wire.Ptt)
	if !ok {
		return false
	}
	dc.Add(message.Audio{
		FileName: p.FileName,
		MD5:      p.MD5,
		Size:     p.Size,
		Codec:    p.Codec,
		Seconds:  p.Seconds,
		URL:      p.URL,
	})
	return true
}

// EncodeComponent emits the voice fragment followed by the legacy caption
// older clients display instead.
func (Audio) EncodeComponent(ec *protocol.EncodeContext, c message.Component) (bool, error) {
	a, ok := c.(message.Audio)
	if !ok {
		return false, nil
	}
	ec.Emit(
		wire.Ptt{
			FileName: a.FileName,
			MD5:      a.MD5,
			Size:     a.Size,
			Codec:    a.Codec,
			Seconds:  a.Seconds,
			URL:      a.URL,
		},
		wire.Text{Str: protocol.UnsupportedVoiceText},
	)
	return true, nil
}
