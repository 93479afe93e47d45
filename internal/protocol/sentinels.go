package protocol

import (
	"fmt"
	"unicode/utf16"

	"github.com/danmuck/msgchain/internal/message"
)

// Legacy captions emitted by older producers next to structured data.
// They are matched byte for byte.
const (
	UnsupportedVoiceText  = "收到语音消息，你需要升级到最新版QQ才能接收，升级地址https://im.qq.com"
	UnsupportedMergedText = "你的QQ暂不支持查看[转发多条消息]，请期待后续版本。"
	UnsupportedPokeText   = "[戳一戳]请使用最新版手机QQ体验新功能。"
)

// VipFaceCaptionLen is the legacy caption length that follows a vip face
// on the wire: 4 + count/10 + len(kind name), in UTF-16 code units.
func VipFaceCaptionLen(v message.VipFace) int {
	return 4 + int(v.Count/10) + captionLen(v.Kind.Name)
}

// VipFaceCaption returns the "[name]xN" caption for v. ok is false when the
// caption length differs from VipFaceCaptionLen; such a caption is not
// emitted.
func VipFaceCaption(v message.VipFace) (caption string, ok bool) {
	caption = fmt.Sprintf("[%s]x%d", v.Kind.Name, v.Count)
	return caption, captionLen(caption) == VipFaceCaptionLen(v)
}

// captionLen counts s in UTF-16 code units, the unit legacy captions are
// measured in.
func captionLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
