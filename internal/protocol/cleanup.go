package protocol

import (
	"strings"

	"github.com/danmuck/msgchain/internal/message"
)

type cleanupRule struct {
	name  string
	apply func(b *message.Builder) bool
}

// Rules run in this order on every round.
var cleanupRules = []cleanupRule{
	{"relocate_quote", relocateQuote},
	{"strip_quote_companions", stripQuoteCompanions},
	{"strip_voice_placeholder", stripVoicePlaceholder},
	{"strip_sentinel_captions", stripSentinelCaptions},
	{"strip_vip_face_caption", stripVipFaceCaption},
	{"compress_plain_text", compressPlainText},
}

// Cleanup removes wire-format redundancy from a freshly assembled chain.
// Rounds repeat until nothing changes, so Cleanup(Cleanup(c)) equals
// Cleanup(c). Rules whose preconditions are unmet are skipped.
func Cleanup(c message.Chain) message.Chain {
	b := c.Builder()
	cleanupBuilder(b)
	return b.Build()
}

func cleanupBuilder(b *message.Builder) {
	// every changing round removes a component, strips one leading space
	// or settles the quote position
	limit := 2*b.Len() + 2
	for round := 0; round < limit; round++ {
		changed := false
		for _, rule := range cleanupRules {
			if rule.apply(b) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func relocateQuote(b *message.Builder) bool {
	src := b.IndexOf(message.TypeSource, 0)
	q := b.IndexOf(message.TypeQuoteReply, 0)
	if src < 0 || q < 0 || q == src+1 {
		return false
	}
	quote := b.Remove(q)
	src = b.IndexOf(message.TypeSource, 0)
	b.Insert(src+1, quote)
	return true
}

func stripQuoteCompanions(b *message.Builder) bool {
	q := b.IndexOf(message.TypeQuoteReply, 0)
	if q < 0 {
		return false
	}
	next := q + 1
	changed := false

	if next < b.Len() {
		if _, ok := b.At(next).(message.At); ok {
			b.Remove(next)
			changed = true
		}
	}
	if next < b.Len() {
		if text, ok := b.At(next).(message.PlainText); ok && hasSingleLeadingSpace(text.Text) {
			if text.Text == " " {
				b.Remove(next)
			} else {
				b.Set(next, message.PlainText{Text: text.Text[1:]})
			}
			changed = true
		}
	}
	return changed
}

func hasSingleLeadingSpace(s string) bool {
	return strings.HasPrefix(s, " ") && !strings.HasPrefix(s, "  ")
}

func stripVoicePlaceholder(b *message.Builder) bool {
	if !b.Contains(message.TypeAudio) {
		return false
	}
	changed := false
	for i := b.Len() - 1; i >= 0; i-- {
		if isPlainText(b.At(i), UnsupportedVoiceText) {
			b.Remove(i)
			changed = true
		}
	}
	return changed
}

var sentinelCaptions = []struct {
	owner   message.ComponentType
	caption string
}{
	{message.TypeLongRef, UnsupportedMergedText},
	{message.TypePoke, UnsupportedPokeText},
}

func stripSentinelCaptions(b *message.Builder) bool {
	changed := false
	for _, s := range sentinelCaptions {
		i := b.IndexOf(s.owner, 0)
		if i < 0 || i+1 >= b.Len() {
			continue
		}
		if isPlainText(b.At(i+1), s.caption) {
			b.Remove(i + 1)
			changed = true
		}
	}
	return changed
}

func stripVipFaceCaption(b *message.Builder) bool {
	changed := false
	for i := 0; i+1 < b.Len(); i++ {
		vip, ok := b.At(i).(message.VipFace)
		if !ok {
			continue
		}
		text, ok := b.At(i + 1).(message.PlainText)
		if ok && captionLen(text.Text) == VipFaceCaptionLen(vip) {
			b.Remove(i + 1)
			changed = true
		}
	}
	return changed
}

func compressPlainText(b *message.Builder) bool {
	changed := false
	for i := 0; i < b.Len(); i++ {
		head, ok := b.At(i).(message.PlainText)
		if !ok {
			continue
		}
		end := i + 1
		for end < b.Len() && b.At(end).Type() == message.TypePlainText {
			end++
		}
		if end-i < 2 {
			continue
		}
		var sb strings.Builder
		sb.WriteString(head.Text)
		for j := i + 1; j < end; j++ {
			sb.WriteString(b.At(j).(message.PlainText).Text)
		}
		for j := end - 1; j > i; j-- {
			b.Remove(j)
		}
		b.Set(i, message.PlainText{Text: sb.String()})
		changed = true
	}
	for i := b.Len() - 1; i >= 0; i-- {
		if isPlainText(b.At(i), "") {
			b.Remove(i)
			changed = true
		}
	}
	return changed
}

func isPlainText(c message.Component, want string) bool {
	text, ok := c.(message.PlainText)
	return ok && text.Text == want
}
