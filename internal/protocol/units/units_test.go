package units

import (
	"errors"
	"testing"

	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/testutil/testlog"
	"github.com/danmuck/msgchain/internal/wire"
)

func TestSelectUnits(t *testing.T) {
	testlog.Start(t)
	got, err := Select([]string{"rich", "text"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 2 || got[0].Name() != "rich" || got[1].Name() != "text" {
		t.Fatalf("unexpected selection: %v", got)
	}
	if _, err := Select([]string{"text", "nope"}); !errors.Is(err, protocol.ErrInvalidUnit) {
		t.Fatalf("expected ErrInvalidUnit, got %v", err)
	}
}

func TestDefaultNamesMatchUnits(t *testing.T) {
	testlog.Start(t)
	names := Names()
	for i, u := range Default() {
		if u.Name() != names[i] {
			t.Fatalf("unit %d named %q, want %q", i, u.Name(), names[i])
		}
	}
}

func TestDiceValue(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		param string
		want  int32
		ok    bool
	}{
		{"rscType?1;value=0", 1, true},
		{"rscType?1;value=5", 6, true},
		{"value=2;other=1", 3, true},
		{"rscType?1;value=6", 0, false},
		{"rscType?1;value=x", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := diceValue(tc.param)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("diceValue(%q) = %d, %v; want %d, %v", tc.param, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDecodeRichMsg(t *testing.T) {
	testlog.Start(t)
	long := decodeRichMsg(wire.RichMsg{ServiceID: 35, Template: longTemplate("a&b")})
	if long != (message.LongMessageRef{ResID: "a&b"}) {
		t.Fatalf("unexpected long placeholder: %#v", long)
	}
	fwd := decodeRichMsg(wire.RichMsg{ServiceID: 35, Template: forwardTemplate("r", "name")})
	if fwd != (message.ForwardMessageRef{ResID: "r", FileName: "name"}) {
		t.Fatalf("unexpected forward placeholder: %#v", fwd)
	}
	noID := decodeRichMsg(wire.RichMsg{ServiceID: 35, Template: "<msg/>"})
	if noID.Type() != message.TypeService {
		t.Fatalf("service 35 without res id should stay a service message: %#v", noID)
	}
	other := decodeRichMsg(wire.RichMsg{ServiceID: 60, Template: "<card/>"})
	if other != (message.ServiceMessage{ServiceID: 60, XML: "<card/>"}) {
		t.Fatalf("unexpected service message: %#v", other)
	}
}

func TestLightAppPayloadEncodings(t *testing.T) {
	testlog.Start(t)
	packed, err := deflateLightApp(`{"app":"x"}`)
	if err != nil {
		t.Fatalf("deflate: %v", err)
	}
	if packed[0] != lightAppZlib {
		t.Fatalf("expected zlib prefix, got %d", packed[0])
	}
	got, err := inflateLightApp(packed)
	if err != nil || got != `{"app":"x"}` {
		t.Fatalf("inflate zlib = %q, %v", got, err)
	}
	got, err = inflateLightApp(append([]byte{lightAppRaw}, "raw"...))
	if err != nil || got != "raw" {
		t.Fatalf("inflate raw = %q, %v", got, err)
	}
	if _, err := inflateLightApp([]byte{9, 1}); !errors.Is(err, errUnknownLightApp) {
		t.Fatalf("expected errUnknownLightApp, got %v", err)
	}
	if _, err := inflateLightApp(nil); !errors.Is(err, errEmptyLightApp) {
		t.Fatalf("expected errEmptyLightApp, got %v", err)
	}
}

func TestBrokenPayloadsAreNotClaimed(t *testing.T) {
	testlog.Start(t)
	dc := &protocol.DecodeContext{Builder: message.NewBuilder()}
	if (Rich{}).DecodeElement(dc, wire.LightApp{Data: []byte{1, 0xff}}) {
		t.Fatalf("corrupt light app should not be claimed")
	}
	if (Special{}).DecodeElement(dc, wire.CommonElem{ServiceType: wire.CommonServicePoke, Payload: []byte{1}}) {
		t.Fatalf("truncated poke payload should not be claimed")
	}
	if (Special{}).DecodeElement(dc, wire.CommonElem{ServiceType: 99}) {
		t.Fatalf("unknown common service should not be claimed")
	}
	if dc.Builder.Len() != 0 {
		t.Fatalf("unexpected components: %#v", dc.Builder.Build().Components())
	}
}

func TestLightRefineLeavesUnknownApps(t *testing.T) {
	testlog.Start(t)
	for _, payload := range []string{`{"app":"com.example"}`, `not json`, `{"app":"com.tencent.multimsg","meta":{}}`} {
		if _, ok := (Rich{}).RefineLight(nil, message.LightApp{JSON: payload}); ok {
			t.Fatalf("payload %q should not be refined", payload)
		}
	}
}

func TestMentionWithoutDisplay(t *testing.T) {
	testlog.Start(t)
	m := mention(42, "")
	if m.Str != "@42" || m.Mention == nil || m.Mention.TargetID != 42 {
		t.Fatalf("unexpected mention: %#v", m)
	}
}

func TestFlagsOnlyWhenRequested(t *testing.T) {
	testlog.Start(t)
	f, err := protocol.New(protocol.Config{}, Flags{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	chain := message.NewChain(message.MessageSource{})
	out, err := f.Encode(chain, protocol.Target{Kind: message.KindFriend}, protocol.EncodeOptions{})
	if err != nil || len(out) != 0 {
		t.Fatalf("unexpected output without flags: %#v, %v", out, err)
	}
	out, err = f.Encode(chain, protocol.Target{Kind: message.KindFriend}, protocol.EncodeOptions{WithGeneralFlags: true})
	if err != nil || len(out) != 1 || out[0].Tag() != wire.TagGeneralFlags {
		t.Fatalf("expected one general flags element: %#v, %v", out, err)
	}
}
