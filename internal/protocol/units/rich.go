package units

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zlib"

	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Light app payload encodings, stored in the first data byte.
const (
	lightAppRaw  byte = 0
	lightAppZlib byte = 1
)

const (
	serviceMultiMsg int32 = 35

	appMultiMsg  = "com.tencent.multimsg"
	appStructMsg = "com.tencent.structmsg"
)

var (
	errEmptyLightApp    = errors.New("units: empty light app payload")
	errUnknownLightApp  = errors.New("units: unknown light app encoding")
	errMissingResID     = errors.New("units: placeholder without res id")
	resIDPattern        = regexp.MustCompile(`m_resid="([^"]*)"`)
	fileNamePattern     = regexp.MustCompile(`m_fileName="([^"]*)"`)
	multiMsgFlagPattern = regexp.MustCompile(`multiMsgFlag="1"`)
)

// Rich decodes light apps and XML rich messages, including the long and
// forward placeholders, and resolves those placeholders in deep refine.
type Rich struct{}

func (Rich) Name() string { return "rich" }

func (Rich) DecodeElement(dc *protocol.DecodeContext, e wire.Element) bool {
	switch v := e.(type) {
	case wire.LightApp:
		payload, err := inflateLightApp(v.Data)
		if err != nil {
			return false
		}
		dc.Add(message.LightApp{JSON: payload})
		return true
	case wire.RichMsg:
		dc.Add(decodeRichMsg(v))
		return true
	default:
		return false
	}
}

func decodeRichMsg(m wire.RichMsg) message.Component {
	if m.ServiceID != serviceMultiMsg {
		return message.ServiceMessage{ServiceID: m.ServiceID, XML: m.Template}
	}
	resID := submatch(resIDPattern, m.Template)
	if resID == "" {
		return message.ServiceMessage{ServiceID: m.ServiceID, XML: m.Template}
	}
	if multiMsgFlagPattern.MatchString(m.Template) {
		return message.LongMessageRef{ResID: resID}
	}
	return message.ForwardMessageRef{ResID: resID, FileName: submatch(fileNamePattern, m.Template)}
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return html.UnescapeString(m[1])
}

func inflateLightApp(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errEmptyLightApp
	}
	switch data[0] {
	case lightAppRaw:
		return string(data[1:]), nil
	case lightAppZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data[1:]))
		if err != nil {
			return "", err
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("%w: %d", errUnknownLightApp, data[0])
	}
}

func deflateLightApp(payload string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(lightAppZlib)
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(payload)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Rich) EncodeComponent(ec *protocol.EncodeContext, c message.Component) (bool, error) {
	switch v := c.(type) {
	case message.LightApp:
		return true, emitLightApp(ec, v.JSON)
	case message.MusicShare:
		payload, err := json.Marshal(musicApp(v))
		if err != nil {
			return true, err
		}
		return true, emitLightApp(ec, string(payload))
	case message.ServiceMessage:
		ec.Emit(wire.RichMsg{ServiceID: v.ServiceID, Template: v.XML})
	case message.LongMessageRef:
		if v.ResID == "" {
			return true, errMissingResID
		}
		ec.Emit(
			wire.RichMsg{ServiceID: serviceMultiMsg, Template: longTemplate(v.ResID)},
			wire.Text{Str: protocol.UnsupportedMergedText},
		)
	case message.ForwardMessageRef:
		if v.ResID == "" {
			return true, errMissingResID
		}
		ec.Emit(wire.RichMsg{ServiceID: serviceMultiMsg, Template: forwardTemplate(v.ResID, v.FileName)})
	default:
		return false, nil
	}
	return true, nil
}

func emitLightApp(ec *protocol.EncodeContext, payload string) error {
	data, err := deflateLightApp(payload)
	if err != nil {
		return err
	}
	ec.Emit(wire.LightApp{Data: data})
	return nil
}

func longTemplate(resID string) string {
	return `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>` +
		`<msg serviceID="35" templateID="1" action="viewMultiMsg" brief="[长消息]" m_resid="` +
		html.EscapeString(resID) + `" m_fileName="" multiMsgFlag="1"></msg>`
}

func forwardTemplate(resID, fileName string) string {
	return `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>` +
		`<msg serviceID="35" templateID="1" action="viewMultiMsg" brief="[聊天记录]" m_resid="` +
		html.EscapeString(resID) + `" m_fileName="` + html.EscapeString(fileName) + `" tSum="0"></msg>`
}

type lightApp struct {
	App  string       `json:"app"`
	View string       `json:"view,omitempty"`
	Meta lightAppMeta `json:"meta"`
}

type lightAppMeta struct {
	Music  *musicMeta  `json:"music,omitempty"`
	Detail *detailMeta `json:"detail,omitempty"`
}

type musicMeta struct {
	Tag      string `json:"tag"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	JumpURL  string `json:"jumpUrl"`
	Preview  string `json:"preview"`
	MusicURL string `json:"musicUrl"`
}

type detailMeta struct {
	ResID    string `json:"resid"`
	FileName string `json:"uniseq"`
}

func musicApp(m message.MusicShare) lightApp {
	return lightApp{
		App:  appStructMsg,
		View: "music",
		Meta: lightAppMeta{Music: &musicMeta{
			Tag:      m.Kind,
			Title:    m.Title,
			Desc:     m.Summary,
			JumpURL:  m.JumpURL,
			Preview:  m.PictureURL,
			MusicURL: m.MusicURL,
		}},
	}
}

// RefineLight expands light apps whose payload names a known app.
func (Rich) RefineLight(_ *protocol.LightEnv, c message.Component) (message.Chain, bool) {
	la, ok := c.(message.LightApp)
	if !ok || !strings.Contains(la.JSON, `"app"`) {
		return message.Chain{}, false
	}
	var app lightApp
	if err := json.UnmarshalFromString(la.JSON, &app); err != nil {
		return message.Chain{}, false
	}
	switch {
	case app.App == appMultiMsg && app.Meta.Detail != nil && app.Meta.Detail.ResID != "":
		return message.NewChain(message.ForwardMessageRef{
			ResID:    app.Meta.Detail.ResID,
			FileName: app.Meta.Detail.FileName,
		}), true
	case app.App == appStructMsg && app.Meta.Music != nil:
		m := app.Meta.Music
		return message.NewChain(message.MusicShare{
			Kind:       m.Tag,
			Title:      m.Title,
			Summary:    m.Desc,
			JumpURL:    m.JumpURL,
			PictureURL: m.Preview,
			MusicURL:   m.MusicURL,
		}), true
	default:
		return message.Chain{}, false
	}
}
