package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/msgchain/internal/config"
	"github.com/danmuck/msgchain/internal/logging"
	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/observability"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
)

type options struct {
	mode    string
	config  string
	in      string
	out     string
	bodies  string
	text    string
	kind    string
	group   int64
	bot     int64
	online  bool
	flags   bool
	asJSON  bool
	metrics bool
	format  string
	force   bool
}

func main() {
	logging.ConfigureRuntime()
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch opts.mode {
	case "decode":
		err = runDecode(ctx, opts, os.Stdout)
	case "encode":
		err = runEncode(ctx, opts, os.Stdout)
	case "init":
		err = config.WriteTemplate(opts.out, opts.format, opts.force)
		if err == nil {
			log.Info().Str("path", opts.out).Str("format", opts.format).Msg("wrote config template")
		}
	case "validate":
		_, err = config.Load(opts.config)
		if err == nil {
			log.Info().Str("path", opts.config).Msg("config valid")
		}
	default:
		err = fmt.Errorf("unknown mode %q (supported: decode, encode, init, validate)", opts.mode)
	}
	if err != nil {
		fatalf("%v", err)
	}
	if opts.metrics {
		if err := observability.WriteText(os.Stderr); err != nil {
			fatalf("metrics: %v", err)
		}
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.mode, "mode", "decode", "mode: decode | encode | init | validate")
	flag.StringVar(&opts.config, "config", "", "config path (.toml, .yaml or .yml)")
	flag.StringVar(&opts.in, "in", "", "wire batch file to decode")
	flag.StringVar(&opts.out, "out", "", "output path (encode batch or init template)")
	flag.StringVar(&opts.bodies, "bodies", "", "directory of long/forward bodies for deep refine")
	flag.StringVar(&opts.text, "text", "", "plain text to encode")
	flag.StringVar(&opts.kind, "kind", "group", "source kind: group | friend | temp | stranger")
	flag.Int64Var(&opts.group, "group", 0, "group id, zero when not group scoped")
	flag.Int64Var(&opts.bot, "bot", 0, "active account id")
	flag.BoolVar(&opts.online, "online", false, "treat the batch as a live delivery (source + deep refine)")
	flag.BoolVar(&opts.flags, "general-flags", false, "append general flags when encoding")
	flag.BoolVar(&opts.asJSON, "json", false, "print components as JSON lines")
	flag.BoolVar(&opts.metrics, "metrics", false, "dump metrics to stderr on exit")
	flag.StringVar(&opts.format, "format", "toml", "template format for init: toml | yaml")
	flag.BoolVar(&opts.force, "force", false, "overwrite an existing template")
	flag.Parse()
	return opts
}

func setup(opts options) (*protocol.Facade, func() error, error) {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return nil, nil, err
	}
	fetcher, closer, err := buildFetcher(cfg, opts.bodies)
	if err != nil {
		return nil, nil, err
	}
	f, err := buildFacade(cfg, fetcher)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return f, closer, nil
}

func runDecode(ctx context.Context, opts options, w io.Writer) error {
	if opts.in == "" {
		return errors.New("decode requires -in")
	}
	kind, err := message.ParseSourceKind(opts.kind)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(opts.in)
	if err != nil {
		return err
	}
	batch, err := wire.DecodeMessages(data)
	if err != nil {
		return fmt.Errorf("read batch %s: %w", opts.in, err)
	}

	f, closer, err := setup(opts)
	if err != nil {
		return err
	}
	defer closer()

	req := protocol.DecodeRequest{
		Messages: batch,
		GroupID:  opts.group,
		Kind:     kind,
		Bot:      protocol.Identity{ID: opts.bot},
	}
	if opts.online {
		req.Source = protocol.SourceOnline
	}
	chain, err := f.DecodeAsync(ctx, req).Wait(ctx)
	if err != nil {
		return err
	}
	log.Debug().Int("messages", len(batch)).Int("components", chain.Len()).Msg("decoded batch")
	if opts.asJSON {
		return printJSON(w, chain)
	}
	printChain(w, chain, "")
	return nil
}

func runEncode(ctx context.Context, opts options, w io.Writer) error {
	if opts.text == "" {
		return errors.New("encode requires -text")
	}
	kind, err := message.ParseSourceKind(opts.kind)
	if err != nil {
		return err
	}
	f, closer, err := setup(opts)
	if err != nil {
		return err
	}
	defer closer()

	chain := message.NewChain(message.PlainText{Text: opts.text})
	elems, err := f.Encode(chain, protocol.Target{Kind: kind, ID: opts.group}, protocol.EncodeOptions{WithGeneralFlags: opts.flags})
	if err != nil {
		return err
	}
	batch := []wire.Message{{
		Head:  wire.Head{FromID: opts.bot, GroupID: opts.group},
		Elems: elems,
	}}
	data := wire.EncodeMessages(batch)
	if opts.out != "" {
		if err := os.WriteFile(opts.out, data, 0o600); err != nil {
			return err
		}
	}

	// decode the result back so the printed chain reflects what a peer sees
	back, err := f.Decode(ctx, protocol.DecodeRequest{Messages: batch, GroupID: opts.group, Kind: kind})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "elements=%d bytes=%d\n", len(elems), len(data))
	printChain(w, back, "")
	return nil
}

func printChain(w io.Writer, chain message.Chain, indent string) {
	for i := 0; i < chain.Len(); i++ {
		c := chain.At(i)
		switch v := c.(type) {
		case message.MessageSource:
			fmt.Fprintf(w, "%s%d source variant=%s from=%d target=%d ids=%v\n", indent, i, v.Variant, v.FromID, v.TargetID, v.IDs)
		case message.QuoteReply:
			fmt.Fprintf(w, "%s%d quote_reply from=%d ids=%v\n", indent, i, v.Source.FromID, v.Source.IDs)
			printChain(w, v.Source.Original, indent+"  ")
		case message.ForwardMessage:
			fmt.Fprintf(w, "%s%d forward res=%s nodes=%d\n", indent, i, v.ResID, len(v.Nodes))
			for _, n := range v.Nodes {
				fmt.Fprintf(w, "%s  node from=%d name=%q\n", indent, n.SenderID, n.SenderName)
				printChain(w, n.Chain, indent+"    ")
			}
		default:
			fmt.Fprintf(w, "%s%d %s %q\n", indent, i, c.Type(), c.Content())
		}
	}
}

type jsonComponent struct {
	Index   int                   `json:"index"`
	Type    message.ComponentType `json:"type"`
	Content string                `json:"content"`
	Value   message.Component     `json:"value"`
}

func printJSON(w io.Writer, chain message.Chain) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	for i := 0; i < chain.Len(); i++ {
		c := chain.At(i)
		if err := enc.Encode(jsonComponent{Index: i, Type: c.Type(), Content: c.Content(), Value: c}); err != nil {
			return err
		}
	}
	return nil
}

func fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "chainctl: %s\n", strings.TrimSpace(msg))
	os.Exit(1)
}
