package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordDecode("online", "ok", 3*time.Millisecond)
	RecordIgnoredElement("unknown", "unrecognized")
	RecordEncode("plain_text", "ok")
	RecordFetch("forward", 12*time.Millisecond, true)
	RecordCache("long", false)

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestRecordIgnoredElementCounts(t *testing.T) {
	before := testutil.ToFloat64(ignoredElements.WithLabelValues("tag-x", "metadata"))
	RecordIgnoredElement("tag-x", "metadata")
	RecordIgnoredElement("tag-x", "metadata")
	after := testutil.ToFloat64(ignoredElements.WithLabelValues("tag-x", "metadata"))
	if after-before != 2 {
		t.Fatalf("expected 2 increments, got %v", after-before)
	}
}

func TestWriteTextExportsOnlyOwnFamilies(t *testing.T) {
	RecordEncode("face", "ok")

	var buf bytes.Buffer
	if err := WriteText(&buf); err != nil {
		t.Fatalf("write text: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "msgchain_encode_components_total") {
		t.Fatalf("missing encode counter in output:\n%s", out)
	}
	if strings.Contains(out, "go_goroutines") {
		t.Fatalf("unexpected runtime metrics in output")
	}
}
