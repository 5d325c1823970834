package transform

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/domain/repository"
	"CoreBridge/pkg/logger"
	"CoreBridge/pkg/util"
)

// Option configures a transformer.
type Option func(*options)

type options struct {
	maxPayloadSize int
	metrics        repository.Metrics
}

// WithMaxPayloadSize caps the serialized size of raw_payload/metadata carried
// through a transformer. Oversized records are dropped; zero disables the cap.
func WithMaxPayloadSize(n int) Option {
	return func(o *options) {
		o.maxPayloadSize = n
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{metrics: repository.NopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// oversized reports whether the serialized payload exceeds the cap. A payload
// that fails to serialize counts as oversized; it cannot travel anyway.
func (o options) oversized(payload map[string]any) bool {
	if o.maxPayloadSize <= 0 || len(payload) == 0 {
		return false
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return true
	}
	return len(b) > o.maxPayloadSize
}

func newID() string {
	return uuid.NewString()
}

// parseTags accepts a list of strings, a list of anything stringifiable, or a
// comma-separated string.
func parseTags(v any) []string {
	switch tags := v.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), tags...)
	case []any:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s := strings.TrimSpace(util.Stringify(t)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(tags, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func metadataMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return models.DeepCopyMap(m)
	}
	return nil
}

func dropLog(lgr *logger.Logger, kind, reason string) {
	lgr.Debug("dropped record during normalization",
		logger.String("kind", kind), logger.String("reason", reason))
}
