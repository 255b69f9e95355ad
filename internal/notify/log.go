package notify

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// LogNotifier writes events as structured log records
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger; nil uses slog.Default()
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(e Event) {
	attrs := []any{}
	if e.RunID != "" {
		attrs = append(attrs, "run_id", e.RunID)
	}
	if e.Source != "" {
		attrs = append(attrs, "source", e.Source)
	}

	switch e.Kind {
	case KindStarted:
		n.logger.Info("Indexing started", attrs...)

	case KindProgress:
		n.logger.Info(humanize.Comma(int64(e.LinesRead))+" lines translated", // #nosec G115 - display only
			append(attrs,
				"entities", humanize.Comma(int64(e.Entities)), // #nosec G115 - display only
				"relations", humanize.Comma(int64(e.Predicates)), // #nosec G115 - display only
				"failed", e.LinesFailed)...)

	case KindLineFailed:
		n.logger.Warn("Skipping malformed line",
			append(attrs, "line", e.Line, "error", e.Message, "text", e.Text)...)

	case KindSummary:
		attrs = append(attrs,
			"lines", humanize.Comma(int64(e.LinesRead)), // #nosec G115 - display only
			"encoded", humanize.Comma(int64(e.LinesEncoded)), // #nosec G115 - display only
			"entities", humanize.Comma(int64(e.Entities)), // #nosec G115 - display only
			"relations", humanize.Comma(int64(e.Predicates)), // #nosec G115 - display only
			"duration", e.Duration)
		if e.LinesFailed > 0 {
			attrs = append(attrs, "failed", e.LinesFailed)
		}
		if e.LinesSkipped > 0 {
			attrs = append(attrs, "skipped", e.LinesSkipped)
		}
		n.logger.Info("Finished indexing the triple file", attrs...)

	case KindExportProgress:
		n.logger.Info(humanize.Comma(int64(e.Exported))+" mappings exported", // #nosec G115 - display only
			append(attrs, "namespace", e.Namespace, "total", e.Total)...)

	case KindExportDone:
		n.logger.Info("Finished dumping "+e.Namespace+" mapping",
			append(attrs,
				"mappings", humanize.Comma(int64(e.Exported)), // #nosec G115 - display only
				"duration", e.Duration)...)

	default:
		n.logger.Debug("Unknown event", append(attrs, "kind", e.Kind.String())...)
	}
}
