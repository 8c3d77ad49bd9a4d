package action

import (
	"fmt"
	"strings"

	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// seekFlagNames maps the symbolic tokens accepted in a scenario's
// `flags=flush+accurate` field to their bit, the table-driven equivalent
// of gst_validate_utils_flags_from_str's GValue flags deserialization.
var seekFlagNames = map[string]pipeline.SeekFlags{
	"none":        pipeline.SeekFlagNone,
	"flush":       pipeline.SeekFlagFlush,
	"accurate":    pipeline.SeekFlagAccurate,
	"key-unit":    pipeline.SeekFlagKeyUnit,
	"key_unit":    pipeline.SeekFlagKeyUnit,
	"segment":     pipeline.SeekFlagSegment,
	"skip":        pipeline.SeekFlagSkip,
	"snap-before": pipeline.SeekFlagSnapBefore,
	"snap_before": pipeline.SeekFlagSnapBefore,
	"snap-after":  pipeline.SeekFlagSnapAfter,
	"snap_after":  pipeline.SeekFlagSnapAfter,
	"trickmode":   pipeline.SeekFlagTrickMode,
	"trick-mode":  pipeline.SeekFlagTrickMode,
}

// ParseSeekFlags parses a `+`-joined symbolic flag string into a SeekFlags
// bit-set. An unknown token is a hard error (spec §4.8 `seek`, mandatory
// `flags` field).
func ParseSeekFlags(s string) (pipeline.SeekFlags, error) {
	var out pipeline.SeekFlags
	for _, tok := range strings.Split(s, "+") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		bit, ok := seekFlagNames[strings.ToLower(tok)]
		if !ok {
			return 0, fmt.Errorf("action: unknown seek flag %q in %q", tok, s)
		}
		out |= bit
	}
	return out, nil
}
