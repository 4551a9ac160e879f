// Package plan turns a structural probe and decode verdict into a repair
// decision. Decide is a pure function over its input: it never touches the
// filesystem or PATH, which keeps the policy unit-testable.
package plan

import (
	"fmt"
	"strings"

	"github.com/ankit-chaubey/flac-autofix/core"
	"github.com/ankit-chaubey/flac-autofix/core/flac"
)

// Reason prefixes, stable because the cover override keys off them.
const (
	reasonDecode    = "decode failure / player would reject"
	reasonUnknown   = "unknown metadata blocks"
	reasonTruncated = "metadata chain not terminated (is-last never set)"
	reasonMetaSize  = "oversized metadata"
	reasonCoverSize = "oversized cover art"
)

// Input carries everything Decide needs.
type Input struct {
	Probe              *flac.Probe
	DecodeOK           bool
	KeepCover          bool
	MetaThresholdBytes int64
	MaxCoverBytes      int64
	Prefer             string // "auto", "ffmpeg" or "flac"
	Tools              core.Capabilities
}

// Plan is the decision output, consumed once by the file processor.
type Plan struct {
	NeedsFix  bool
	Reasons   []string // detection order: decode, unknown, terminator, metadata size, cover size
	Action    core.Action
	KeepCover bool
}

// Decide records every anomaly that applies, then selects the best repair
// action the installed tools allow. No installed tool is a reportable
// condition, not an error.
func Decide(in Input) Plan {
	p := in.Probe

	var reasons []string
	if !in.DecodeOK {
		reasons = append(reasons, reasonDecode)
	}
	if p.UnknownCount > 0 {
		reasons = append(reasons, fmt.Sprintf("%s: %d", reasonUnknown, p.UnknownCount))
	}
	if !p.LastMarked {
		reasons = append(reasons, reasonTruncated)
	}
	if p.TotalMeta > in.MetaThresholdBytes {
		reasons = append(reasons, fmt.Sprintf("%s: %s", reasonMetaSize, core.HumanBytes(p.TotalMeta)))
	}
	if p.PictureBytes > in.MaxCoverBytes {
		reasons = append(reasons, fmt.Sprintf("%s: %s > %s", reasonCoverSize,
			core.HumanBytes(p.PictureBytes), core.HumanBytes(in.MaxCoverBytes)))
	}

	out := Plan{
		NeedsFix:  len(reasons) > 0,
		Reasons:   reasons,
		Action:    core.ActionSkip,
		KeepCover: in.KeepCover,
	}

	if out.NeedsFix {
		out.Action = selectAction(in.Prefer, in.Tools)
	}

	// When the only hope is metaflac and the cover is among the complaints,
	// a metadata strip is still worth more than skipping.
	if out.NeedsFix && out.Action == core.ActionSkip &&
		hasReason(reasons, reasonCoverSize) && in.Tools.Has(core.ToolMetaflac) {
		out.Action = core.ActionStripMetadata
	}

	// Re-importing a cover that is already over the cap defeats the repair.
	if out.KeepCover && p.PictureBytes > in.MaxCoverBytes {
		out.KeepCover = false
	}

	return out
}

// selectAction walks the tool priority order, constrained to what is
// installed: primary re-encode, then secondary, then metadata strip. A
// "flac" preference swaps the two re-encode tools.
func selectAction(prefer string, tools core.Capabilities) core.Action {
	order := []struct {
		tool   core.ToolKind
		action core.Action
	}{
		{core.ToolFFmpeg, core.ActionReencodePrimary},
		{core.ToolFlacCLI, core.ActionReencodeSecondary},
		{core.ToolMetaflac, core.ActionStripMetadata},
	}
	if prefer == "flac" {
		order[0], order[1] = order[1], order[0]
	}
	for _, o := range order {
		if tools.Has(o.tool) {
			return o.action
		}
	}
	return core.ActionSkip
}

func hasReason(reasons []string, prefix string) bool {
	for _, r := range reasons {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}
