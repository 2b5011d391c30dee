package frame

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic canonical JSON in the spirit of
// RFC 8785. This is the ONLY serialization used for content hashing and
// signature scopes.
//
// Rules:
//  1. Object keys sorted by UTF-16 code units
//  2. Strings NFC normalized, minimal escaping, no HTML escaping
//  3. Numbers use shortest round-trip formatting; NaN/Inf are rejected
//  4. null is forbidden (absent fields are omitted, never null)
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		appendCanonicalString(buf, val)
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case float64:
		return appendCanonicalFloat(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeysUTF16(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := appendCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// appendCanonicalFloat writes the shortest decimal representation that
// round-trips to the same float64 bits. Integral values serialize without
// a fractional part ("3", not "3.0"), which keeps int/float field drift
// out of the signature scope.
func appendCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v is forbidden in canonical JSON", f)
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// appendCanonicalString writes a JSON string with NFC normalization and
// minimal escaping: only the quote, the backslash, and control characters
// below U+0020 are escaped. HTML-significant characters and U+2028/U+2029
// pass through literally, per RFC 8785.
func appendCanonicalString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// sortedKeysUTF16 returns the map's keys ordered by UTF-16 code units,
// the RFC 8785 key ordering. For ASCII keys this matches byte order.
func sortedKeysUTF16(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return utf16Less(keys[i], keys[j])
	})
	return keys
}

func utf16Less(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// CanonicalBytes returns the canonical serialization of the frame.
// Round-tripping these bytes through Parse reproduces an identical
// digest; signatures over frames are computed on exactly these bytes.
func (f *Frame) CanonicalBytes() ([]byte, error) {
	return MarshalCanonical(f.canonicalMap())
}

func (f *Frame) canonicalMap() map[string]any {
	nodes := make([]any, len(f.Nodes))
	for i, n := range f.Nodes {
		m := map[string]any{
			"id":     n.ID,
			"type":   string(n.Type),
			"weight": n.Weight,
		}
		if n.Label != "" {
			m["label"] = n.Label
		}
		nodes[i] = m
	}
	edges := make([]any, len(f.Edges))
	for i, e := range f.Edges {
		edges[i] = map[string]any{
			"src":    e.Src,
			"dst":    e.Dst,
			"rel":    string(e.Rel),
			"weight": e.Weight,
		}
	}
	out := map[string]any{
		"stream_id": f.StreamID,
		"t_logical": f.TLogical,
		"gauge":     string(f.Gauge),
		"units":     f.Units,
		"nodes":     nodes,
		"edges":     edges,
		"digest":    f.Digest.canonicalMap(),
		"telem":     f.Telem.canonicalMap(),
	}
	if len(f.Morphs) > 0 {
		morphs := make([]any, len(f.Morphs))
		for i, m := range f.Morphs {
			morphs[i] = m.canonicalMap()
		}
		out["morphs"] = morphs
	}
	if len(f.Aliases) > 0 {
		aliases := make(map[string]any, len(f.Aliases))
		for k, v := range f.Aliases {
			aliases[k] = v
		}
		out["aliases"] = aliases
	}
	if f.Signature != "" {
		out["signature"] = f.Signature
	}
	return out
}

// CanonicalMap exposes the digest as a canonical-JSON-ready map. Used by
// the receipt composer.
func (d Digest) CanonicalMap() map[string]any {
	return d.canonicalMap()
}

func (d Digest) canonicalMap() map[string]any {
	return map[string]any{
		"b0":         d.B0,
		"cycle_plus": d.CyclePlus,
		"x_frontier": d.XFrontier,
		"s_over_c":   d.SOverC,
		"depth":      d.Depth,
	}
}

// CanonicalMap exposes the telemetry as a canonical-JSON-ready map.
func (t Telemetry) CanonicalMap() map[string]any {
	return t.canonicalMap()
}

func (t Telemetry) canonicalMap() map[string]any {
	return map[string]any{
		"phi_sem":           t.PhiSem,
		"phi_topo":          t.PhiTopo,
		"delta_hol":         t.DeltaHol,
		"kappa_eff":         t.KappaEff,
		"commutator":        t.Commutator,
		"evidence_strength": t.EvidenceStrength,
		"del_suspect":       t.DelSuspect,
		"cost_tokens":       t.CostTokens,
		"da_drift":          t.DADrift,
	}
}

func (m Morph) canonicalMap() map[string]any {
	out := map[string]any{"op": string(m.Op)}
	if m.Node != nil {
		n := map[string]any{
			"id":     m.Node.ID,
			"type":   string(m.Node.Type),
			"weight": m.Node.Weight,
		}
		if m.Node.Label != "" {
			n["label"] = m.Node.Label
		}
		out["node"] = n
	}
	if m.Edge != nil {
		out["edge"] = map[string]any{
			"src":    m.Edge.Src,
			"dst":    m.Edge.Dst,
			"rel":    string(m.Edge.Rel),
			"weight": m.Edge.Weight,
		}
	}
	if m.ID != "" {
		out["id"] = m.ID
	}
	if m.NewType != "" {
		out["new_type"] = string(m.NewType)
	}
	if m.Weight != nil {
		out["weight"] = *m.Weight
	}
	if m.TargetEdge != nil {
		out["target_edge"] = map[string]any{
			"src": m.TargetEdge.Src,
			"dst": m.TargetEdge.Dst,
			"rel": string(m.TargetEdge.Rel),
		}
	}
	if len(m.IDs) > 0 {
		ids := make([]any, len(m.IDs))
		for i, id := range m.IDs {
			ids[i] = id
		}
		out["ids"] = ids
	}
	if len(m.IntoIDs) > 0 {
		ids := make([]any, len(m.IntoIDs))
		for i, id := range m.IntoIDs {
			ids[i] = id
		}
		out["into_ids"] = ids
	}
	if len(m.Partition) > 0 {
		part := make(map[string]any, len(m.Partition))
		for k, v := range m.Partition {
			part[k] = v
		}
		out["partition"] = part
	}
	if len(m.Ops) > 0 {
		ops := make([]any, len(m.Ops))
		for i, sub := range m.Ops {
			ops[i] = sub.canonicalMap()
		}
		out["ops"] = ops
	}
	if m.Note != "" {
		out["note"] = m.Note
	}
	return out
}
