package timeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON used for fingerprints and golden
// traces.
//
// Differences from json.Marshal:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping
//   - strings NFC normalized
//   - floats and null are rejected
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return compareUTF16(keys[i], keys[j]) < 0 })
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return len(ua) - len(ub)
}

// Fingerprint returns a stable content hash of the timeline. Two timelines
// with identical choreography share a fingerprint regardless of where they
// were loaded from.
func Fingerprint(tl Timeline) string {
	phases := make([]any, len(tl.Phases))
	for i, p := range tl.Phases {
		m := map[string]any{
			"id":          string(p.ID),
			"start_ns":    int64(p.Start),
			"duration_ns": int64(p.Duration),
			"target":      string(p.Target),
			"action":      string(p.Action),
		}
		if p.Decor != nil {
			m["decor"] = map[string]any{
				"particle_count": p.Decor.ParticleCount,
				"stagger_ns":     int64(p.Decor.Stagger),
				"color_bias":     p.Decor.ColorBias,
			}
		}
		phases[i] = m
	}
	doc := map[string]any{
		"id":             string(tl.ID),
		"total_ns":       int64(tl.Total),
		"uses_particles": tl.UsesParticles,
		"phases":         phases,
	}

	data, err := MarshalCanonical(doc)
	if err != nil {
		// doc is built from strings, ints and bools only.
		panic("timeline: fingerprint: " + err.Error())
	}
	h := sha256.New()
	h.Write([]byte("ceremony/timeline/v1\x00"))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
