package kepco

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/jgoulah/powerdash/pkg/models"
)

// EnvelopeKind names which container key carried the row list.
type EnvelopeKind int

const (
	EnvelopeEmpty EnvelopeKind = iota
	EnvelopeData
	EnvelopeTotData
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeData:
		return "data"
	case EnvelopeTotData:
		return "totData"
	default:
		return "empty"
	}
}

// Envelope is the outer KEPCO response resolved to its row list.
type Envelope struct {
	Kind  EnvelopeKind
	Items []any
}

const utf8BOM = "\ufeff"

// Decode turns a response body into a parsed JSON value. Already structured
// values are returned untouched. Text is BOM-stripped and trimmed, then parsed;
// if that fails the outermost {...} and then [...] slices are tried, since the
// API sometimes wraps its JSON in log noise.
func Decode(raw any) (any, error) {
	var text string
	switch v := raw.(type) {
	case nil:
		return nil, newParseError("")
	case string:
		text = v
	case []byte:
		text = string(v)
	case json.RawMessage:
		text = string(v)
	default:
		return raw, nil
	}

	s := strings.TrimSpace(strings.TrimPrefix(text, utf8BOM))

	if v, ok := parse(s); ok {
		return v, nil
	}
	if v, ok := parseSlice(s, "{", "}"); ok {
		return v, nil
	}
	if v, ok := parseSlice(s, "[", "]"); ok {
		return v, nil
	}
	return nil, newParseError(text)
}

func parse(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := sonic.ConfigStd.UnmarshalFromString(s, &v); err != nil {
		return nil, false
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

func parseSlice(s, open, close string) (any, bool) {
	i := strings.Index(s, open)
	j := strings.LastIndex(s, close)
	if i == -1 || j == -1 || j <= i {
		return nil, false
	}
	return parse(s[i : j+1])
}

// ResolveEnvelope picks the row list out of a parsed body: "data" when it is
// an array, else "totData" when it is an array, else nothing.
func ResolveEnvelope(parsed any) Envelope {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return Envelope{Kind: EnvelopeEmpty}
	}
	if items, ok := obj["data"].([]any); ok {
		return Envelope{Kind: EnvelopeData, Items: items}
	}
	if items, ok := obj["totData"].([]any); ok {
		return Envelope{Kind: EnvelopeTotData, Items: items}
	}
	return Envelope{Kind: EnvelopeEmpty}
}

// Rows canonicalizes every object in the envelope, in order.
// Non-object entries are skipped.
func (e Envelope) Rows() []models.Row {
	rows := make([]models.Row, 0, len(e.Items))
	for _, item := range e.Items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, CanonicalRow(obj))
	}
	return rows
}

// Normalize decodes a raw body and returns its canonical rows. A body that
// cannot be understood is an error; an envelope without rows is not.
func Normalize(raw any) ([]models.Row, error) {
	parsed, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return ResolveEnvelope(parsed).Rows(), nil
}

// sample returns the first n characters of s for diagnostics.
func sample(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
