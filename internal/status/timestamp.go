package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"kafe-backend/internal/apperr"

	"gopkg.in/yaml.v3"
)

// SecondsWrapper belge veritabanlarının JSON'da kullandığı
// {seconds, nanoseconds} biçimi.
type SecondsWrapper struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize desteklenen her oluşturma zamanı biçimini UTC time.Time'a çevirir:
// time.Time, *time.Time, SecondsWrapper, seconds/_seconds taşıyan map,
// ISO-8601 string ya da epoch milisaniye. nil ve boş string sıfır zaman verir.
func Normalize(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, nil
		}
		return t.UTC(), nil
	case Timestamp:
		return t.Time, nil
	case SecondsWrapper:
		return time.Unix(t.Seconds, t.Nanoseconds).UTC(), nil
	case *SecondsWrapper:
		if t == nil {
			return time.Time{}, nil
		}
		return time.Unix(t.Seconds, t.Nanoseconds).UTC(), nil
	case map[string]any:
		return fromSecondsMap(t)
	case string:
		return parseISO(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: timestamp %q", apperr.ErrInvalidInput, t.String())
		}
		return fromMillis(f), nil
	}
	if f, ok := toFloat(v); ok {
		return fromMillis(f), nil
	}
	return time.Time{}, fmt.Errorf("%w: unsupported timestamp type %T", apperr.ErrInvalidInput, v)
}

func fromSecondsMap(m map[string]any) (time.Time, error) {
	secRaw, ok := m["seconds"]
	if !ok {
		secRaw, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: timestamp object without seconds", apperr.ErrInvalidInput)
	}
	sec, ok := toFloat(secRaw)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: timestamp seconds %v", apperr.ErrInvalidInput, secRaw)
	}
	nanoRaw, ok := m["nanoseconds"]
	if !ok {
		nanoRaw = m["_nanoseconds"]
	}
	nano, _ := toFloat(nanoRaw)
	return time.Unix(int64(sec), int64(nano)).UTC(), nil
}

func parseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// sayısal string: epoch milisaniye
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromMillis(f), nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", apperr.ErrInvalidInput, s)
}

func fromMillis(ms float64) time.Time {
	sec, frac := math.Modf(ms / 1000)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Timestamp, Normalize'ın tanıdığı her biçimi JSON ve YAML'dan okur,
// JSON'a her zaman RFC 3339 olarak yazar.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := Normalize(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t *Timestamp) UnmarshalYAML(n *yaml.Node) error {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return err
	}
	parsed, err := Normalize(raw)
	if err != nil {
		return fmt.Errorf("satır %d: %w", n.Line, err)
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
