package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// IDKind tags which variant an Identifier holds.
type IDKind uint8

const (
	KindNone IDKind = iota
	KindInt
	KindString
)

func (k IDKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "none"
	}
}

// Identifier is either an integer or a string. Two identifiers are equal only
// when both kind and value match, so IntID(7) != StringID("7"). The struct is
// comparable and can be used directly as a map key.
type Identifier struct {
	kind IDKind
	num  int64
	str  string
}

func IntID(n int64) Identifier { return Identifier{kind: KindInt, num: n} }

func StringID(s string) Identifier { return Identifier{kind: KindString, str: s} }

func (id Identifier) Kind() IDKind { return id.kind }

func (id Identifier) IsZero() bool { return id.kind == KindNone }

// String renders integers bare and strings quoted, so 7 and "7" print differently.
func (id Identifier) String() string {
	switch id.kind {
	case KindInt:
		return strconv.FormatInt(id.num, 10)
	case KindString:
		return strconv.Quote(id.str)
	default:
		return "<none>"
	}
}

// Raw is the value without kind decoration, used for storage columns.
func (id Identifier) Raw() string {
	if id.kind == KindInt {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// Less orders identifiers: integers before strings, integers numerically,
// strings lexically.
func (id Identifier) Less(other Identifier) bool {
	if id.kind != other.kind {
		return id.kind < other.kind
	}
	if id.kind == KindInt {
		return id.num < other.num
	}
	return id.str < other.str
}

func (id Identifier) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case KindInt:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	case KindString:
		return json.Marshal(id.str)
	default:
		return []byte("null"), nil
	}
}

func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*id = IntID(n)
		return nil
	}
	// 7.0 and 1e0 name the same id as 7.
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return fmt.Errorf("identifier must be an integer or a string, got %s", data)
	}
	*id = IntID(int64(f))
	return nil
}

func (id Identifier) MarshalCBOR() ([]byte, error) {
	switch id.kind {
	case KindInt:
		return cbor.Marshal(id.num)
	case KindString:
		return cbor.Marshal(id.str)
	default:
		return cbor.Marshal(nil)
	}
}

func (id *Identifier) UnmarshalCBOR(data []byte) error {
	var v any
	if err := cbor.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid identifier CBOR: %w", err)
	}
	switch x := v.(type) {
	case nil:
		*id = Identifier{}
	case uint64:
		if x > math.MaxInt64 {
			return fmt.Errorf("identifier %d overflows int64", x)
		}
		*id = IntID(int64(x))
	case int64:
		*id = IntID(x)
	case string:
		*id = StringID(x)
	default:
		return fmt.Errorf("identifier must be an integer or a string, got %T", v)
	}
	return nil
}

var ErrInvalidIdentifier = errors.New("invalid identifier")

// ParseIdentifier turns user text into an Identifier. kind is "int", "string"
// or empty. In auto mode integer syntax yields an integer id, a double-quoted
// value yields the unquoted string, and anything else is taken as a string.
func ParseIdentifier(text, kind string) (Identifier, error) {
	switch strings.ToLower(kind) {
	case "int", "integer", "number":
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Identifier{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidIdentifier, text)
		}
		return IntID(n), nil
	case "string", "str":
		return StringID(text), nil
	case "":
	default:
		return Identifier{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentifier, kind)
	}

	if text == "" {
		return Identifier{}, fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return IntID(n), nil
	}
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		if s, err := strconv.Unquote(text); err == nil {
			return StringID(s), nil
		}
	}
	return StringID(text), nil
}

// Record is one flat input item. Type is nil when the record has no type.
type Record struct {
	ID     Identifier `json:"id" cbor:"id"`
	Parent Identifier `json:"parent" cbor:"parent"`
	Type   *string    `json:"type" cbor:"type"`
}

// TypeOf is a helper for building records with a type tag.
func TypeOf(s string) *string { return &s }

func (r *Record) String() string {
	t := "null"
	if r.Type != nil {
		t = strconv.Quote(*r.Type)
	}
	return fmt.Sprintf("Record{ID: %s, Parent: %s, Type: %s}", r.ID, r.Parent, t)
}
