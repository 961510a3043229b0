package gokeyset

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/crypto/blake2b"
)

var _encoder = base64.RawURLEncoding

// ErrCursorInvalid is returned for tokens that cannot be decoded back into a
// position of the current orderings.
var ErrCursorInvalid = errors.New("cursor invalid")

const _signatureSeparator = "."

var _jsonNull = []byte("null")

// Value type tags carried next to every cursor value.
const (
	tagInt    = "int"
	tagUint   = "uint"
	tagFloat  = "float"
	tagString = "string"
	tagBool   = "bool"
	tagTime   = "time"
	tagUUID   = "uuid"
)

// Cursor is the position of a row in a total order: one value per ordering
// key, captured from that row. An empty cursor means the edge of the dataset.
//
// Token layout:
//
//	base64url([{"c": column, "t": type, "v": value}, ...]) [ "." base64url(mac) ]
type Cursor struct {
	elements []CursorElement
}

// CursorElement is a single coordinate of a position.
type CursorElement struct {
	Column string
	Value  any
}

type wireElement struct {
	Column string          `json:"c"`
	Type   string          `json:"t"`
	Value  json.RawMessage `json:"v"`
}

func NewCursor(elements ...CursorElement) *Cursor {
	return &Cursor{
		elements: elements,
	}
}

// DecodeCursor parses a token produced by Cursor.String. An empty token
// decodes into a nil cursor.
func DecodeCursor(token string, orderings Orderings) (*Cursor, error) {
	return DefaultCodec.Decode(token, orderings)
}

// String - implements fmt.Stringer. Uses DefaultCodec.
func (c *Cursor) String() string {
	token, err := DefaultCodec.Encode(c)
	if err != nil {
		panic(errors.Wrap(err, "cannot encode cursor"))
	}

	return token
}

func (c *Cursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

func (c *Cursor) GetElements() []CursorElement {
	if c == nil {
		return nil
	}

	return c.elements
}

// Values returns the position coordinates in ordering order.
func (c *Cursor) Values() []any {
	return lo.Map(c.GetElements(), func(item CursorElement, _ int) any { return item.Value })
}

// validate checks that the cursor is a position of the given orderings.
func (c *Cursor) validate(orderings Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(orderings) {
		return errors.Wrapf(ErrCursorInvalid, "cursor has %d values, ordering has %d columns", len(c.elements), len(orderings))
	}

	for i, elem := range c.elements {
		if elem.Column != orderings[i].Column {
			return errors.Wrapf(ErrCursorInvalid, "unexpected cursor column '%s'", elem.Column)
		}
	}

	return nil
}

// Codec converts cursors into opaque URL-safe tokens and back. It keeps no
// state besides the optional signing key, so codecs configured with the same
// key interoperate across processes.
type Codec struct {
	key []byte
}

// DefaultCodec is an unsigned codec.
var DefaultCodec = &Codec{}

type CodecOption func(*Codec)

// WithSigningKey makes the codec append a keyed BLAKE2b MAC to every token
// and reject tokens whose MAC does not match. The key must be at most 64 bytes.
func WithSigningKey(key []byte) CodecOption {
	return func(c *Codec) {
		c.key = bytes.Clone(key)
	}
}

func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := new(Codec)
	for _, opt := range opts {
		opt(c)
	}

	if len(c.key) > blake2b.Size {
		return nil, errors.Errorf("signing key is longer than %d bytes", blake2b.Size)
	}

	return c, nil
}

// Encode serializes the cursor. An empty cursor encodes into an empty token.
func (c *Codec) Encode(cursor *Cursor) (string, error) {
	if cursor.IsEmpty() {
		return "", nil
	}

	wire := make([]wireElement, 0, len(cursor.elements))
	for _, elem := range cursor.elements {
		value, tag, err := normalizeValue(elem.Value)
		if err != nil {
			return "", errors.Wrapf(err, "column '%s'", elem.Column)
		}

		raw, err := marshalValue(value, tag)
		if err != nil {
			return "", errors.Wrapf(err, "column '%s'", elem.Column)
		}

		wire = append(wire, wireElement{Column: elem.Column, Type: tag, Value: raw})
	}

	jTok, err := json.Marshal(wire)
	if err != nil {
		return "", errors.Wrap(err, "cannot marshal cursor value")
	}

	token := _encoder.EncodeToString(jTok)
	if c.signed() {
		token += _signatureSeparator + _encoder.EncodeToString(c.sign(token))
	}

	return token, nil
}

// Decode parses a token. The result is checked against orderings: arity and
// column names must match. Any failure wraps ErrCursorInvalid.
func (c *Codec) Decode(token string, orderings Orderings) (*Cursor, error) {
	if len(token) == 0 {
		return nil, nil
	}

	payload := token
	if c.signed() {
		idx := strings.LastIndex(token, _signatureSeparator)
		if idx == -1 {
			return nil, errors.Wrap(ErrCursorInvalid, "cursor is not signed")
		}

		mac, err := _encoder.DecodeString(token[idx+1:])
		payload = token[:idx]
		if err != nil || subtle.ConstantTimeCompare(mac, c.sign(payload)) != 1 {
			return nil, errors.Wrap(ErrCursorInvalid, "cursor signature mismatch")
		}
	}

	jsonData, err := _encoder.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrapf(ErrCursorInvalid, "failed to decode base64 encoded cursor: %v", err)
	}

	var wire []wireElement
	if err = json.Unmarshal(jsonData, &wire); err != nil {
		return nil, errors.Wrapf(ErrCursorInvalid, "failed to unmarshal json encoded cursor: %v", err)
	}

	if len(wire) == 0 {
		return nil, errors.Wrap(ErrCursorInvalid, "cursor has no values")
	}

	cursor := &Cursor{elements: make([]CursorElement, 0, len(wire))}
	for _, elem := range wire {
		if len(elem.Value) == 0 || bytes.Equal(elem.Value, _jsonNull) {
			return nil, errors.Wrapf(ErrCursorInvalid, "column '%s': value is missing", elem.Column)
		}

		value, err := unmarshalValue(elem.Value, elem.Type)
		if err != nil {
			return nil, errors.Wrapf(ErrCursorInvalid, "column '%s': %v", elem.Column, err)
		}

		cursor.elements = append(cursor.elements, CursorElement{Column: elem.Column, Value: value})
	}

	if err = cursor.validate(orderings); err != nil {
		return nil, err
	}

	return cursor, nil
}

func (c *Codec) signed() bool {
	return c != nil && len(c.key) > 0
}

func (c *Codec) sign(payload string) []byte {
	h, err := blake2b.New256(c.key)
	if err != nil {
		// Key length is checked by NewCodec.
		panic(errors.Wrap(err, "cannot create cursor mac"))
	}

	_, _ = h.Write([]byte(payload))

	return h.Sum(nil)
}

// normalizeValue converts a row value into its canonical cursor form so that
// decoding reproduces it exactly: ints become int64, uints uint64, floats
// float64, non-nil pointers are dereferenced.
func normalizeValue(v any) (any, string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, "", errors.New("cursor value is nil")
	}

	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, "", errors.New("cursor value is nil")
		}

		return normalizeValue(rv.Elem().Interface())
	}

	switch vt := v.(type) {
	case time.Time:
		return vt, tagTime, nil
	case uuid.UUID:
		return vt, tagUUID, nil
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), tagInt, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), tagUint, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), tagFloat, nil
	case reflect.String:
		return rv.String(), tagString, nil
	case reflect.Bool:
		return rv.Bool(), tagBool, nil
	default:
		return nil, "", errors.Errorf("unsupported cursor value type %T", v)
	}
}

func marshalValue(v any, tag string) (json.RawMessage, error) {
	switch tag {
	case tagTime:
		return json.Marshal(v.(time.Time).Format(time.RFC3339Nano))
	case tagUUID:
		return json.Marshal(v.(uuid.UUID).String())
	default:
		return json.Marshal(v)
	}
}

func unmarshalValue(raw json.RawMessage, tag string) (any, error) {
	switch tag {
	case tagInt:
		return strconv.ParseInt(string(raw), 10, 64)
	case tagUint:
		return strconv.ParseUint(string(raw), 10, 64)
	case tagFloat:
		return strconv.ParseFloat(string(raw), 64)
	case tagBool:
		var b bool
		err := json.Unmarshal(raw, &b)
		return b, err
	case tagString:
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case tagTime:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}

		return time.Parse(time.RFC3339Nano, s)
	case tagUUID:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}

		return uuid.Parse(s)
	default:
		return nil, errors.Errorf("unknown value type '%s'", tag)
	}
}

// Getters maps ordering columns to value extractors of a row. Specify every
// column the rows are ordered by. Example:
//
//	gokeyset.Getters[models.File]{
//		"created": func(f models.File) any { return f.Created },
//		"id":      func(f models.File) any { return f.ID },
//	}
type Getters[T any] map[string]func(T) any

// CursorOf captures the position of row in orderings.
func CursorOf[T any](row T, orderings Orderings, getters Getters[T]) (*Cursor, error) {
	ret := &Cursor{elements: make([]CursorElement, 0, len(orderings))}
	for _, orderBy := range orderings {
		getter, ok := getters[orderBy.Column]
		if !ok {
			return nil, errors.Errorf("cannot find getter for column '%s' met in ordering", orderBy.Column)
		}

		ret.elements = append(ret.elements, CursorElement{
			Column: orderBy.Column,
			Value:  getter(row),
		})
	}

	return ret, nil
}
