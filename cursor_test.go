package gokeyset

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _fileOrdering = Orderings{
	{Column: "created", Direction: DirectionDESC},
	{Column: "public_id", Direction: DirectionASC},
	{Column: "file_name", Direction: DirectionASC},
	{Column: "active", Direction: DirectionASC},
	{Column: "score", Direction: DirectionDESC},
	{Column: "size", Direction: DirectionASC},
	{Column: "id", Direction: DirectionASC},
}

func Test_Cursor_validate(t *testing.T) {
	c := NewCursor(CursorElement{Column: "id", Value: int64(1)})
	okOrd := Orderings{{Column: "id", Direction: DirectionASC}}
	okDesc := Orderings{{Column: "id", Direction: DirectionDESC}}
	badCount := Orderings{{Column: "id", Direction: DirectionASC}, {Column: "name", Direction: DirectionASC}}
	badName := Orderings{{Column: "other", Direction: DirectionASC}}

	tests := []struct {
		name string
		ord  Orderings
		ok   bool
	}{
		{"ok", okOrd, true},
		{"direction is not part of the position", okDesc, true},
		{"count mismatch", badCount, false},
		{"name mismatch", badName, false},
	}
	for _, tt := range tests {
		err := c.validate(tt.ord)
		if (err == nil) != tt.ok {
			t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
		}
		if err != nil {
			assert.ErrorIs(t, err, ErrCursorInvalid)
		}
	}

	assert.NoError(t, (*Cursor)(nil).validate(okOrd), "nil cursor fits any ordering")
}

func Test_Codec_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	publicID := uuid.MustParse("6f1f6c4e-8d8e-4b8a-9c1b-6b6e8a3f1a2b")
	size := uint32(4096)

	position := NewCursor(
		CursorElement{Column: "created", Value: created},
		CursorElement{Column: "public_id", Value: publicID},
		CursorElement{Column: "file_name", Value: "report|2024.pdf"},
		CursorElement{Column: "active", Value: true},
		CursorElement{Column: "score", Value: 0.1},
		CursorElement{Column: "size", Value: &size},
		CursorElement{Column: "id", Value: uint64(1<<63 + 7)},
	)

	token, err := DefaultCodec.Encode(position)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	// URL and query string safe.
	require.NotContainsf(t, token, "=", "token %q must not be padded", token)
	require.False(t, strings.ContainsAny(token, "+/"), "token %q must use url alphabet", token)

	decoded, err := DefaultCodec.Decode(token, _fileOrdering)
	require.NoError(t, err)

	values := decoded.Values()
	require.Len(t, values, 7)
	assert.True(t, created.Equal(values[0].(time.Time)))
	assert.Equal(t, publicID, values[1])
	assert.Equal(t, "report|2024.pdf", values[2])
	assert.Equal(t, true, values[3])
	assert.Equal(t, 0.1, values[4])
	assert.Equal(t, uint64(4096), values[5])
	assert.Equal(t, uint64(1<<63+7), values[6])

	again, err := DefaultCodec.Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, token, again, "encoding is deterministic")
}

func Test_Codec_IntegersKeepPrecision(t *testing.T) {
	ord := Orderings{{Column: "id", Direction: DirectionASC}}
	for _, v := range []any{int8(-3), int(1 << 53), int64(1<<53 + 1), int64(-1 << 63)} {
		token, err := DefaultCodec.Encode(NewCursor(CursorElement{Column: "id", Value: v}))
		require.NoError(t, err)

		decoded, err := DecodeCursor(token, ord)
		require.NoError(t, err)

		want, _, err := normalizeValue(v)
		require.NoError(t, err)
		assert.Equal(t, want, decoded.Values()[0])
	}
}

func Test_Codec_Encode_Errors(t *testing.T) {
	var nilTime *time.Time

	tests := []struct {
		name  string
		value any
	}{
		{"nil value", nil},
		{"nil pointer", nilTime},
		{"unsupported type", []int{1}},
		{"struct", struct{ A int }{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultCodec.Encode(NewCursor(CursorElement{Column: "id", Value: tt.value}))
			assert.Error(t, err)
		})
	}
}

func Test_Codec_Encode_Empty(t *testing.T) {
	token, err := DefaultCodec.Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, token)

	c, err := DefaultCodec.Decode("", Orderings{{Column: "id", Direction: DirectionASC}})
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func Test_Codec_Decode_Invalid(t *testing.T) {
	ord := Orderings{
		{Column: "created", Direction: DirectionASC},
		{Column: "id", Direction: DirectionASC},
	}
	b64 := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	valid := NewCursor(
		CursorElement{Column: "created", Value: 3},
		CursorElement{Column: "id", Value: 3},
	).String()

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "not-base64!"},
		{"truncated", valid[:len(valid)-3]},
		{"not json", b64("created|3")},
		{"not a list", b64(`{"c":"id","t":"int","v":1}`)},
		{"empty list", b64(`[]`)},
		{"arity mismatch", b64(`[{"c":"created","t":"int","v":1}]`)},
		{"column mismatch", b64(`[{"c":"updated","t":"int","v":1},{"c":"id","t":"int","v":1}]`)},
		{"unknown type", b64(`[{"c":"created","t":"blob","v":1},{"c":"id","t":"int","v":1}]`)},
		{"int is a string", b64(`[{"c":"created","t":"int","v":"1"},{"c":"id","t":"int","v":1}]`)},
		{"int is a float", b64(`[{"c":"created","t":"int","v":1.5},{"c":"id","t":"int","v":1}]`)},
		{"negative uint", b64(`[{"c":"created","t":"uint","v":-1},{"c":"id","t":"int","v":1}]`)},
		{"bad time", b64(`[{"c":"created","t":"time","v":"yesterday"},{"c":"id","t":"int","v":1}]`)},
		{"bad uuid", b64(`[{"c":"created","t":"int","v":1},{"c":"id","t":"uuid","v":"xyz"}]`)},
		{"bool is a number", b64(`[{"c":"created","t":"bool","v":1},{"c":"id","t":"int","v":1}]`)},
		{"null string", b64(`[{"c":"created","t":"string","v":null},{"c":"id","t":"int","v":1}]`)},
		{"null bool", b64(`[{"c":"created","t":"int","v":1},{"c":"id","t":"bool","v":null}]`)},
		{"null int", b64(`[{"c":"created","t":"int","v":null},{"c":"id","t":"int","v":1}]`)},
		{"missing value", b64(`[{"c":"created","t":"string"},{"c":"id","t":"int","v":1}]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := DecodeCursor(tt.token, ord)
			assert.ErrorIs(t, err, ErrCursorInvalid)
			assert.Nil(t, c)
		})
	}

	_, err := DecodeCursor(valid, ord)
	assert.NoError(t, err)
}

func Test_Codec_Signed(t *testing.T) {
	ord := Orderings{{Column: "id", Direction: DirectionASC}}
	position := NewCursor(CursorElement{Column: "id", Value: 42})

	signer, err := NewCodec(WithSigningKey([]byte("secret")))
	require.NoError(t, err)
	peer, err := NewCodec(WithSigningKey([]byte("secret")))
	require.NoError(t, err)
	stranger, err := NewCodec(WithSigningKey([]byte("other secret")))
	require.NoError(t, err)

	token, err := signer.Encode(position)
	require.NoError(t, err)

	decoded, err := peer.Decode(token, ord)
	require.NoError(t, err, "codecs with the same key interoperate")
	assert.Equal(t, []any{int64(42)}, decoded.Values())

	_, err = stranger.Decode(token, ord)
	assert.ErrorIs(t, err, ErrCursorInvalid)

	_, err = signer.Decode(position.String(), ord)
	assert.ErrorIs(t, err, ErrCursorInvalid, "unsigned token is rejected")

	forged := NewCursor(CursorElement{Column: "id", Value: 1}).String()
	_, err = signer.Decode(forged+token[strings.LastIndex(token, "."):], ord)
	assert.ErrorIs(t, err, ErrCursorInvalid, "signature of another payload is rejected")

	_, err = DefaultCodec.Decode(token, ord)
	assert.ErrorIs(t, err, ErrCursorInvalid, "unsigned codec does not accept signed tokens")

	_, err = NewCodec(WithSigningKey(make([]byte, 65)))
	assert.Error(t, err)
}

func Test_CursorOf(t *testing.T) {
	type item struct {
		ID      uint
		Created time.Time
	}

	getters := Getters[item]{
		"id":      func(i item) any { return i.ID },
		"created": func(i item) any { return i.Created },
	}
	ord := Orderings{{Column: "created", Direction: DirectionASC}, {Column: "id", Direction: DirectionASC}}
	row := item{ID: 2, Created: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}

	c, err := CursorOf(row, ord, getters)
	require.NoError(t, err)
	require.Equal(t, []CursorElement{
		{Column: "created", Value: row.Created},
		{Column: "id", Value: uint(2)},
	}, c.GetElements())

	_, err = CursorOf(row, append(ord, OrderBy{Column: "name", Direction: DirectionASC}), getters)
	assert.Error(t, err, "missing getter")
}

func Test_Cursor_String_Decode_And_Compare(t *testing.T) {
	c := NewCursor(CursorElement{Column: "id", Value: 1})
	enc := c.String()

	c2, err := DecodeCursor(enc, Orderings{{Column: "id", Direction: DirectionASC}})
	if err != nil {
		t.Fatalf("roundtrip failed: %v", err)
	}

	require.Equal(t, c2.String(), c.String())
	require.Panics(t, func() { _ = NewCursor(CursorElement{Column: "id"}).String() })
}
