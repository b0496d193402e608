package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"reflect"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes request and response bodies for one media type.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) ContentType() string { return ContentTypeJSON }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// msgpackCodec encodes models with their json tags so one set of struct tags serves both codecs.
type msgpackCodec struct{}

func (msgpackCodec) ContentType() string { return ContentTypeMsgPack }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

var (
	JSONCodec    Codec = jsonCodec{}
	MsgPackCodec Codec = msgpackCodec{}
)

// CodecFor returns the codec serving a Content-Type header value.
func CodecFor(contentType string) (Codec, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	switch {
	case mediaType == ContentTypeJSON || strings.HasSuffix(mediaType, "+json"):
		return JSONCodec, true
	case mediaType == ContentTypeMsgPack || mediaType == ContentTypeXMsgPack:
		return MsgPackCodec, true
	}
	return nil, false
}

// selectAccept builds the Accept header from the media types an operation produces.
// JSON is preferred when offered: it is listed first and the other types follow
// with a lower quality, so servers that can serve them still may.
func selectAccept(accepts []string) string {
	if len(accepts) == 0 {
		return ""
	}
	preferred := -1
	for i, accept := range accepts {
		if codec, ok := CodecFor(accept); ok && codec == JSONCodec {
			preferred = i
			break
		}
	}
	if preferred < 0 {
		return strings.Join(accepts, ", ")
	}
	values := []string{accepts[preferred]}
	for i, accept := range accepts {
		if i != preferred {
			values = append(values, accept+";q=0.9")
		}
	}
	return strings.Join(values, ", ")
}

// selectContentType picks the request Content-Type from the media types an operation consumes.
func selectContentType(contentTypes []string) string {
	if len(contentTypes) == 0 {
		return ContentTypeJSON
	}
	for _, ct := range contentTypes {
		if codec, ok := CodecFor(ct); ok && codec == JSONCodec {
			return ct
		}
	}
	return contentTypes[0]
}

// normalizeJSON turns a decoded body into the generic JSON shape
// (map[string]any, []any, float64...) schema validation works on.
func normalizeJSON(codec Codec, body []byte) (any, error) {
	var generic any
	if err := codec.Unmarshal(body, &generic); err != nil {
		return nil, err
	}
	if codec == JSONCodec {
		return generic, nil
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	var normalized any
	if err = json.Unmarshal(data, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// decodeBody decodes body into a new T, mapping decoder failures to *DecodeError.
func decodeBody[T any](codec Codec, body []byte) (*T, error) {
	result := new(T)
	err := codec.Unmarshal(body, result)
	if err == nil {
		return result, nil
	}
	decodeErr := &DecodeError{
		Expected: reflect.TypeFor[T]().String(),
		Actual:   "malformed " + codecName(codec),
		Err:      err,
	}
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		decodeErr.Field = typeErr.Field
		decodeErr.Expected = typeErr.Type.String()
		decodeErr.Actual = typeErr.Value
	case errors.As(err, &syntaxErr):
		decodeErr.Actual = fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset)
	}
	return nil, decodeErr
}

func codecName(codec Codec) string {
	if codec == MsgPackCodec {
		return "msgpack"
	}
	return "JSON"
}
