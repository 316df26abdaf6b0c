package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"

	"github.com/gin-gonic/gin/binding"
	"github.com/ugorji/go/codec"

	"github.com/andydunstall/primegossip/node"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/x-msgpack"
)

// Codec encodes and decodes wire messages.
type Codec interface {
	Name() string
	ContentType() string
	Encode(w io.Writer, m *Message) error
	Decode(r io.Reader, m *Message) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) ContentType() string {
	return ContentTypeJSON
}

func (jsonCodec) Encode(w io.Writer, m *Message) error {
	return json.NewEncoder(w).Encode(m)
}

func (jsonCodec) Decode(r io.Reader, m *Message) error {
	return json.NewDecoder(r).Decode(m)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string {
	return "msgpack"
}

func (msgpackCodec) ContentType() string {
	return ContentTypeMsgpack
}

func (msgpackCodec) Encode(w io.Writer, m *Message) error {
	var handle codec.MsgpackHandle
	return codec.NewEncoder(w, &handle).Encode(m)
}

func (msgpackCodec) Decode(r io.Reader, m *Message) error {
	var handle codec.MsgpackHandle
	return codec.NewDecoder(r, &handle).Decode(m)
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// CodecByName returns the codec with the given name, either 'json' or
// 'msgpack'.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}

// CodecByContentType returns the codec for the given content type. A missing
// content type defaults to JSON.
func CodecByContentType(contentType string) (Codec, error) {
	if contentType == "" {
		return JSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("content type: %w", err)
	}
	switch mediaType {
	case ContentTypeJSON:
		return JSON, nil
	case ContentTypeMsgpack:
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", mediaType)
	}
}

// Encode encodes the message, returning the number of bytes written.
func Encode(w io.Writer, c Codec, m node.Message) (int, error) {
	tw := newTrackedWriter(w)
	if err := c.Encode(tw, FromMessage(m)); err != nil {
		return tw.NumBytesWritten(), fmt.Errorf("encode: %w", err)
	}
	return tw.NumBytesWritten(), nil
}

// Decode decodes and validates a message with the given content type.
//
// Any error means the message is malformed and must not be processed.
func Decode(r io.Reader, contentType string) (node.Message, error) {
	c, err := CodecByContentType(contentType)
	if err != nil {
		return node.Message{}, err
	}

	var wire Message
	if err := c.Decode(r, &wire); err != nil {
		return node.Message{}, fmt.Errorf("decode: %w", err)
	}
	if err := binding.Validator.ValidateStruct(&wire); err != nil {
		return node.Message{}, fmt.Errorf("validate: %w", err)
	}
	return wire.ToMessage()
}

// trackedWriter is a wrapper for the underlying writer that counts the number
// of bytes written.
type trackedWriter struct {
	w io.Writer
	n int
}

func newTrackedWriter(w io.Writer) *trackedWriter {
	return &trackedWriter{
		w: w,
	}
}

func (w *trackedWriter) Write(b []byte) (int, error) {
	n, err := w.w.Write(b)
	w.n += n
	return n, err
}

func (w *trackedWriter) NumBytesWritten() int {
	return w.n
}

var _ io.Writer = &trackedWriter{}
