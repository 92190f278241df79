package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jaydenbeard/e2ee-core/protocolerr"
)

// appendBytesField appends a length-delimited field.
func appendBytesField(buf []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendBytes(buf, v)
}

// appendVarintField appends a varint field, omitting the zero value the
// way proto3 does (absence on the wire means "default").
func appendVarintField(buf []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, v)
}

// appendMessageField appends an embedded message as a length-delimited
// field.
func appendMessageField(buf []byte, num protowire.Number, embedded []byte) []byte {
	return appendBytesField(buf, num, embedded)
}

// fieldVisitor is called once per top-level field encountered while
// decoding a message. bytesVal is set for BytesType fields, varintVal for
// VarintType fields.
type fieldVisitor func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error

// decodeMessage walks every top-level field in data, dispatching to visit.
// Unknown field numbers and unsupported wire types are skipped rather than
// rejected, matching protobuf's forward-compatibility rules; any
// structural failure (truncated tag, truncated value) is reported as
// ErrInvalidProtobufEncoding, the single decode-failure category this
// module's hand-written codec uses in place of a generated decoder's
// richer error type.
func decodeMessage(data []byte, visit fieldVisitor) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: malformed field tag", protocolerr.ErrInvalidProtobufEncoding)
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: malformed varint", protocolerr.ErrInvalidProtobufEncoding)
			}
			data = data[n:]
			if err := visit(num, typ, nil, v); err != nil {
				return err
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("%w: malformed length-delimited field", protocolerr.ErrInvalidProtobufEncoding)
			}
			data = data[n:]
			if err := visit(num, typ, v, 0); err != nil {
				return err
			}
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return fmt.Errorf("%w: malformed fixed32", protocolerr.ErrInvalidProtobufEncoding)
			}
			data = data[n:]
			if err := visit(num, typ, nil, uint64(v)); err != nil {
				return err
			}
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("%w: malformed fixed64", protocolerr.ErrInvalidProtobufEncoding)
			}
			data = data[n:]
			if err := visit(num, typ, nil, v); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: unsupported field type", protocolerr.ErrInvalidProtobufEncoding)
			}
			data = data[n:]
		}
	}
	return nil
}
