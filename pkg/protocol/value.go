package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// ValueType tags an opaque value on the wire.
type ValueType uint8

const (
	ValueNull   ValueType = 0x00
	ValueBool   ValueType = 0x01
	ValueInt    ValueType = 0x02
	ValueFloat  ValueType = 0x03
	ValueString ValueType = 0x04
	ValueArray  ValueType = 0x05
	ValueObject ValueType = 0x06
)

// EncodeValue appends a tagged value. Integers, floats, strings, bools, nil,
// []any and map[string]any are written directly; any other type is first
// normalized through encoding/json, so struct payloads arrive as objects.
func EncodeValue(enc *Encoder, v any) error {
	switch val := v.(type) {
	case nil:
		enc.WriteByte(byte(ValueNull))
	case bool:
		enc.WriteByte(byte(ValueBool))
		enc.WriteBool(val)
	case int:
		writeInt(enc, int64(val))
	case int8:
		writeInt(enc, int64(val))
	case int16:
		writeInt(enc, int64(val))
	case int32:
		writeInt(enc, int64(val))
	case int64:
		writeInt(enc, val)
	case uint8:
		writeInt(enc, int64(val))
	case uint16:
		writeInt(enc, int64(val))
	case uint32:
		writeInt(enc, int64(val))
	case float32:
		enc.WriteByte(byte(ValueFloat))
		enc.WriteFloat64(float64(val))
	case float64:
		enc.WriteByte(byte(ValueFloat))
		enc.WriteFloat64(val)
	case string:
		enc.WriteByte(byte(ValueString))
		enc.WriteString(val)
	case []any:
		enc.WriteByte(byte(ValueArray))
		enc.WriteUvarint(uint64(len(val)))
		for _, item := range val {
			if err := EncodeValue(enc, item); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		enc.WriteByte(byte(ValueObject))
		enc.WriteUvarint(uint64(len(val)))
		for _, k := range keys {
			enc.WriteString(k)
			if err := EncodeValue(enc, val[k]); err != nil {
				return err
			}
		}
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("protocol: encode value of type %T: %w", v, err)
		}
		var norm any
		if err := json.Unmarshal(raw, &norm); err != nil {
			return fmt.Errorf("protocol: encode value of type %T: %w", v, err)
		}
		return EncodeValue(enc, norm)
	}
	return nil
}

func writeInt(enc *Encoder, v int64) {
	enc.WriteByte(byte(ValueInt))
	enc.WriteSvarint(v)
}

// DecodeValue reads a tagged value. Integers decode as int64 and floats as
// float64.
func DecodeValue(d *Decoder) (any, error) {
	return decodeValue(d, 0, MaxValueDepth)
}

func decodeValue(d *Decoder, depth, max int) (any, error) {
	if depth > max {
		return nil, ErrMaxDepthExceeded
	}

	typeByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch ValueType(typeByte) {
	case ValueNull:
		return nil, nil

	case ValueBool:
		return d.ReadBool()

	case ValueInt:
		return d.ReadSvarint()

	case ValueFloat:
		return d.ReadFloat64()

	case ValueString:
		return d.ReadString()

	case ValueArray:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		arr := make([]any, count)
		for i := 0; i < count; i++ {
			val, err := decodeValue(d, depth+1, max)
			if err != nil {
				return nil, err
			}
			arr[i] = val
		}
		return arr, nil

	case ValueObject:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		obj := make(map[string]any, count)
		for i := 0; i < count; i++ {
			key, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			val, err := decodeValue(d, depth+1, max)
			if err != nil {
				return nil, err
			}
			obj[key] = val
		}
		return obj, nil

	default:
		return nil, io.ErrUnexpectedEOF
	}
}
