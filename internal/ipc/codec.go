package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pitrac/pitrac-go/internal/clubdata"
)

// ErrMalformedMessage is returned by a Codec when the wire bytes don't
// decode into a well-formed Message.
var ErrMalformedMessage = errors.New("ipc: malformed message")

// Codec converts a Message to and from wire bytes. Publish/Subscribe use
// whichever Codec the Bus is configured with, letting the wire encoding be
// selected by config without touching the pub/sub plumbing.
type Codec interface {
	Encode(Message) ([]byte, error)
	Decode([]byte) (Message, error)
}

// JSONCodec is the default, human-inspectable encoding.
type JSONCodec struct{}

func (JSONCodec) Encode(msg Message) ([]byte, error) { return json.Marshal(msg) }

func (JSONCodec) Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return msg, nil
}

// ProtoCodec is the compact binary alternate, hand-encoding Message onto
// the protobuf wire format via protowire rather than a generated
// marshaller — there is exactly one message shape to encode and it never
// changes independently of this package, so a .proto/protoc step buys
// nothing a direct protowire.Append/Consume pass doesn't already give.
type ProtoCodec struct{}

const (
	fieldKind     = 1
	fieldSenderID = 2
	fieldImage    = 3
	fieldControl  = 4
	fieldResult   = 5

	ctrlFieldAction = 1
	ctrlFieldClub   = 2

	resFieldShotNumber  = 1
	resFieldSpeedMPH    = 2
	resFieldVLADeg      = 3
	resFieldHLADeg      = 4
	resFieldBackSpin    = 5
	resFieldSideSpin    = 6
	resFieldClubType    = 7
)

func (ProtoCodec) Encode(msg Message) ([]byte, error) {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldKind, protowire.BytesType)
	buf = protowire.AppendString(buf, string(msg.Kind))
	buf = protowire.AppendTag(buf, fieldSenderID, protowire.BytesType)
	buf = protowire.AppendString(buf, msg.SenderID)

	if len(msg.Image) > 0 {
		buf = protowire.AppendTag(buf, fieldImage, protowire.BytesType)
		buf = protowire.AppendBytes(buf, msg.Image)
	}
	if msg.Control != nil {
		buf = protowire.AppendTag(buf, fieldControl, protowire.BytesType)
		buf = protowire.AppendBytes(buf, encodeControl(*msg.Control))
	}
	if msg.Result != nil {
		buf = protowire.AppendTag(buf, fieldResult, protowire.BytesType)
		buf = protowire.AppendBytes(buf, encodeResult(*msg.Result))
	}
	return buf, nil
}

func encodeControl(c ControlPayload) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, ctrlFieldAction, protowire.BytesType)
	buf = protowire.AppendString(buf, string(c.Action))
	buf = protowire.AppendTag(buf, ctrlFieldClub, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int32(c.ClubType)))
	return buf
}

func encodeResult(r ResultPayload) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, resFieldShotNumber, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int64(r.ShotNumber)))
	buf = appendFloatField(buf, resFieldSpeedMPH, r.SpeedMPH)
	buf = appendFloatField(buf, resFieldVLADeg, r.VLADeg)
	buf = appendFloatField(buf, resFieldHLADeg, r.HLADeg)
	buf = appendFloatField(buf, resFieldBackSpin, r.BackSpinRPM)
	buf = appendFloatField(buf, resFieldSideSpin, r.SideSpinRPM)
	buf = protowire.AppendTag(buf, resFieldClubType, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int32(r.ClubType)))
	return buf
}

func appendFloatField(buf []byte, field protowire.Number, v float32) []byte {
	buf = protowire.AppendTag(buf, field, protowire.Fixed32Type)
	return protowire.AppendFixed32(buf, math.Float32bits(v))
}

func (ProtoCodec) Decode(data []byte) (Message, error) {
	var msg Message
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Message{}, ErrMalformedMessage
		}
		data = data[n:]

		switch num {
		case fieldKind:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return Message{}, ErrMalformedMessage
			}
			msg.Kind = Kind(s)
			data = data[m:]
		case fieldSenderID:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return Message{}, ErrMalformedMessage
			}
			msg.SenderID = s
			data = data[m:]
		case fieldImage:
			b, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return Message{}, ErrMalformedMessage
			}
			msg.Image = append([]byte(nil), b...)
			data = data[m:]
		case fieldControl:
			b, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return Message{}, ErrMalformedMessage
			}
			ctrl, err := decodeControl(b)
			if err != nil {
				return Message{}, err
			}
			msg.Control = &ctrl
			data = data[m:]
		case fieldResult:
			b, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return Message{}, ErrMalformedMessage
			}
			res, err := decodeResult(b)
			if err != nil {
				return Message{}, err
			}
			msg.Result = &res
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return Message{}, ErrMalformedMessage
			}
			data = data[m:]
		}
	}
	return msg, nil
}

func decodeControl(data []byte) (ControlPayload, error) {
	var c ControlPayload
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return c, ErrMalformedMessage
		}
		data = data[n:]
		switch num {
		case ctrlFieldAction:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return c, ErrMalformedMessage
			}
			c.Action = ControlAction(s)
			data = data[m:]
		case ctrlFieldClub:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return c, ErrMalformedMessage
			}
			c.ClubType = clubdata.ClubType(int32(v))
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return c, ErrMalformedMessage
			}
			data = data[m:]
		}
	}
	return c, nil
}

func decodeResult(data []byte) (ResultPayload, error) {
	var r ResultPayload
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return r, ErrMalformedMessage
		}
		data = data[n:]
		switch num {
		case resFieldShotNumber:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return r, ErrMalformedMessage
			}
			r.ShotNumber = int(v)
			data = data[m:]
		case resFieldSpeedMPH:
			v, m, err := consumeFloatField(data)
			if err != nil {
				return r, err
			}
			r.SpeedMPH = v
			data = data[m:]
		case resFieldVLADeg:
			v, m, err := consumeFloatField(data)
			if err != nil {
				return r, err
			}
			r.VLADeg = v
			data = data[m:]
		case resFieldHLADeg:
			v, m, err := consumeFloatField(data)
			if err != nil {
				return r, err
			}
			r.HLADeg = v
			data = data[m:]
		case resFieldBackSpin:
			v, m, err := consumeFloatField(data)
			if err != nil {
				return r, err
			}
			r.BackSpinRPM = v
			data = data[m:]
		case resFieldSideSpin:
			v, m, err := consumeFloatField(data)
			if err != nil {
				return r, err
			}
			r.SideSpinRPM = v
			data = data[m:]
		case resFieldClubType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return r, ErrMalformedMessage
			}
			r.ClubType = clubdata.ClubType(int32(v))
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return r, ErrMalformedMessage
			}
			data = data[m:]
		}
	}
	return r, nil
}

func consumeFloatField(data []byte) (float32, int, error) {
	bits, m := protowire.ConsumeFixed32(data)
	if m < 0 {
		return 0, 0, ErrMalformedMessage
	}
	return math.Float32frombits(bits), m, nil
}
