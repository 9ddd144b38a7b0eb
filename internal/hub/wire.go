package hub

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Методы сервиса hub.Hub.
const (
	methodGetTask          = "/hub.Hub/GetTask"
	methodSubmitTaskResult = "/hub.Hub/SubmitTaskResult"
)

// wireMessage — сообщение, которое умеет кодировать себя в protobuf.
type wireMessage interface {
	marshalWire() []byte
	unmarshalWire(b []byte) error
}

// protoCodec — gRPC codec для wireMessage.
type protoCodec struct{}

func (protoCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("hub codec: unsupported type %T", v)
	}
	return m.marshalWire(), nil
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("hub codec: unsupported type %T", v)
	}
	return m.unmarshalWire(data)
}

func (protoCodec) Name() string { return "proto" }

// providerRequest — hub.ProviderRequest.
//
//	string provider   = 1;
//	string auth_token = 2;
type providerRequest struct {
	Provider  string
	AuthToken string
}

func (m *providerRequest) marshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Provider)
	b = appendString(b, 2, m.AuthToken)
	return b
}

func (m *providerRequest) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, v []byte) {
		switch num {
		case 1:
			m.Provider = string(v)
		case 2:
			m.AuthToken = string(v)
		}
	})
}

// wireTask — hub.Task.
//
//	string task_id = 1;
//	string action  = 2;
//	bytes  payload = 3;
//	bytes  account = 4;
type wireTask struct {
	domain.Task
}

func (m *wireTask) marshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.Action)
	b = appendBytes(b, 3, m.Payload)
	b = appendBytes(b, 4, m.Account)
	return b
}

func (m *wireTask) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, v []byte) {
		switch num {
		case 1:
			m.ID = string(v)
		case 2:
			m.Action = string(v)
		case 3:
			m.Payload = clone(v)
		case 4:
			m.Account = clone(v)
		}
	})
}

// wireTaskResult — hub.TaskResult.
//
//	string task_id    = 1;
//	string provider   = 2;
//	string auth_token = 3;
//	string action     = 4;
//	string status     = 5;
//	bytes  payload    = 6;
//	bytes  account    = 7;
//	bytes  result     = 8;
type wireTaskResult struct {
	domain.TaskResult
}

func (m *wireTaskResult) marshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.Provider)
	b = appendString(b, 3, m.AuthToken)
	b = appendString(b, 4, m.Action)
	b = appendString(b, 5, string(m.Status))
	b = appendBytes(b, 6, m.Payload)
	b = appendBytes(b, 7, m.Account)
	b = appendBytes(b, 8, m.Result)
	return b
}

func (m *wireTaskResult) unmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, v []byte) {
		switch num {
		case 1:
			m.ID = string(v)
		case 2:
			m.Provider = string(v)
		case 3:
			m.AuthToken = string(v)
		case 4:
			m.Action = string(v)
		case 5:
			m.Status = domain.Status(v)
		case 6:
			m.Payload = clone(v)
		case 7:
			m.Account = clone(v)
		case 8:
			m.Result = clone(v)
		}
	})
}

// empty — google.protobuf.Empty.
type empty struct{}

func (*empty) marshalWire() []byte { return nil }

func (*empty) unmarshalWire(b []byte) error {
	return consumeFields(b, func(protowire.Number, []byte) {})
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// consumeFields обходит поля сообщения. Поля с wire type != bytes пропускаются.
// v указывает во входной буфер.
func consumeFields(b []byte, fn func(num protowire.Number, v []byte)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("hub codec: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("hub codec: field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return fmt.Errorf("hub codec: field %d: %w", num, protowire.ParseError(n))
		}
		fn(num, v)
		b = b[n:]
	}
	return nil
}

func clone(v []byte) []byte {
	if len(v) == 0 {
		return nil
	}
	return append([]byte(nil), v...)
}
