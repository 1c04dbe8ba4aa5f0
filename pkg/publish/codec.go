// Package publish fans scans out to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/tagback/pkg/tag"
)

// Codec encodes scans on the wire.
type Codec interface {
	Name() string
	Encode(*tag.Scan) ([]byte, error)
	Decode([]byte) (*tag.Scan, error)
}

// Codecs.
var (
	JSON  Codec = jsonCodec{}
	Proto Codec = protoCodec{}
)

// CodecByName finds a codec by name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case JSON.Name():
		return JSON, nil
	case Proto.Name():
		return Proto, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// DetectCodec guesses the codec of a payload: a JSON object starts
// with '{' which never starts an encoded Struct.
func DetectCodec(payload []byte) Codec {
	if len(payload) > 0 && payload[0] == '{' {
		return JSON
	}
	return Proto
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(scan *tag.Scan) ([]byte, error) {
	return json.Marshal(scan)
}

func (jsonCodec) Decode(data []byte) (*tag.Scan, error) {
	var scan tag.Scan
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// protoCodec encodes a scan as google.protobuf.Struct so consumers
// don't need a generated message.
type protoCodec struct{}

func (protoCodec) Name() string { return "proto" }

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func (protoCodec) Encode(scan *tag.Scan) ([]byte, error) {
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"uid":  stringValue(scan.UID.String()),
		"time": stringValue(scan.Time.Format(time.RFC3339Nano)),
	}}
	if scan.Reader != "" {
		msg.Fields["reader"] = stringValue(scan.Reader)
	}
	return proto.Marshal(msg)
}

func (protoCodec) Decode(data []byte) (*tag.Scan, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	uid, err := tag.ParseUID(msg.Fields["uid"].GetStringValue())
	if err != nil {
		return nil, err
	}
	scan := &tag.Scan{UID: uid, Reader: msg.Fields["reader"].GetStringValue()}
	if ts := msg.Fields["time"].GetStringValue(); ts != "" {
		if scan.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("scan time: %v", err)
		}
	}
	return scan, nil
}
