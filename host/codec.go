package host

import (
	"encoding/json"
	"fmt"

	"github.com/linkedin/goavro/v2"
)

const (
	avroNamespace   = "columnmap.host"
	hostFailureName = avroNamespace + ".HostFailure"
)

type Request struct {
	Id     string
	Handle string
	Values []*string
}

type Response struct {
	Id     string
	Values []any
	Error  *HostError
}

// BatchCodec serializes requests and responses crossing a process
// boundary. Both directions are avro binary.
type BatchCodec struct {
	request  *goavro.Codec
	response *goavro.Codec
}

func NewBatchCodec() (*BatchCodec, error) {
	type avroField struct {
		Name string `json:"name"`
		Type any    `json:"type"`
	}
	type avroSchemaTemplate struct {
		Type      string      `json:"type"`
		Name      string      `json:"name"`
		Namespace string      `json:"namespace,omitempty"`
		Fields    []avroField `json:"fields"`
	}
	type avroArray struct {
		Type  string `json:"type"`
		Items any    `json:"items"`
	}

	requestSchema := avroSchemaTemplate{
		Type:      "record",
		Name:      "HostRequest",
		Namespace: avroNamespace,
		Fields: []avroField{
			{Name: "id", Type: "string"},
			{Name: "handle", Type: "string"},
			{Name: "values", Type: avroArray{Type: "array", Items: []string{"null", "string"}}},
		},
	}
	responseSchema := avroSchemaTemplate{
		Type:      "record",
		Name:      "HostResponse",
		Namespace: avroNamespace,
		Fields: []avroField{
			{Name: "id", Type: "string"},
			{Name: "values", Type: avroArray{
				Type:  "array",
				Items: []string{"null", "string", "bytes", "long", "double", "boolean"},
			}},
			{Name: "error", Type: []any{
				"null",
				avroSchemaTemplate{
					Type: "record",
					Name: "HostFailure",
					Fields: []avroField{
						{Name: "index", Type: "long"},
						{Name: "message", Type: "string"},
					},
				},
			}},
		},
	}

	requestCodec, err := buildCodec(requestSchema)
	if err != nil {
		return nil, err
	}
	responseCodec, err := buildCodec(responseSchema)
	if err != nil {
		return nil, err
	}
	return &BatchCodec{request: requestCodec, response: responseCodec}, nil
}

func buildCodec(schema any) (*goavro.Codec, error) {
	codecData, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	codec, err := goavro.NewCodec(string(codecData))
	if err != nil {
		return nil, err
	}
	return codec, nil
}

func (obj *BatchCodec) EncodeRequest(req Request) ([]byte, error) {
	values := make([]any, len(req.Values))
	for i, v := range req.Values {
		if v != nil {
			values[i] = goavro.Union("string", *v)
		}
	}
	return obj.request.BinaryFromNative(nil, map[string]any{
		"id":     req.Id,
		"handle": req.Handle,
		"values": values,
	})
}

func (obj *BatchCodec) DecodeRequest(data []byte) (Request, error) {
	native, _, err := obj.request.NativeFromBinary(data)
	if err != nil {
		return Request{}, fmt.Errorf("%w| %v", ErrMalformedMessage, err)
	}
	record, ok := native.(map[string]any)
	if !ok {
		return Request{}, fmt.Errorf("%w| request is not a record", ErrMalformedMessage)
	}

	rawValues, _ := record["values"].([]any)
	values := make([]*string, len(rawValues))
	for i, raw := range rawValues {
		v, err := unwrapUnion(raw)
		if err != nil {
			return Request{}, err
		}
		if s, ok := v.(string); ok {
			values[i] = &s
		}
	}

	id, _ := record["id"].(string)
	handle, _ := record["handle"].(string)
	return Request{Id: id, Handle: handle, Values: values}, nil
}

func (obj *BatchCodec) EncodeResponse(resp Response) ([]byte, error) {
	values := make([]any, len(resp.Values))
	for i, v := range resp.Values {
		wrapped, err := wrapValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w| value %d", err, i)
		}
		values[i] = wrapped
	}

	var failure any
	if resp.Error != nil {
		failure = goavro.Union(hostFailureName, map[string]any{
			"index":   int64(resp.Error.Index),
			"message": resp.Error.Message,
		})
	}

	return obj.response.BinaryFromNative(nil, map[string]any{
		"id":     resp.Id,
		"values": values,
		"error":  failure,
	})
}

func (obj *BatchCodec) DecodeResponse(data []byte) (Response, error) {
	native, _, err := obj.response.NativeFromBinary(data)
	if err != nil {
		return Response{}, fmt.Errorf("%w| %v", ErrMalformedMessage, err)
	}
	record, ok := native.(map[string]any)
	if !ok {
		return Response{}, fmt.Errorf("%w| response is not a record", ErrMalformedMessage)
	}

	rawValues, _ := record["values"].([]any)
	values := make([]any, len(rawValues))
	for i, raw := range rawValues {
		v, err := unwrapUnion(raw)
		if err != nil {
			return Response{}, err
		}
		values[i] = v
	}

	resp := Response{Values: values}
	resp.Id, _ = record["id"].(string)

	failure, err := unwrapUnion(record["error"])
	if err != nil {
		return Response{}, err
	}
	if failureRecord, ok := failure.(map[string]any); ok {
		index, _ := failureRecord["index"].(int64)
		message, _ := failureRecord["message"].(string)
		resp.Error = &HostError{Index: int(index), Message: message}
	}
	return resp, nil
}

func wrapValue(v any) (any, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case string:
		return goavro.Union("string", value), nil
	case *string:
		if value == nil {
			return nil, nil
		}
		return goavro.Union("string", *value), nil
	case []byte:
		return goavro.Union("bytes", value), nil
	case int:
		return goavro.Union("long", int64(value)), nil
	case int32:
		return goavro.Union("long", int64(value)), nil
	case int64:
		return goavro.Union("long", value), nil
	case float32:
		return goavro.Union("double", float64(value)), nil
	case float64:
		return goavro.Union("double", value), nil
	case bool:
		return goavro.Union("boolean", value), nil
	default:
		return nil, fmt.Errorf("%w| %T", ErrUnsupportedValueType, v)
	}
}

func unwrapUnion(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	branch, ok := raw.(map[string]any)
	if !ok || len(branch) != 1 {
		return nil, fmt.Errorf("%w| expected union value but received %T", ErrMalformedMessage, raw)
	}
	for _, v := range branch {
		return v, nil
	}
	return nil, nil
}
