package protocol

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Codec decodes envelope bodies into handler payload types and encodes replies.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec decodes with go-json and then enforces `validate` struct tags,
// so a body lacking a required field is rejected rather than zero-filled.
type JSONCodec struct {
	validate *validator.Validate
}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (c *JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	if !isStruct(v) {
		return nil
	}
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("validate %T: %w", v, err)
	}
	return nil
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
