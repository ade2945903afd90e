package store

import (
	"encoding/json"
	"fmt"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// EncodeObject converts an Object to canonical JSON TEXT for storage.
// A nil object is stored as "{}".
func EncodeObject(obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeObject parses stored JSON TEXT back into an Object.
// Integers go through json.Number, so values above 2^53 survive intact.
func DecodeObject(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return obj, nil
}
