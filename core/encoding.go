package core

import "encoding/json"

// DecodeJSON unmarshals data into v.
func DecodeJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// EncodeJSON marshals v, returning nil on failure. Callers that need the
// error should marshal directly.
func EncodeJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
