package api

import "encoding/json"

// The backend has shipped three envelope variants over time: the bare value,
// {"data": value} and an endpoint-specific wrapper such as {"wallets": [...]}.
// unwrap picks out the payload fragment; anything still unrecognized fails as
// invalid_shape when the caller decodes it, never as a panic.
func unwrap(raw json.RawMessage, keys ...string) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Bare arrays and scalars are not objects; pass them through.
		return raw
	}
	for _, key := range keys {
		if inner, ok := envelope[key]; ok {
			return inner
		}
	}
	if inner, ok := envelope["data"]; ok {
		return inner
	}
	return raw
}

// decode unwraps and unmarshals a response into its canonical type. This is
// the single normalization step per endpoint; call sites never guess shapes.
func decode[T any](ep Endpoint, raw json.RawMessage, keys ...string) (T, error) {
	var out T
	if err := json.Unmarshal(unwrap(raw, keys...), &out); err != nil {
		return out, invalidShape(ep.Name, err.Error())
	}
	return out, nil
}

// serverMessage pulls the error text out of a rejection body. The backend has
// used "detail" (FastAPI), "message" and "error" at different times.
func serverMessage(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		v, ok := body[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
