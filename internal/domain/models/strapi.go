package models

import (
	"bytes"
	"encoding/json"
)

// UnwrapEntity приводит ответ CMS к плоскому виду.
// Поддерживаются три формы:
//
//	{"data": {...}}                       - обёртка связи (v4)
//	{"id": 1, "attributes": {...}}        - сущность v4
//	{"id": 1, "title": "..."}             - плоская сущность v5
//
// Для {"data": null} возвращается null.
func UnwrapEntity(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	if data, ok := obj["data"]; ok && len(obj) <= 2 {
		if _, hasMeta := obj["meta"]; len(obj) == 1 || hasMeta {
			return UnwrapEntity(data)
		}
	}

	attrs, ok := obj["attributes"]
	if !ok {
		return raw, nil
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(attrs, &flat); err != nil {
		return nil, err
	}
	if flat == nil {
		flat = make(map[string]json.RawMessage)
	}
	if id, ok := obj["id"]; ok {
		flat["id"] = id
	}

	return json.Marshal(flat)
}

// UnwrapList разворачивает массив сущностей, включая форму {"data": [...]}.
func UnwrapList(raw []byte) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		unwrapped, err := UnwrapEntity(raw)
		if err != nil {
			return nil, err
		}
		if isNull(unwrapped) {
			return nil, nil
		}
		if unwrapped[0] != '[' {
			// одиночная сущность там, где ждали список
			return []json.RawMessage{unwrapped}, nil
		}
		raw = unwrapped
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		flat, err := UnwrapEntity(item)
		if err != nil {
			return nil, err
		}
		out = append(out, flat)
	}

	return out, nil
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
