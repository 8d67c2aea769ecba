package shape

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Marshal encodes s with its variant tag in a "type" field.
func Marshal(s Shape) ([]byte, error) {
	switch v := s.(type) {
	case *Frame:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Frame
		}{KindFrame, v})
	case *Rect:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Rect
		}{KindRect, v})
	case *Ellipse:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Ellipse
		}{KindEllipse, v})
	case *FreeDraw:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*FreeDraw
		}{KindFreeDraw, v})
	case *Line:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Line
		}{KindLine, v})
	case *Arrow:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Arrow
		}{KindArrow, v})
	case *Text:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Text
		}{KindText, v})
	case *GeneratedUI:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*GeneratedUI
		}{KindGeneratedUI, v})
	}
	return nil, fmt.Errorf("marshal: unknown shape %T", s)
}

// Unmarshal decodes a tagged shape.
func Unmarshal(data []byte) (Shape, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode shape tag: %w", err)
	}
	var s Shape
	switch head.Type {
	case KindFrame:
		s = &Frame{}
	case KindRect:
		s = &Rect{}
	case KindEllipse:
		s = &Ellipse{}
	case KindFreeDraw:
		s = &FreeDraw{}
	case KindLine:
		s = &Line{}
	case KindArrow:
		s = &Arrow{}
	case KindText:
		s = &Text{}
	case KindGeneratedUI:
		s = &GeneratedUI{}
	default:
		return nil, fmt.Errorf("decode shape: unknown type %q", head.Type)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}
	if s.ShapeID() == "" {
		return nil, fmt.Errorf("decode %s: missing id", head.Type)
	}
	return s, nil
}

// mapJSON mirrors the normalised {ids, entities} layout used on the wire.
type mapJSON struct {
	IDs      []string                   `json:"ids"`
	Entities map[string]json.RawMessage `json:"entities"`
}

// MarshalJSON encodes the map as {"ids": [...], "entities": {...}}.
func (m *Map) MarshalJSON() ([]byte, error) {
	out := mapJSON{IDs: m.IDs(), Entities: make(map[string]json.RawMessage, len(m.ids))}
	if out.IDs == nil {
		out.IDs = []string{}
	}
	for _, id := range m.ids {
		data, err := Marshal(m.byID[id])
		if err != nil {
			return nil, err
		}
		out.Entities[id] = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the {ids, entities} layout. IDs without an entity
// are skipped; entities missing from ids are appended in key order so no
// shape is lost.
func (m *Map) UnmarshalJSON(data []byte) error {
	var in mapJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode shapes: %w", err)
	}
	fresh := NewMap()
	seen := make(map[string]bool, len(in.IDs))
	add := func(id string) error {
		raw, ok := in.Entities[id]
		if !ok || seen[id] {
			return nil
		}
		seen[id] = true
		s, err := Unmarshal(raw)
		if err != nil {
			return err
		}
		if s.ShapeID() != id {
			return fmt.Errorf("decode shapes: entity key %q holds id %q", id, s.ShapeID())
		}
		return fresh.Add(s)
	}
	for _, id := range in.IDs {
		if err := add(id); err != nil {
			return err
		}
	}
	rest := make([]string, 0)
	for id := range in.Entities {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	for _, id := range rest {
		if err := add(id); err != nil {
			return err
		}
	}
	*m = *fresh
	return nil
}
