package timeline

import "encoding/json"

// Serialize renders a Timeline to its canonical JSON wire format.
func Serialize(t *Timeline) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Parse decodes and validates a Timeline from its JSON wire format.
func Parse(data []byte) (*Timeline, error) {
	var t Timeline
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if err := Validate(&t); err != nil {
		return nil, err
	}
	return &t, nil
}
