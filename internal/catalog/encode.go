package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalVolumes encodes volumes as the JSON array written to a partition's
// output file. A nil slice is written as an empty array.
func MarshalVolumes(volumes []Volume) ([]byte, error) {
	if volumes == nil {
		volumes = []Volume{}
	}
	data, err := json.MarshalIndent(volumes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode volumes: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalVolumes decodes a JSON array of canonical volumes.
// Amounts keep their decimal text.
func UnmarshalVolumes(data []byte) ([]Volume, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var volumes []Volume
	if err := dec.Decode(&volumes); err != nil {
		return nil, fmt.Errorf("failed to decode volumes: %w", err)
	}
	return volumes, nil
}
