package backup

import (
	"encoding/json"
	"fmt"

	"github.com/dukerupert/chorejar/internal/model"
)

// Encode renders an export as indented JSON, encrypted when passphrase is
// not empty.
func Encode(data *model.AppData, passphrase string) ([]byte, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	if passphrase == "" {
		return raw, nil
	}
	return Encrypt(raw, passphrase)
}

// Decode parses an export written by Encode. Plain JSON files are accepted
// whether or not a passphrase is given.
func Decode(raw []byte, passphrase string) (*model.AppData, error) {
	if !json.Valid(raw) {
		if passphrase == "" {
			return nil, &model.ValidationError{Field: "file", Message: "is not valid JSON (encrypted exports need a passphrase)"}
		}
		plain, err := Decrypt(raw, passphrase)
		if err != nil {
			return nil, err
		}
		raw = plain
	}

	var data model.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &model.ValidationError{Field: "file", Message: fmt.Sprintf("is not a valid export: %v", err)}
	}
	return &data, nil
}
