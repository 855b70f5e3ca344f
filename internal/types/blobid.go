// Package types holds the core data model shared by every stage of the
// scanning pipeline: blobs, rules, matches, findings, origins and
// validation outcomes.
package types

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// BlobID is the SHA-256 digest of a blob's raw bytes. The id is a
// function of content alone: two adapters that yield identical bytes
// converge on the same BlobID without coordination, which is what makes
// the dedup gate and cross-source origin aggregation work.
type BlobID [sha256.Size]byte

// ComputeBlobID digests content into its id.
func ComputeBlobID(content []byte) BlobID {
	return sha256.Sum256(content)
}

// Hex returns the 64-character hex encoding of the id.
func (id BlobID) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id BlobID) String() string {
	return id.Hex()
}

// ParseBlobID parses a 64-character hex string into a BlobID.
func ParseBlobID(hexStr string) (BlobID, error) {
	if len(hexStr) != 2*sha256.Size {
		return BlobID{}, fmt.Errorf("invalid blob id length: expected %d, got %d", 2*sha256.Size, len(hexStr))
	}
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return BlobID{}, fmt.Errorf("invalid hex string: %w", err)
	}
	var id BlobID
	copy(id[:], decoded)
	return id, nil
}

func (id BlobID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

func (id *BlobID) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	parsed, err := ParseBlobID(hexStr)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer so a BlobID can be stored directly by the
// sqlite findings-store backend.
func (id BlobID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner, the inverse of Value.
func (id *BlobID) Scan(value interface{}) error {
	if value == nil {
		return fmt.Errorf("cannot scan nil into BlobID")
	}
	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into BlobID", value)
	}
	parsed, err := ParseBlobID(hexStr)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
