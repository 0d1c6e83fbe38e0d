// Package share defines the share value object passed between the encoder,
// the information-checking layer and persistence.
package share

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrDuplicateID is returned when a share set contains the same id twice.
var ErrDuplicateID = errors.New("share: duplicate id")

// ICType identifies the information-checking scheme applied to a share.
type ICType int

const (
	// ICNone marks shares without information-checking metadata.
	ICNone ICType = iota
	// ICRabinBenOr marks shares tagged with pairwise Rabin–Ben-Or MACs.
	ICRabinBenOr
	// ICCevallos is reserved for the Cevallos et al. variant. Nothing in
	// this module produces it.
	ICCevallos
)

func (t ICType) String() string {
	switch t {
	case ICNone:
		return "none"
	case ICRabinBenOr:
		return "rabin-ben-or"
	case ICCevallos:
		return "cevallos"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseICType is the inverse of ICType.String.
func ParseICType(s string) (ICType, error) {
	switch s {
	case "", "none":
		return ICNone, nil
	case "rabin-ben-or":
		return ICRabinBenOr, nil
	case "cevallos":
		return ICCevallos, nil
	}
	return ICNone, fmt.Errorf("unknown information checking type %q", s)
}

// Share is one participant's piece of a secret plus its information-checking
// material. Macs holds this share's tags keyed by the verifying peer's id;
// MacKeys holds the keys this share uses to verify each peer, keyed by that
// peer's id.
type Share struct {
	ID      byte
	YValues []byte
	Macs    map[byte][]byte
	MacKeys map[byte][]byte
	ICType  ICType
}

// New creates an untagged share. Id 0 is reserved for the secret itself.
func New(id byte, yValues []byte) (*Share, error) {
	if id == 0 {
		return nil, fmt.Errorf("share id must be in [1, 255]")
	}
	return &Share{
		ID:      id,
		YValues: yValues,
		Macs:    make(map[byte][]byte),
		MacKeys: make(map[byte][]byte),
	}, nil
}

// Clone returns a deep copy.
func (s *Share) Clone() *Share {
	c := &Share{
		ID:      s.ID,
		YValues: append([]byte(nil), s.YValues...),
		Macs:    cloneMap(s.Macs),
		MacKeys: cloneMap(s.MacKeys),
		ICType:  s.ICType,
	}
	return c
}

// Equal reports whether both shares carry identical ids, payloads and
// information-checking material.
func (s *Share) Equal(other *Share) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID &&
		s.ICType == other.ICType &&
		bytes.Equal(s.YValues, other.YValues) &&
		mapsEqual(s.Macs, other.Macs) &&
		mapsEqual(s.MacKeys, other.MacKeys)
}

// CheckUniqueIDs returns ErrDuplicateID if two shares share an id.
func CheckUniqueIDs(shares []*Share) error {
	var seen [256]bool
	for i, s := range shares {
		if s == nil {
			return fmt.Errorf("share at position %d is nil", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// IDs returns the ids of the given shares in order.
func IDs(shares []*Share) []byte {
	ids := make([]byte, len(shares))
	for i, s := range shares {
		ids[i] = s.ID
	}
	return ids
}

type jsonShare struct {
	ID      int               `json:"id"`
	YValues string            `json:"y_values"`
	Macs    map[string]string `json:"macs,omitempty"`
	MacKeys map[string]string `json:"mac_keys,omitempty"`
	ICType  string            `json:"ic_type"`
}

// MarshalJSON encodes payloads as hex and map keys as decimal ids.
func (s *Share) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonShare{
		ID:      int(s.ID),
		YValues: hex.EncodeToString(s.YValues),
		Macs:    encodeMap(s.Macs),
		MacKeys: encodeMap(s.MacKeys),
		ICType:  s.ICType.String(),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Share) UnmarshalJSON(data []byte) error {
	var js jsonShare
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}

	if js.ID < 1 || js.ID > 255 {
		return fmt.Errorf("share id %d out of range [1, 255]", js.ID)
	}

	y, err := hex.DecodeString(js.YValues)
	if err != nil {
		return fmt.Errorf("share %d: invalid y_values: %w", js.ID, err)
	}

	macs, err := decodeMap(js.Macs)
	if err != nil {
		return fmt.Errorf("share %d: invalid macs: %w", js.ID, err)
	}

	keys, err := decodeMap(js.MacKeys)
	if err != nil {
		return fmt.Errorf("share %d: invalid mac_keys: %w", js.ID, err)
	}

	icType, err := ParseICType(js.ICType)
	if err != nil {
		return fmt.Errorf("share %d: %w", js.ID, err)
	}

	*s = Share{
		ID:      byte(js.ID),
		YValues: y,
		Macs:    macs,
		MacKeys: keys,
		ICType:  icType,
	}
	return nil
}

func encodeMap(m map[byte][]byte) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strconv.Itoa(int(k))] = hex.EncodeToString(v)
	}
	return out
}

func decodeMap(m map[string]string) (map[byte][]byte, error) {
	out := make(map[byte][]byte, len(m))
	for k, v := range m {
		id, err := strconv.ParseUint(k, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid peer id %q", k)
		}
		b, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("peer %d: %w", id, err)
		}
		out[byte(id)] = b
	}
	return out, nil
}

func cloneMap(m map[byte][]byte) map[byte][]byte {
	out := make(map[byte][]byte, len(m))
	for k, v := range m {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

func mapsEqual(a, b map[byte][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !bytes.Equal(va, vb) {
			return false
		}
	}
	return true
}
