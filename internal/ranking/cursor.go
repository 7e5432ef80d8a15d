package ranking

import (
	"encoding/base64"
	"encoding/json"

	"github.com/yoockh/yoosocial/internal/utils"
)

// Cursor marks the last item a client has been served. Items are ordered
// by score descending then id ascending, so (Score, ItemID) is a strict
// position in that order.
type Cursor struct {
	Score   float64 `json:"s"`
	ItemID  string  `json:"i"`
	AsOf    int64   `json:"a"`
	Session string  `json:"t"`
	Page    int     `json:"p"`
}

func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor returns nil for the empty cursor.
func DecodeCursor(raw string) (*Cursor, error) {
	const op = "ranking.DecodeCursor"
	if raw == "" {
		return nil, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid cursor", err)
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid cursor", err)
	}
	if c.ItemID == "" || c.Session == "" || c.Page < 1 || c.AsOf <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid cursor", nil)
	}
	return &c, nil
}

// Before reports whether (score, id) sorts ahead of (otherScore, otherID).
func Before(score float64, id string, otherScore float64, otherID string) bool {
	if score != otherScore {
		return score > otherScore
	}
	return id < otherID
}

// After reports whether an item sorts strictly after the cursor position.
func (c *Cursor) After(score float64, id string) bool {
	return Before(c.Score, c.ItemID, score, id)
}
