package realtime

import (
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// id for a logical channel instance
// ulids are ordered by create time, so ids from the same host sort by age

// comparable
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func ParseId(idStr string) (Id, error) {
	return parseUuid(idStr)
}

func (self Id) Bytes() []byte {
	return self[0:16]
}

func (self Id) String() string {
	return encodeUuid(self)
}

func (self *Id) MarshalJSON() ([]byte, error) {
	return []byte(`"` + encodeUuid(*self) + `"`), nil
}

func (self *Id) UnmarshalJSON(src []byte) error {
	if len(src) != 38 {
		return fmt.Errorf("invalid length for UUID: %v", len(src))
	}
	buf, err := parseUuid(string(src[1 : len(src)-1]))
	if err != nil {
		return err
	}
	*self = buf
	return nil
}

// accepts the canonical dashed form and the 32 hex digit form
func parseUuid(src string) (dst [16]byte, err error) {
	if len(src) == 36 {
		if src[8] != '-' || src[13] != '-' || src[18] != '-' || src[23] != '-' {
			return dst, fmt.Errorf("cannot parse UUID %v", src)
		}
		src = src[0:8] + src[9:13] + src[14:18] + src[19:23] + src[24:]
	}
	if len(src) != 32 {
		return dst, fmt.Errorf("cannot parse UUID %v", src)
	}

	buf, err := hex.DecodeString(src)
	if err != nil {
		return dst, err
	}

	copy(dst[:], buf)
	return dst, nil
}

func encodeUuid(src [16]byte) string {
	h := hex.EncodeToString(src[:])
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}
