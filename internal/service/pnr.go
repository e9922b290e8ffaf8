package service

import (
	"encoding/base32"

	"github.com/google/uuid"
)

var pnrEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewPNR returns a 26 character record locator carrying the uuid's 128 bits.
func NewPNR() string {
	id := uuid.New()
	return pnrEncoding.EncodeToString(id[:])
}
