// Package qrcode renders short URLs as PNG QR codes.
package qrcode

import (
	"encoding/base64"

	"github.com/pkg/errors"
	qr "github.com/skip2/go-qrcode"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

const defaultSize = 290

type Encoder struct {
	size  int
	level qr.RecoveryLevel
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = defaultSize
	}
	return &Encoder{size: size, level: qr.Medium}
}

// DataURI returns content as a data:image/png;base64 URI.
func (e *Encoder) DataURI(content string) (string, error) {
	png, err := qr.Encode(content, e.level, e.size)
	if err != nil {
		return "", errors.Wrap(err, "encode qr code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

var _ ports.QREncoder = (*Encoder)(nil)
