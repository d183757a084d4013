package service

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

type DefaultQRGenerator struct {
	BaseURL string
	Size    int
}

func (g DefaultQRGenerator) Generate(orderID, pickupCode string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	qrData := fmt.Sprintf("%s/orders/%s/pickup?code=%s", g.BaseURL, url.PathEscape(orderID), url.QueryEscape(pickupCode))
	return qrcode.Encode(qrData, qrcode.Medium, size)
}
