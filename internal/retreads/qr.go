package retreads

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
)

const qrRenderEndpoint = "https://api.qrserver.com/v1/create-qr-code/"

// sizeLabel formats the standard tire size string, e.g. "205/55R16".
func sizeLabel(t *models.Tire) string {
	return fmt.Sprintf("%d/%dR%d", t.Width, t.AspectRatio, t.RimDiameter)
}

// EncodeQRPayload serializes the label payload for printing.
func EncodeQRPayload(payload QRPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}
	return string(raw), nil
}

// DecodeQRPayload parses scanned label data. The casing and tire ids are the
// minimum a label must carry to be usable.
func DecodeQRPayload(data string) (*QRPayload, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, fmt.Errorf("qr data is empty")
	}
	var payload QRPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("decode qr payload: %w", err)
	}
	if payload.CasingID == "" || payload.TireID == uuid.Nil {
		return nil, fmt.Errorf("qr payload missing casing or tire id")
	}
	return &payload, nil
}

// renderURL points at a hosted QR image for the encoded payload.
func renderURL(data string) string {
	return qrRenderEndpoint + "?size=200x200&data=" + url.QueryEscape(data)
}
