// Package transport feeds source images received over MQTT through the
// engine and publishes the transformed results.
package transport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/cwbudde/pixelsculpt/internal/imageio"
)

// inbound is the JSON envelope a publisher may wrap an image in.
type inbound struct {
	Data string `json:"data"`
}

// outbound is the JSON message published for each accepted result.
type outbound struct {
	TransformedImage string `json:"transformed_image"`
}

// DecodePayload extracts the image bytes of a message. A JSON object with a
// base64 "data" field is unwrapped; anything else is taken as raw image bytes.
func DecodePayload(payload []byte) []byte {
	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Data == "" {
		return payload
	}
	data, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return payload
	}
	return data
}

// EncodeResult wraps img as a base64 PNG in the outbound JSON envelope.
func EncodeResult(img image.Image) ([]byte, error) {
	png, err := imageio.PNGBytes(img)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(outbound{TransformedImage: base64.StdEncoding.EncodeToString(png)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return payload, nil
}

// DecodeResult is the inverse of EncodeResult.
func DecodeResult(payload []byte) (*image.NRGBA, error) {
	var msg outbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	png, err := base64.StdEncoding.DecodeString(msg.TransformedImage)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("failed to decode result image: %w", err)
	}
	return imaging.Clone(img), nil
}
