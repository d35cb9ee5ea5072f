package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Whitelist restricts recognition to the characters a key cap can carry.
const Whitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTesseractFactory returns a factory producing Tesseract-backed engines
// configured for single-line key-cap text.
func NewTesseractFactory() EngineFactory {
	return func() (Engine, error) {
		client := gosseract.NewClient()
		if err := client.SetWhitelist(Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
		if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set preserve_interword_spaces: %w", err)
		}
		return &tesseractEngine{client: client}, nil
	}
}

type tesseractEngine struct {
	client *gosseract.Client
}

func (e *tesseractEngine) Recognize(imagePath string) (string, float64, error) {
	if err := e.client.SetImage(imagePath); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognize: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return "", 0, fmt.Errorf("read confidence: %w", err)
	}
	return text, meanConfidence(boxes), nil
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}

// meanConfidence averages per-word confidences into the 0-100 scalar stored
// on each result. No words means no confidence.
func meanConfidence(boxes []gosseract.BoundingBox) float64 {
	if len(boxes) == 0 {
		return 0
	}
	sum := 0.0
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes))
}
