package detect

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// barcodeReaders returns fresh readers for the symbologies found on
// retail shelf labels: EAN-13, UPC-A, Code 128 and QR.
func barcodeReaders() []gozxing.Reader {
	return []gozxing.Reader{
		oned.NewEAN13Reader(),
		oned.NewUPCAReader(),
		oned.NewCode128Reader(),
		qrcode.NewQRCodeReader(),
	}
}

// decodeBarcodes decodes all recognizable barcodes in a frame. A frame
// with no symbol is the normal case and yields an empty result.
func decodeBarcodes(img image.Image) []Barcode {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	var out []Barcode
	seen := make(map[string]bool)
	for _, reader := range barcodeReaders() {
		result, err := reader.Decode(bmp, hints)
		if err != nil || result == nil {
			continue
		}
		value := result.GetText()
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, Barcode{
			RawValue: value,
			Format:   result.GetBarcodeFormat().String(),
		})
	}
	return out
}
