package scan

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func solidImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 180, B: 40, A: 255})
		}
	}
	return img
}

var _ = Describe("Optimize", func() {
	When("the image is wider than the limit", func() {
		It("downscales to the limit preserving aspect ratio", func() {
			data, err := Optimize(solidImage(2048, 1024), OptimizeOptions{MaxWidth: 1024, Quality: 80})
			Expect(err).NotTo(HaveOccurred())

			decoded, err := jpeg.Decode(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Bounds().Dx()).To(Equal(1024))
			Expect(decoded.Bounds().Dy()).To(Equal(512))
		})
	})

	When("the image already fits", func() {
		It("keeps the original dimensions", func() {
			data, err := Optimize(solidImage(640, 480), OptimizeOptions{MaxWidth: 1024, Quality: 80})
			Expect(err).NotTo(HaveOccurred())

			decoded, err := jpeg.Decode(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Bounds().Dx()).To(Equal(640))
			Expect(decoded.Bounds().Dy()).To(Equal(480))
		})
	})

	When("options are zero valued", func() {
		It("applies the defaults", func() {
			data, err := Optimize(solidImage(4000, 2000), OptimizeOptions{})
			Expect(err).NotTo(HaveOccurred())

			decoded, err := jpeg.Decode(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Bounds().Dx()).To(Equal(1024))
		})
	})

	When("the image is nil", func() {
		It("returns an error", func() {
			_, err := Optimize(nil, OptimizeOptions{})
			Expect(err).To(HaveOccurred())
		})
	})
})
