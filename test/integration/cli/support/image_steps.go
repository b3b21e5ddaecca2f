package support

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/testutil"
	"github.com/cucumber/godog"
)

// aGradientImage writes a width x height gradient test image.
func (testCtx *TestContext) aGradientImage(width, height int, name string) error {
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	img := testutil.GradientImage(width, height)
	return imageio.Save(path, img, imageio.FormatFromPath(path, imageio.FormatPNG))
}

// aFilledImage writes a uniformly coloured test image.
func (testCtx *TestContext) aFilledImage(width, height int, name, hex string) error {
	col, err := imageio.ParseColor(hex)
	if err != nil {
		return err
	}
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return imageio.Save(path, testutil.CreateTestImage(width, height, col), imageio.FormatPNG)
}

// aFileContaining writes arbitrary bytes, e.g. a corrupt image.
func (testCtx *TestContext) aFileContaining(name, content string) error {
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

// theImageShouldBe checks the dimensions of a decoded output image.
func (testCtx *TestContext) theImageShouldBe(name string, width, height int) error {
	img, _, err := imageio.Load(testCtx.Path(name))
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("image %s is %dx%d, expected %dx%d", name, b.Dx(), b.Dy(), width, height)
	}
	return nil
}

// thePixelShouldBe compares one pixel of a decoded output image.
func (testCtx *TestContext) thePixelShouldBe(x, y int, name, hex string) error {
	want, err := imageio.ParseColor(hex)
	if err != nil {
		return err
	}
	img, _, err := imageio.Load(testCtx.Path(name))
	if err != nil {
		return err
	}
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	if got != want {
		return fmt.Errorf("pixel (%d,%d) of %s is %v, expected %v", x, y, name, got, want)
	}
	return nil
}

// theFileShouldBeBytesLong checks the size of an output file.
func (testCtx *TestContext) theFileShouldBeBytesLong(name string, size int) error {
	info, err := os.Stat(testCtx.Path(name))
	if err != nil {
		return err
	}
	if info.Size() != int64(size) {
		return fmt.Errorf("file %s is %d bytes, expected %d", name, info.Size(), size)
	}
	return nil
}

// RegisterImageSteps registers fixture and output image steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an? (\d+)x(\d+) gradient image "([^"]*)"$`, testCtx.aGradientImage)
	sc.Step(`^an? (\d+)x(\d+) image "([^"]*)" filled with "([^"]*)"$`, testCtx.aFilledImage)
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, testCtx.aFileContaining)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+)$`, testCtx.theImageShouldBe)
	sc.Step(`^the pixel \((\d+),(\d+)\) of "([^"]*)" should be "([^"]*)"$`, testCtx.thePixelShouldBe)
	sc.Step(`^the file "([^"]*)" should be (\d+) bytes long$`, testCtx.theFileShouldBeBytesLong)
}
