//go:build !cardlens_tesseract

package ocr

// PlatformEngines returns the engines linked into this build. The
// default build links none; enable the tesseract backend with the
// build tag `cardlens_tesseract`.
func PlatformEngines() []Engine { return nil }
