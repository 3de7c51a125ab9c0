// Package pdf extracts page images from PDF documents so that scanned
// card sheets can be fed through the recognition pipeline one image at
// a time.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/cardlens/cardlens/internal/errx"
)

// PageImage is a single image extracted from a PDF page. Data holds the
// encoded image bytes (PNG or JPEG, as stored in the document).
type PageImage struct {
	Page  int
	Index int
	Data  []byte
}

// PageCount returns the number of pages in the document.
func PageCount(filename string) (int, error) {
	n, err := api.PageCountFile(filename)
	if err != nil {
		return 0, errx.Wrap(errx.KindDataSource, err, "count PDF pages")
	}
	return n, nil
}

// ExtractPageImages extracts the images embedded in the given pages of a
// PDF file. pageRange follows the "1-5" / "1,3,5" convention; empty means
// all pages. Results are ordered by page, then by image index within the
// page.
func ExtractPageImages(filename, pageRange string) ([]PageImage, error) {
	pages, err := parsePageRange(pageRange)
	if err != nil {
		return nil, errx.Wrap(errx.KindValidation, err, fmt.Sprintf("invalid page range %q", pageRange))
	}

	tempDir, err := os.MkdirTemp("", "cardlens-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	for _, p := range pages {
		pageStrings = append(pageStrings, strconv.Itoa(p))
	}

	if err := api.ExtractImagesFile(filename, tempDir, pageStrings, nil); err != nil {
		return nil, errx.Wrap(errx.KindDataSource, err, "extract images from PDF")
	}

	images, err := collectExtracted(tempDir)
	if err != nil {
		return nil, fmt.Errorf("collect extracted images: %w", err)
	}
	return images, nil
}

// collectExtracted walks the extraction directory and loads every image
// pdfcpu wrote. Filenames follow the pdfcpu convention
// <basename>_<page>_<object>.<ext> with the page number as the first
// numeric component.
func collectExtracted(dir string) ([]PageImage, error) {
	var out []PageImage

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		page, index, ok := parseExtractedName(info.Name())
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path) //nolint:gosec // path comes from our own temp dir
		if err != nil {
			return nil // skip unreadable files
		}
		out = append(out, PageImage{Page: page, Index: index, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

// parseExtractedName pulls page and image numbers out of a pdfcpu
// extracted filename by scanning its underscore-separated components for
// the first two integers.
func parseExtractedName(name string) (page, index int, ok bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	var nums []int
	for _, part := range strings.Split(base, "_") {
		if n, err := strconv.Atoi(part); err == nil {
			nums = append(nums, n)
		}
	}
	switch len(nums) {
	case 0:
		return 0, 0, false
	case 1:
		return nums[0], 0, true
	default:
		return nums[0], nums[1], true
	}
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
// An empty string selects all pages.
func parsePageRange(pageRange string) ([]int, error) {
	if pageRange == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token ("3") or a range
// token ("1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start < 1 {
			return nil, fmt.Errorf("page numbers start at 1, got %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}

	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if page < 1 {
		return nil, fmt.Errorf("page numbers start at 1, got %d", page)
	}
	return []int{page}, nil
}
