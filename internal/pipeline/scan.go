package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg" // register formats for the QR fast path
	_ "image/png"
	"strings"
	"time"

	"github.com/cardlens/cardlens/internal/barcode"
	"github.com/cardlens/cardlens/internal/cache"
	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/extract"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/parse"
)

// recognitionError marks failed engine or normalizer calls so callers
// can choose between degrading and surfacing them.
type recognitionError struct {
	engine string
	cause  error
}

func (e *recognitionError) Error() string {
	return "recognition failed on " + e.engine + ": " + e.cause.Error()
}

func (e *recognitionError) Unwrap() error { return e.cause }

// Scan recognizes a single card image. Engine failures never surface as
// errors: they yield a degraded result with zero confidence and the
// failure annotated on the engine field. Errors are reserved for
// invalid input, missing engines, and context cancellation. Degraded
// results are not cached or persisted; the next scan of the same bytes
// retries the engine.
func (s *Scanner) Scan(ctx context.Context, imageData []byte, opts ocr.Options) (ocr.Result, error) {
	result, err := s.scan(ctx, imageData, opts)
	if err != nil {
		var rerr *recognitionError
		if errors.As(err, &rerr) {
			return s.normalizer.Degraded(rerr.engine, rerr.cause), nil
		}
		return ocr.Result{}, err
	}
	return result, nil
}

// scan is the strict scan path shared by Scan and ScanBatch: engine and
// normalizer failures come back as recognitionError.
func (s *Scanner) scan(ctx context.Context, imageData []byte, opts ocr.Options) (ocr.Result, error) {
	if len(imageData) == 0 {
		return ocr.Result{}, errx.Validation("image", "empty image data")
	}

	key := cache.Key(imageData)
	if s.cache != nil {
		if r, err := s.cache.Get(key); err == nil {
			s.logger.Debug("cache hit", "key", key[:12])
			return r, nil
		}
	}

	// Identical images arriving concurrently share one recognition run.
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		return s.scanUncached(ctx, imageData, opts, key)
	})
	if err != nil {
		return ocr.Result{}, err
	}
	return v.(ocr.Result), nil
}

func (s *Scanner) scanUncached(ctx context.Context, imageData []byte, opts ocr.Options, key string) (ocr.Result, error) {
	engine, err := s.registry.Preferred()
	if err != nil {
		return ocr.Result{}, err
	}
	engineID := engine.Descriptor().ID

	data := imageData
	if s.preprocess {
		prepped, perr := engine.Preprocess(ctx, data, ocr.PreprocessOptions{
			Grayscale:       true,
			EnhanceContrast: true,
			MaxDimension:    2048,
		})
		if perr != nil {
			s.logger.Debug("preprocess skipped", "engine", engineID, "error", perr)
		} else if len(prepped) > 0 {
			data = prepped
		}
	}

	start := time.Now()
	raw, err := engine.Recognize(ctx, data, opts)
	if err != nil {
		if ctx.Err() != nil {
			return ocr.Result{}, ctx.Err()
		}
		s.logger.Warn("recognition failed", "engine", engineID, "error", err)
		return ocr.Result{}, &recognitionError{engine: engineID, cause: err}
	}
	if raw.Engine == "" {
		raw.Engine = engineID
	}
	if raw.Duration == 0 {
		raw.Duration = time.Since(start)
	}

	result, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.logger.Warn("normalization rejected engine output", "engine", engineID, "error", err)
		return ocr.Result{}, &recognitionError{engine: engineID, cause: err}
	}
	return s.finishScan(ctx, result, opts, key), nil
}

// finishScan fills the cache and optionally persists a successful result.
func (s *Scanner) finishScan(ctx context.Context, r ocr.Result, opts ocr.Options, key string) ocr.Result {
	if s.cache != nil {
		s.cache.Put(key, r)
	}
	if opts.SaveResult && s.store != nil {
		if err := s.store.SaveResult(ctx, r); err != nil {
			s.logger.Warn("persist result failed", "result_id", r.ID, "error", err)
		}
	}
	return r
}

// CardScan bundles the outputs of ScanToCard: the assembled card, the
// underlying recognition result, and the regex-extracted fields.
type CardScan struct {
	Card   card.BusinessCard
	Result ocr.Result
	Fields extract.Fields
}

// ScanToCard scans an image and assembles a business card from the
// recognized text. Field precedence: QR vCard payload, then structured
// parser output, then regex extraction, then raw-line fallbacks.
func (s *Scanner) ScanToCard(ctx context.Context, imageData []byte, opts ocr.Options) (CardScan, error) {
	result, err := s.Scan(ctx, imageData, opts)
	if err != nil {
		return CardScan{}, err
	}

	fields := extract.FromResult(result)
	contact := s.decodeContact(ctx, imageData)

	var parsed parse.ParsedCard
	if s.parser != nil && result.RawText != "" {
		parsed, err = s.parser.ParseCardText(ctx, result.RawText, parse.Hints{Languages: opts.Languages})
		if err != nil {
			s.logger.Warn("card parse failed, falling back to extraction", "error", err)
			parsed = parse.ParsedCard{}
		}
	}

	params := mergeCard(contact, parsed, fields, result)
	if params.Name == "" {
		return CardScan{}, errx.New(errx.KindProcessing, "no name found in card text").
			WithUser("Could not find a contact name on this card.")
	}

	c, err := card.New(params, s.sanitizer)
	if err != nil {
		return CardScan{}, err
	}
	return CardScan{Card: c, Result: result, Fields: fields}, nil
}

// decodeContact runs the QR fast path. Any decoder error (including the
// no-backend build) silently disables the path.
func (s *Scanner) decodeContact(ctx context.Context, imageData []byte) barcode.Contact {
	if s.decoder == nil {
		return barcode.Contact{}
	}
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return barcode.Contact{}
	}
	results, err := s.decoder.Decode(ctx, img, barcode.Options{
		Formats:   []barcode.Format{barcode.FormatQR},
		TryHarder: true,
	})
	if err != nil {
		if !errors.Is(err, barcode.ErrNoBackend) {
			s.logger.Debug("barcode decode failed", "error", err)
		}
		return barcode.Contact{}
	}
	for _, r := range results {
		if barcode.IsContactPayload(r.Value) {
			return barcode.ParseContact(r.Value)
		}
	}
	return barcode.Contact{}
}

// mergeCard resolves field precedence across the three sources.
func mergeCard(contact barcode.Contact, parsed parse.ParsedCard, fields extract.Fields, result ocr.Result) card.Params {
	p := card.Params{
		Name:     firstNonEmpty(contact.Name, parsed.Name),
		JobTitle: firstNonEmpty(contact.Title, parsed.JobTitle),
		Company:  firstNonEmpty(contact.Company, parsed.Company),
		Address:  firstNonEmpty(contact.Address, parsed.Address),
		Notes:    firstNonEmpty(contact.Note, parsed.Notes),
	}

	p.Email = firstNonEmpty(first(contact.Emails), parsed.Email, first(fields.Emails))
	p.Website = firstNonEmpty(first(contact.URLs), parsed.Website, first(fields.Websites))

	phones := append(append([]string(nil), contact.Phones...), nonEmpty(parsed.Phone, parsed.Mobile)...)
	phones = append(phones, fields.Phones...)
	phones = dedupe(phones)
	if len(phones) > 0 {
		p.Phone = phones[0]
	}
	if len(phones) > 1 {
		p.Mobile = phones[1]
	}
	// Keep the parser's phone classification when it provided one. The
	// phone slot falls back to the first number that is not the mobile.
	if parsed.Mobile != "" {
		p.Mobile = parsed.Mobile
		p.Phone = parsed.Phone
		if p.Phone == "" {
			for _, ph := range phones {
				if ph != p.Mobile {
					p.Phone = ph
					break
				}
			}
		}
	}
	if p.Phone == p.Mobile {
		p.Mobile = ""
	}

	if p.Name == "" {
		p.Name = firstLine(result.RawText)
	}
	return p
}

func first(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[0]
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if x != "" {
			return x
		}
	}
	return ""
}

func nonEmpty(xs ...string) []string {
	var out []string
	for _, x := range xs {
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}

func dedupe(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	var out []string
	for _, x := range xs {
		if x == "" {
			continue
		}
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}

// firstLine returns the first line of text that plausibly names a
// person: not an email, URL, or digit run.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "@") || strings.Contains(line, "://") {
			continue
		}
		if strings.IndexFunc(line, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0 {
			continue
		}
		return line
	}
	return ""
}
