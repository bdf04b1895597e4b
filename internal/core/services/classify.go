package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure ClassifyService implements the interface.
var _ driving.ClassifyService = (*ClassifyService)(nil)

const (
	completionMaxTokens   = 300
	completionTemperature = 0.3

	// rateLimitBackoff holds the gate after the provider answers 429.
	rateLimitBackoff = 5 * time.Second
)

// ClassifyOptions tunes classification passes. Zero fields take defaults.
type ClassifyOptions struct {
	HintLimit     int
	ImageMaxBytes int64
	MinTextChars  int
	SnippetChars  int
	TextTimeout   time.Duration
	VisionTimeout time.Duration
}

// DefaultClassifyOptions returns the built-in limits.
func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{
		HintLimit:     10,
		ImageMaxBytes: 20 * 1024 * 1024,
		MinTextChars:  20,
		SnippetChars:  500,
		TextTimeout:   30 * time.Second,
		VisionTimeout: 60 * time.Second,
	}
}

func (o ClassifyOptions) withDefaults() ClassifyOptions {
	d := DefaultClassifyOptions()
	if o.HintLimit == 0 {
		o.HintLimit = d.HintLimit
	}
	if o.ImageMaxBytes <= 0 {
		o.ImageMaxBytes = d.ImageMaxBytes
	}
	if o.MinTextChars <= 0 {
		o.MinTextChars = d.MinTextChars
	}
	if o.SnippetChars <= 0 {
		o.SnippetChars = d.SnippetChars
	}
	if o.TextTimeout <= 0 {
		o.TextTimeout = d.TextTimeout
	}
	if o.VisionTimeout <= 0 {
		o.VisionTimeout = d.VisionTimeout
	}
	return o
}

// backoffGate is implemented by gates that can hold callers after a 429.
type backoffGate interface {
	Backoff(d time.Duration)
}

// ClassifyService runs single classification passes.
type ClassifyService struct {
	backends    driven.BackendFactory
	gate        driven.Gate
	corrections driven.CorrectionStore
	opts        ClassifyOptions

	fs        afero.Fs
	pdf       driven.TextExtractor
	ocr       driven.TextExtractor
	documents driven.TextExtractor
	prompts   driven.PromptStore
	log       *zap.Logger
}

// NewClassifyService creates a classify service. corrections may be nil,
// in which case no hints are loaded.
func NewClassifyService(
	backends driven.BackendFactory,
	gate driven.Gate,
	corrections driven.CorrectionStore,
	opts ClassifyOptions,
) *ClassifyService {
	return &ClassifyService{
		backends:    backends,
		gate:        gate,
		corrections: corrections,
		opts:        opts.withDefaults(),
		fs:          afero.NewOsFs(),
		log:         zap.NewNop(),
	}
}

// SetExtractors sets the PDF, OCR and generic document extractors.
// Any of them may be nil.
func (s *ClassifyService) SetExtractors(pdf, ocr, documents driven.TextExtractor) {
	s.pdf = pdf
	s.ocr = ocr
	s.documents = documents
}

// SetPrompts sets the store consulted for per-mode instructions. Names it
// cannot load use the built-in instruction.
func (s *ClassifyService) SetPrompts(p driven.PromptStore) {
	s.prompts = p
}

// SetFs sets the filesystem images are read from.
func (s *ClassifyService) SetFs(fs afero.Fs) {
	s.fs = fs
}

// SetLogger sets the structured logger.
func (s *ClassifyService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// Options returns the effective limits.
func (s *ClassifyService) Options() ClassifyOptions {
	return s.opts
}

// Classify runs one pass with the evidence carried by req.Mode.
func (s *ClassifyService) Classify(
	ctx context.Context, req domain.ClassificationRequest,
) (*domain.ClassificationResult, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if req.Mode == nil {
		req.Mode = domain.FilenameOnly{}
	}

	var (
		image   *driven.ImageAttachment
		timeout = s.opts.TextTimeout
		source  domain.Source
	)
	switch m := req.Mode.(type) {
	case domain.FilenameOnly:
		source = domain.SourceFilename
	case domain.Vision:
		if len(m.Image) == 0 {
			return nil, fmt.Errorf("%w: vision request without image", domain.ErrInvalidInput)
		}
		if int64(len(m.Image)) > s.opts.ImageMaxBytes {
			return nil, &domain.ImageTooLargeError{Size: int64(len(m.Image)), Limit: s.opts.ImageMaxBytes}
		}
		image = &driven.ImageAttachment{Data: m.Image, MIMEType: m.MIMEType}
		timeout = s.opts.VisionTimeout
		source = domain.SourceVision
	case domain.TextContent:
		source = domain.SourceContent
	}

	if req.Hints == nil {
		req.Hints = s.loadHints(ctx)
	}

	prompt := RenderPrompt(req, s.instruction(req.Mode))

	if err := s.gate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate gate: %w", domain.ErrTransport, err)
	}

	backend, err := s.backends.Backend(ctx)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.log.Debug("classifying",
		zap.String("file", req.Filename),
		zap.String("mode", req.Mode.Name()),
		zap.String("backend", backend.Name()),
		zap.Int("folders", len(req.Folders)),
		zap.Int("hints", len(req.Hints)))

	raw, err := backend.Complete(callCtx, driven.CompletionRequest{
		Prompt:      prompt,
		Image:       image,
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	})
	if err != nil {
		s.noteRateLimit(err)
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: %s returned no content", domain.ErrEmptyResult, backend.Name())
	}

	result, err := ParseResponse(raw)
	if err != nil {
		s.log.Warn("unparsable classifier response", zap.String("file", req.Filename), zap.Error(err))
		return nil, err
	}
	result.Source = source

	s.log.Debug("classified",
		zap.String("file", req.Filename),
		zap.Bool("relevant", result.IsRelevant),
		zap.String("folder", result.SuggestedFolder),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// loadHints renders recent corrections as few-shot examples. A ledger
// failure is logged and yields no hints.
func (s *ClassifyService) loadHints(ctx context.Context) []string {
	if s.corrections == nil || s.opts.HintLimit < 0 {
		return []string{}
	}
	corrections, err := s.corrections.ListCorrections(ctx, s.opts.HintLimit)
	if err != nil {
		s.log.Warn("loading correction hints", zap.Error(err))
		return []string{}
	}
	hints := make([]string, 0, len(corrections))
	for _, c := range corrections {
		hints = append(hints, c.Hint())
	}
	return hints
}

func (s *ClassifyService) noteRateLimit(err error) {
	var se *domain.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		return
	}
	if g, ok := s.gate.(backoffGate); ok {
		s.log.Warn("classifier rate limited, backing off", zap.Duration("backoff", rateLimitBackoff))
		g.Backoff(rateLimitBackoff)
	}
}

// ClassifyFilename classifies from the file name alone.
func (s *ClassifyService) ClassifyFilename(
	ctx context.Context, filename string, folders []string,
) (*domain.ClassificationResult, error) {
	return s.Classify(ctx, domain.ClassificationRequest{
		Filename: filename,
		Mode:     domain.FilenameOnly{},
		Folders:  folders,
	})
}

// ClassifyImage attaches the image at path for a vision pass. The size cap
// is checked before the file is read.
func (s *ClassifyService) ClassifyImage(
	ctx context.Context, path string, folders []string,
) (*domain.ClassificationResult, error) {
	data, err := s.readImage(path)
	if err != nil {
		return nil, err
	}
	return s.Classify(ctx, domain.ClassificationRequest{
		Filename: filepath.Base(path),
		Mode:     domain.Vision{Image: data, MIMEType: ImageMIMEType(path)},
		Folders:  folders,
	})
}

func (s *ClassifyService) readImage(path string) ([]byte, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, mapOSError("stat image", err)
	}
	if info.Size() > s.opts.ImageMaxBytes {
		return nil, &domain.ImageTooLargeError{Size: info.Size(), Limit: s.opts.ImageMaxBytes}
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, mapOSError("open image", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.opts.ImageMaxBytes+1))
	if err != nil {
		return nil, mapOSError("read image", err)
	}
	if int64(len(data)) > s.opts.ImageMaxBytes {
		return nil, &domain.ImageTooLargeError{Size: int64(len(data)), Limit: s.opts.ImageMaxBytes}
	}
	return data, nil
}

// ClassifyOCR recognises the image's text and classifies it as text.
func (s *ClassifyService) ClassifyOCR(
	ctx context.Context, path string, folders []string,
) (*domain.ClassificationResult, error) {
	text, err := s.ExtractImageText(ctx, path)
	if err != nil {
		return nil, err
	}
	result, err := s.classifyText(ctx, path, text, folders)
	if err != nil {
		return nil, err
	}
	result.Source = domain.SourceOCR
	return result, nil
}

// ClassifyContent extracts document text and classifies it as text.
func (s *ClassifyService) ClassifyContent(
	ctx context.Context, path string, folders []string,
) (*domain.ClassificationResult, error) {
	text, err := s.ExtractDocumentText(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.classifyText(ctx, path, text, folders)
}

func (s *ClassifyService) classifyText(
	ctx context.Context, path, text string, folders []string,
) (*domain.ClassificationResult, error) {
	return s.Classify(ctx, domain.ClassificationRequest{
		Filename: filepath.Base(path),
		Mode:     domain.TextContent{Text: text},
		Folders:  folders,
	})
}

// ExtractPDFText returns the normalised opening text of a PDF.
func (s *ClassifyService) ExtractPDFText(ctx context.Context, path string) (string, error) {
	return s.extract(ctx, s.pdf, domain.ExtractionPDF, path)
}

// ExtractImageText returns the normalised OCR text of an image.
func (s *ClassifyService) ExtractImageText(ctx context.Context, path string) (string, error) {
	return s.extract(ctx, s.ocr, domain.ExtractionOCR, path)
}

// ExtractDocumentText returns the normalised text of a PDF or any document
// a registered extractor supports.
func (s *ClassifyService) ExtractDocumentText(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return s.ExtractPDFText(ctx, path)
	}
	return s.extract(ctx, s.documents, domain.ExtractionDocument, path)
}

// CanExtract reports whether document text extraction is available for path.
func (s *ClassifyService) CanExtract(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return s.pdf != nil
	}
	return s.documents != nil && s.documents.Supports(ext)
}

func (s *ClassifyService) extract(
	ctx context.Context, e driven.TextExtractor, kind domain.ExtractionKind, path string,
) (string, error) {
	if e == nil {
		return "", &domain.ExtractionError{
			Kind: kind,
			Err:  fmt.Errorf("%w: no %s extractor configured", domain.ErrToolNotFound, kind),
		}
	}
	raw, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	text := NormaliseSnippet(raw, s.opts.SnippetChars)
	if n := utf8.RuneCountInString(text); n < s.opts.MinTextChars {
		return "", fmt.Errorf("%w: %s yielded %d characters (need %d)",
			domain.ErrInsufficientText, kind, n, s.opts.MinTextChars)
	}
	return text, nil
}

// NormaliseSnippet collapses whitespace runs to single spaces, trims, and
// caps the result at limit runes. A non-positive limit disables the cap.
func NormaliseSnippet(text string, limit int) string {
	s := strings.Join(strings.Fields(text), " ")
	if limit <= 0 {
		return s
	}
	if runes := []rune(s); len(runes) > limit {
		return strings.TrimSpace(string(runes[:limit]))
	}
	return s
}

// ImageMIMEType guesses the media type from the file extension, falling
// back to image/png.
func ImageMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/png"
	}
}

func (s *ClassifyService) instruction(mode domain.Mode) string {
	name := PromptName(mode)
	if s.prompts != nil {
		text, err := s.prompts.Load(name)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			s.log.Debug("using built-in instruction", zap.String("prompt", name), zap.Error(err))
		}
	}
	return DefaultInstructions()[name]
}
