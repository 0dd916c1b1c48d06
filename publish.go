package racepub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/racepub/github"
)

// ContentStore is the remote file store racepub commits to. *github.Client
// implements it.
type ContentStore interface {
	GetFile(ctx context.Context, path, ref string) (*github.File, error)
	PutFile(ctx context.Context, path string, req github.PutRequest) (*github.File, error)
	ListDir(ctx context.Context, path, ref string) ([]github.File, error)
}

// Publisher commits race reports to the content store.
type Publisher struct {
	cfg    Config
	store  ContentStore
	logger *slog.Logger
}

// NewPublisher creates a Publisher. cfg is only consulted for the GitHub
// credentials check; store does the actual I/O.
func NewPublisher(cfg Config, store ContentStore, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{cfg: cfg, store: store, logger: logger}
}

// falsy rejects JSON numbers equal to zero, which Required lets through
// because json.Number is a non-empty string.
var falsy = validation.By(func(v any) error {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil && f == 0 {
			return validation.ErrRequired
		}
	}
	return nil
})

// Validate checks that the fields needed to publish are present and non-empty.
func (r PublishRequest) Validate() error {
	return validation.Errors{
		"meta": validation.Validate(map[string]any(r.Meta),
			validation.Required,
			validation.Map(
				validation.Key("slug", validation.Required, falsy),
				validation.Key("titolo", validation.Required, falsy),
				validation.Key("data", validation.Required, falsy),
			).AllowExtraKeys(),
		),
		"htmlBase64": validation.Validate(r.HTMLBase64, validation.Required),
	}.Filter()
}

// Publish validates req and commits the report and its metadata, in that
// order, on PublishBranch. The two commits are independent: when the
// metadata commit fails the report stays published and the error is returned
// as is.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	slug, err := checkRequest(req)
	if err != nil {
		return PublishResult{}, err
	}
	if !p.cfg.HasGitHub() {
		return PublishResult{}, errConfigMissing("GitHub")
	}

	titolo := titleOf(req.Meta)
	metaJSON, err := encodeMeta(req.Meta, slug)
	if err != nil {
		return PublishResult{}, wrapStoreError(err)
	}

	log := p.logger.With("slug", slug)
	if err := p.putFile(ctx, ReportPath(slug), req.HTMLBase64, "Add report: "+titolo); err != nil {
		log.Error("publish report failed", "path", ReportPath(slug), "err", err)
		return PublishResult{}, wrapStoreError(err)
	}
	metaContent := base64.StdEncoding.EncodeToString(metaJSON)
	if err := p.putFile(ctx, MetaPath(slug), metaContent, "Add meta: "+titolo); err != nil {
		log.Warn("report published without metadata",
			"report", ReportPath(slug), "meta", MetaPath(slug), "err", err)
		return PublishResult{}, wrapStoreError(err)
	}

	log.Info("race published", "titolo", titolo)
	return PublishResult{OK: true, Slug: slug}, nil
}

// checkRequest validates req and returns its normalized slug.
func checkRequest(req PublishRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", errMissingFields(err)
	}
	rawSlug, ok := req.Meta["slug"].(string)
	if !ok {
		return "", errInvalidSlug()
	}
	slug := NormalizeSlug(rawSlug)
	if slug == "" {
		return "", errInvalidSlug()
	}
	return slug, nil
}

// putFile creates path or, when it already exists on the branch, updates it
// against the sha just read.
func (p *Publisher) putFile(ctx context.Context, path, content, message string) error {
	var sha string
	existing, err := p.store.GetFile(ctx, path, PublishBranch)
	switch {
	case err == nil:
		sha = existing.SHA
	case errors.Is(err, github.ErrNotFound):
	default:
		return err
	}
	_, err = p.store.PutFile(ctx, path, github.PutRequest{
		Message: message,
		Content: content,
		Branch:  PublishBranch,
		SHA:     sha,
	})
	return err
}

// encodeMeta renders meta plus the canonical slug as 2-space indented JSON.
// Keys come out sorted, so the output does not depend on input order.
func encodeMeta(meta RaceMeta, slug string) ([]byte, error) {
	out := make(map[string]any, len(meta)+1)
	maps.Copy(out, meta)
	out["slug"] = slug

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func titleOf(meta RaceMeta) string {
	if s := meta.String("titolo"); s != "" {
		return s
	}
	b, err := json.Marshal(meta["titolo"])
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeRequest parses a publish request body, which must hold exactly one
// JSON object. Numbers inside meta are kept
// as json.Number so they are written back exactly as received.
func DecodeRequest(body []byte) (PublishRequest, error) {
	var req PublishRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return PublishRequest{}, errInvalidJSON(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
		return PublishRequest{}, errInvalidJSON(err)
	}
	return req, nil
}
