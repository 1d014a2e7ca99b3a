package site

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/handbook/internal/config"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/theme"
	"git.home.luguber.info/inful/handbook/internal/version"
)

// Manifest describes a written site. It carries no timestamps, so two
// builds of the same input produce the same manifest.
type Manifest struct {
	Generator  string         `json:"generator"`
	BaseURL    string         `json:"base_url"`
	Locales    []string       `json:"locales"`
	OutputHash string         `json:"output_hash"`
	Pages      []ManifestPage `json:"pages"`
}

// ManifestPage is one page of the manifest.
type ManifestPage struct {
	Route       string   `json:"route"`
	Kind        PageKind `json:"kind"`
	Locale      string   `json:"locale"`
	File        string   `json:"file"`
	DocID       string   `json:"doc_id,omitempty"`
	Source      string   `json:"source,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

// ReadManifest loads the manifest of a previously written site.
func ReadManifest(outputDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", manifestFile, err)
	}
	return &m, nil
}

func (b *Builder) stageWrite(ctx context.Context, bs *buildState) error {
	cfg := bs.cfg
	out := cfg.OutputDir()
	if err := checkOutputDir(cfg, out); err != nil {
		return err
	}

	files := map[string][]byte{}
	add := func(rel string, data []byte, what string) error {
		if _, dup := files[rel]; dup {
			return herrors.New(herrors.CategoryFileSystem, herrors.SeverityFatal, "output file written twice").
				WithContext("file", rel).
				WithContext("by", what)
		}
		files[rel] = data
		return nil
	}

	manifest := &Manifest{
		Generator: "handbook " + version.Version,
		BaseURL:   cfg.BaseURL,
		Locales:   bs.report.Locales,
	}
	for _, p := range bs.pages {
		rel, err := outputPath(cfg.BaseURL, p.Route)
		if err != nil {
			return herrors.Wrap(err, herrors.CategoryContent, herrors.SeverityFatal, "invalid route")
		}
		if err := add(rel, p.HTML, "page"); err != nil {
			return err
		}
		manifest.Pages = append(manifest.Pages, ManifestPage{
			Route:       p.Route,
			Kind:        p.Kind,
			Locale:      p.Locale,
			File:        rel,
			DocID:       p.DocID,
			Source:      p.Source,
			Fingerprint: p.Fingerprint,
		})
	}
	if err := add(theme.StylesheetPath, bs.theme.CSS(), "theme"); err != nil {
		return err
	}
	for _, f := range bs.static {
		data, err := os.ReadFile(f.abs)
		if err != nil {
			return herrors.FileSystemError("read static file", err).WithContext("path", f.abs)
		}
		if err := add(f.rel, data, "static directory"); err != nil {
			return err
		}
	}
	sitemap, err := renderSitemap(cfg, bs.pages)
	if err != nil {
		return herrors.InternalError("encode sitemap", err)
	}
	if err := add(sitemapFile, sitemap, "sitemap"); err != nil {
		return err
	}

	names := make([]string, 0, len(files))
	for rel := range files {
		names = append(names, rel)
	}
	sort.Strings(names)

	manifest.OutputHash = treeHash(names, files)
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return herrors.InternalError("encode manifest", err)
	}
	if err := add(manifestFile, append(data, '\n'), "manifest"); err != nil {
		return err
	}
	names = append(names, manifestFile)
	sort.Strings(names)

	if err := writeTree(ctx, out, names, files); err != nil {
		return err
	}

	bs.report.Pages = len(bs.pages)
	bs.report.OutputHash = manifest.OutputHash
	bs.logger.Info("Site written", logfields.Path(out), logfields.Count(len(names)))
	return nil
}

// writeTree writes files into a staging directory next to out and swaps it
// into place, so out holds either the previous site or the complete new one.
func writeTree(ctx context.Context, out string, names []string, files map[string][]byte) error {
	parent, base := filepath.Dir(out), filepath.Base(out)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return herrors.FileSystemError("create output parent directory", err).WithContext("path", parent)
	}
	staging, err := os.MkdirTemp(parent, "."+base+"-staging-")
	if err != nil {
		return herrors.FileSystemError("create staging directory", err).WithContext("path", parent)
	}
	defer func() { _ = os.RemoveAll(staging) }()
	if err := os.Chmod(staging, 0o755); err != nil { //nolint:gosec // public site output
		return herrors.FileSystemError("create staging directory", err).WithContext("path", staging)
	}

	for _, rel := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(staging, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return herrors.FileSystemError("create output directory", err).WithContext("file", rel)
		}
		if err := os.WriteFile(target, files[rel], 0o644); err != nil { //nolint:gosec // public site output
			return herrors.FileSystemError("write output file", err).WithContext("file", rel)
		}
	}
	return swapDir(staging, out)
}

// swapDir replaces dir with staging. The previous dir is moved aside first
// and restored when the final rename fails.
func swapDir(staging, dir string) error {
	if _, err := os.Lstat(dir); os.IsNotExist(err) {
		if err := os.Rename(staging, dir); err != nil {
			return herrors.FileSystemError("move site into place", err).WithContext("path", dir)
		}
		return nil
	}

	old := staging + "-previous"
	if err := os.Rename(dir, old); err != nil {
		return herrors.FileSystemError("move previous site aside", err).WithContext("path", dir)
	}
	if err := os.Rename(staging, dir); err != nil {
		_ = os.Rename(old, dir)
		return herrors.FileSystemError("move site into place", err).WithContext("path", dir)
	}
	_ = os.RemoveAll(old)
	return nil
}

// treeHash is the SHA-256 over every file name and content digest in name
// order.
func treeHash(names []string, files map[string][]byte) string {
	h := sha256.New()
	for _, rel := range names {
		sum := sha256.Sum256(files[rel])
		h.Write([]byte(rel))
		h.Write([]byte{0})
		h.Write([]byte(hex.EncodeToString(sum[:])))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// checkOutputDir refuses output directories whose cleaning would delete the
// site sources.
func checkOutputDir(cfg *config.Config, out string) error {
	refuse := func(reason string) error {
		return herrors.ConfigInvalid("output.directory", reason).WithContext("path", out)
	}
	if out == "" || out == filepath.Dir(out) {
		return refuse("output directory must not be the filesystem root")
	}
	if cfg.Root != "" && within(cfg.Root, out) {
		return refuse("output directory must not contain the configuration file")
	}
	if within(cfg.DocsDir(), out) {
		return refuse("output directory must not contain the docs directory")
	}
	return nil
}

// within reports whether p is dir or below it.
func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

func renderSitemap(cfg *config.Config, pages []*Page) ([]byte, error) {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	site := strings.TrimRight(cfg.URL, "/")
	for _, p := range pages {
		if p.Kind == PageNotFound {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{Loc: site + p.Route})
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
