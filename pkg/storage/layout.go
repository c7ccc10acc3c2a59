package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ImagesDirName is the per-edition subdirectory holding rendered pages and thumbnails
	ImagesDirName = "images"
	// OGThumbName is the wide, top-cropped share image
	OGThumbName = "og-thumb.jpg"
	// ListThumbName is the fixed-height listing image
	ListThumbName = "list-thumb.jpg"

	dirPerm = 0o755
)

// ErrOutsideRoot is returned when a path does not resolve to an edition directory under the uploads root
var ErrOutsideRoot = errors.New("path is outside the edition uploads root")

// Layout allocates date-partitioned edition directories under a fixed uploads root
type Layout struct {
	root      string // absolute filesystem root (e.g. /srv/public/uploads/editions)
	webPrefix string // web-relative prefix the root is served under (e.g. /uploads/editions)
	now       func() time.Time
	token     func() string
	mkdir     func(string, os.FileMode) error
}

// Location is one allocated edition directory
type Location struct {
	Dir       string
	ImagesDir string
	WebDir    string
	PDFName   string
}

// NewLayout creates a Layout rooted at root and served under webPrefix
func NewLayout(root, webPrefix string) (*Layout, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	prefix := "/" + strings.Trim(webPrefix, "/")
	return &Layout{
		root:      filepath.Clean(abs),
		webPrefix: prefix,
		now:       time.Now,
		mkdir:     os.Mkdir,
		token:     newToken,
	}, nil
}

// Root returns the absolute uploads root
func (l *Layout) Root() string {
	return l.root
}

// WebPrefix returns the URL prefix the root is served under
func (l *Layout) WebPrefix() string {
	return l.webPrefix
}

// Allocate creates a fresh <root>/<YYYY>/<MM>/<DD>/<date>_<HHMMSS>_<token>/images tree
func (l *Layout) Allocate(publicationDate time.Time) (*Location, error) {
	now := l.now()
	rel := filepath.Join(
		fmt.Sprintf("%04d", publicationDate.Year()),
		fmt.Sprintf("%02d", int(publicationDate.Month())),
		fmt.Sprintf("%02d", publicationDate.Day()),
		fmt.Sprintf("%s_%s_%s", publicationDate.Format("2006-01-02"), now.Format("150405"), l.token()),
	)
	dir := filepath.Join(l.root, rel)

	if err := os.MkdirAll(filepath.Dir(dir), dirPerm); err != nil {
		return nil, fmt.Errorf("create date directory: %w", err)
	}
	// Mkdir on the leaf so a token collision surfaces instead of sharing a directory
	if err := l.mkdir(dir, dirPerm); err != nil {
		l.pruneParents(dir)
		return nil, fmt.Errorf("create edition directory: %w", err)
	}
	imagesDir := filepath.Join(dir, ImagesDirName)
	if err := l.mkdir(imagesDir, dirPerm); err != nil {
		// no Location is returned, so nothing else would remove the leaf
		_ = l.RemoveTree(dir)
		return nil, fmt.Errorf("create images directory: %w", err)
	}

	return &Location{
		Dir:       dir,
		ImagesDir: imagesDir,
		WebDir:    path.Join(l.webPrefix, filepath.ToSlash(rel)),
		PDFName:   PDFFileName(publicationDate),
	}, nil
}

// PDFFileName returns the canonical edition-<DD-MM-YYYY>.pdf name
func PDFFileName(publicationDate time.Time) string {
	return "edition-" + publicationDate.Format("02-01-2006") + ".pdf"
}

// PDFPath returns the absolute path of the stored PDF
func (loc *Location) PDFPath() string {
	return filepath.Join(loc.Dir, loc.PDFName)
}

// WebPDFPath returns the web-relative path of the stored PDF
func (loc *Location) WebPDFPath() string {
	return path.Join(loc.WebDir, loc.PDFName)
}

// ImagePath returns the absolute path of a file inside images/
func (loc *Location) ImagePath(name string) string {
	return filepath.Join(loc.ImagesDir, name)
}

// WebImagePath returns the web-relative path of a file inside images/
func (loc *Location) WebImagePath(name string) string {
	return path.Join(loc.WebDir, ImagesDirName, name)
}

// PageImageName returns page-<n>.jpg
func PageImageName(n int) string {
	return fmt.Sprintf("page-%d.jpg", n)
}

// Resolve maps a web-relative path under the prefix to its absolute filesystem path
func (l *Layout) Resolve(webPath string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(webPath))
	if clean != l.webPrefix && !strings.HasPrefix(clean, l.webPrefix+"/") {
		return "", ErrOutsideRoot
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(clean, l.webPrefix), "/")
	abs := filepath.Join(l.root, filepath.FromSlash(rel))
	if !l.within(abs) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// EditionDirOf returns the edition directory owning a stored web path (the PDF or any image)
func (l *Layout) EditionDirOf(webPath string) (string, error) {
	abs, err := l.Resolve(webPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return "", ErrOutsideRoot
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	// year/month/day/edition[/...]
	if len(parts) < 5 {
		return "", ErrOutsideRoot
	}
	return filepath.Join(l.root, filepath.Join(parts[:4]...)), nil
}

// within reports whether p is strictly below the root
func (l *Layout) within(p string) bool {
	rel, err := filepath.Rel(l.root, filepath.Clean(p))
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
