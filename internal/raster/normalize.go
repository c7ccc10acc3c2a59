package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/gituserindia/eptest-sub000/pkg/storage"
)

// rawPrefix is the file name prefix CLI tools write before renumbering
const rawPrefix = "raw-"

var rawPageRe = regexp.MustCompile(`^` + rawPrefix + `(\d+)\.jpe?g$`)

// NormalizePages renames the tool's raw-<k>.jpg outputs in dir to page-1.jpg … page-N.jpg,
// ordered by k, whatever the tool's first index or zero padding. It returns N.
func NormalizePages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read output directory: %w", err)
	}

	type rawPage struct {
		index int
		name  string
	}
	var pages []rawPage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := rawPageRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, rawPage{index: idx, name: e.Name()})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].index < pages[j].index })

	for i, p := range pages {
		from := filepath.Join(dir, p.name)
		to := filepath.Join(dir, storage.PageImageName(i+1))
		if err := os.Rename(from, to); err != nil {
			return i, fmt.Errorf("rename %s: %w", p.name, err)
		}
	}
	return len(pages), nil
}
