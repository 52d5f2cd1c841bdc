// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package figures matches figure images to parsed questions using the
// <year>[-]syg?-<opgave>-<label>[<variant>] file naming convention.
package figures

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/kortsvar/pkg/types"
)

// ignoredName is listed by Finder in every directory it has opened.
const ignoredName = ".DS_Store"

// imageNameRe matches a file stem such as "2026-01-b1", "2019syg-03-a" or
// "2019-syg-03-a".
var imageNameRe = regexp.MustCompile(`(?i)^(\d{4})(-?syg)?-(\d{2})-([a-z])(\d+)?$`)

// ParseImageName parses a base file name. It reports false when the name
// does not follow the convention.
func ParseImageName(name string) (types.ImageFile, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := imageNameRe.FindStringSubmatch(stem)
	if m == nil {
		return types.ImageFile{}, false
	}
	year, _ := strconv.Atoi(m[1])
	opgave, _ := strconv.Atoi(m[3])
	img := types.ImageFile{
		Name:   name,
		Year:   year,
		Opgave: opgave,
		Label:  strings.ToLower(m[4]),
	}
	if m[2] != "" {
		img.Session = types.SessionPtr(types.SessionReExam)
	}
	if m[5] != "" {
		v, _ := strconv.Atoi(m[5])
		img.Variant = &v
	}
	return img, true
}

type imageKey struct {
	year    int
	session string
	opgave  int
	label   string
}

type groupKey struct {
	year    int
	session string
	opgave  int
}

// Catalogue indexes image files by exact (year, session, opgave, label) and
// by (year, session, opgave) group. Files keep their listing order within
// each index entry.
type Catalogue struct {
	images  []types.ImageFile
	byKey   map[imageKey][]types.ImageFile
	byGroup map[groupKey][]types.ImageFile
}

// BuildCatalogue catalogues the given file names. Names that do not follow
// the convention, and .DS_Store, are skipped. Each recorded path is dir
// joined with the name using forward slashes, so datasets are identical
// across platforms.
func BuildCatalogue(dir string, names []string) *Catalogue {
	c := &Catalogue{
		byKey:   make(map[imageKey][]types.ImageFile),
		byGroup: make(map[groupKey][]types.ImageFile),
	}
	for _, name := range names {
		if name == ignoredName {
			continue
		}
		img, ok := ParseImageName(name)
		if !ok {
			continue
		}
		img.Path = path.Join(filepath.ToSlash(dir), name)

		c.images = append(c.images, img)
		k := imageKey{img.Year, types.SessionKey(img.Session), img.Opgave, img.Label}
		g := groupKey{k.year, k.session, k.opgave}
		c.byKey[k] = append(c.byKey[k], img)
		c.byGroup[g] = append(c.byGroup[g], img)
	}
	return c
}

// Images returns the catalogued images in listing order.
func (c *Catalogue) Images() []types.ImageFile {
	return c.images
}

// Len returns the number of catalogued images.
func (c *Catalogue) Len() int {
	return len(c.images)
}

// sessionFallbacks lists the session keys to try, in order. Image names
// only distinguish re-exams, so the ordinary session and "no session" are
// interchangeable.
func sessionFallbacks(session *types.Session) []string {
	key := types.SessionKey(session)
	switch key {
	case string(types.SessionOrdinary):
		return []string{key, ""}
	case "":
		return []string{"", string(types.SessionOrdinary)}
	default:
		return []string{key}
	}
}

// Lookup returns the images for one labeled sub-question.
func (c *Catalogue) Lookup(year int, session *types.Session, opgave int, label string) []types.ImageFile {
	label = strings.ToLower(label)
	for _, s := range sessionFallbacks(session) {
		if hits := c.byKey[imageKey{year, s, opgave, label}]; len(hits) > 0 {
			return hits
		}
	}
	return nil
}

// LookupGroup returns every image of an opgave regardless of label.
func (c *Catalogue) LookupGroup(year int, session *types.Session, opgave int) []types.ImageFile {
	for _, s := range sessionFallbacks(session) {
		if hits := c.byGroup[groupKey{year, s, opgave}]; len(hits) > 0 {
			return hits
		}
	}
	return nil
}
