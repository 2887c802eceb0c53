package arvados

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/vanderheijden86/treepick/pkg/model"
)

var (
	locatorPattern = regexp.MustCompile(`^[0-9a-f]{32}\+[0-9]+(\+\S+)?$`)
	segmentPattern = regexp.MustCompile(`^([0-9]+):([0-9]+):(.+)$`)
	escapePattern  = regexp.MustCompile(`\\[0-7]{3}`)
)

// ParseManifest flattens a collection manifest into its files and
// directories. Directories are implied by stream names and by file names
// containing slashes; a "." entry marks an otherwise empty directory.
// A file split over several segments is reported once with its total size.
func ParseManifest(collectionUUID, manifest string) ([]model.CollectionFile, error) {
	p := manifestParser{uuid: collectionUUID, index: map[string]int{}}
	for n, line := range strings.Split(manifest, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := p.line(line); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", n+1, err)
		}
	}
	return p.out, nil
}

type manifestParser struct {
	uuid  string
	out   []model.CollectionFile
	index map[string]int // file id -> position in out
}

func (p *manifestParser) line(line string) error {
	tokens := strings.Fields(line)
	stream := unescape(tokens[0])
	if stream != "." && !strings.HasPrefix(stream, "./") {
		return fmt.Errorf("bad stream name %q", tokens[0])
	}
	dir := strings.TrimPrefix(stream, ".")
	p.dir(dir)

	sawLocator := false
	for _, tok := range tokens[1:] {
		if locatorPattern.MatchString(tok) {
			sawLocator = true
			continue
		}
		m := segmentPattern.FindStringSubmatch(tok)
		if m == nil {
			return fmt.Errorf("bad token %q", tok)
		}
		if !sawLocator {
			return fmt.Errorf("file segment %q before any locator", tok)
		}
		size, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad segment length in %q: %w", tok, err)
		}
		p.file(dir, unescape(m[3]), size)
	}
	return nil
}

// dir records dir ("" or "/a/b") and all its parents.
func (p *manifestParser) dir(dir string) {
	if dir == "" {
		return
	}
	parent, name := path.Split(dir)
	parent = strings.TrimSuffix(parent, "/")
	p.dir(parent)
	p.put(model.CollectionFile{CollectionUUID: p.uuid, Path: parent, Name: name, Type: model.FileTypeDirectory}, 0)
}

func (p *manifestParser) file(dir, name string, size int64) {
	full := path.Clean(dir + "/" + name)
	if name == "." || full == "/" || strings.HasSuffix(name, "/.") {
		p.dir(strings.TrimSuffix(full, "/"))
		return
	}
	parent, base := path.Split(full)
	parent = strings.TrimSuffix(parent, "/")
	p.dir(parent)
	p.put(model.CollectionFile{CollectionUUID: p.uuid, Path: parent, Name: base, Type: model.FileTypeFile}, size)
}

func (p *manifestParser) put(f model.CollectionFile, size int64) {
	id := f.ResourceID()
	if i, ok := p.index[id]; ok {
		p.out[i].Size += size
		return
	}
	f.Size = size
	p.index[id] = len(p.out)
	p.out = append(p.out, f)
}

func unescape(s string) string {
	return escapePattern.ReplaceAllStringFunc(s, func(esc string) string {
		v, err := strconv.ParseUint(esc[1:], 8, 8)
		if err != nil {
			return esc
		}
		return string([]byte{byte(v)})
	})
}
