// Package newsletter turns raw funding newsletters into structured
// FundingEvent records.
package newsletter

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Source yields unprocessed newsletter messages. Mailbox integrations live
// behind this interface; the pipeline never talks to a mail provider
// directly.
type Source interface {
	Fetch(ctx context.Context, max int) ([]model.Newsletter, error)
}

// DirSource reads newsletters from files in a directory. The file name is
// the newsletter ID, so a store-side processed marker survives re-runs.
type DirSource struct {
	Dir string
}

var newsletterExts = map[string]bool{
	".html": true,
	".htm":  true,
	".eml":  true,
	".txt":  true,
}

// Fetch returns up to max newsletters, ordered by file name.
func (s DirSource) Fetch(ctx context.Context, max int) ([]model.Newsletter, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, eris.Wrapf(err, "newsletter: read dir %s", s.Dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !newsletterExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []model.Newsletter
	for _, name := range names {
		if max > 0 && len(out) >= max {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "newsletter: fetch")
		}

		raw, err := os.ReadFile(filepath.Join(s.Dir, name))
		if err != nil {
			return nil, eris.Wrapf(err, "newsletter: read %s", name)
		}

		info, err := os.Stat(filepath.Join(s.Dir, name))
		if err != nil {
			return nil, eris.Wrapf(err, "newsletter: stat %s", name)
		}

		n := model.Newsletter{
			ID:      name,
			Subject: strings.TrimSuffix(name, filepath.Ext(name)),
			Date:    info.ModTime(),
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext == ".txt" {
			n.BodyText = string(raw)
		} else {
			n.BodyHTML = string(raw)
		}
		out = append(out, n)
	}

	return out, nil
}
