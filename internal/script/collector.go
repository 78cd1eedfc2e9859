package script

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

// Collect extracts every <script> tag from the page into a ScriptRecord,
// preserving document order. External tags carry their src attribute without
// content; inline tags carry their text body. Blank inline scripts are
// skipped.
//
// Design decision: We use goquery rather than regex tag-matching because it
// tolerates the malformed HTML common on production marketing pages while
// still being a flat tag scan, not a semantic parse.
func Collect(page *model.PageContent) []*model.ScriptRecord {
	if page == nil || page.HTML == "" {
		return []*model.ScriptRecord{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		// Unparseable input degrades to an empty script set; the detectors
		// still scan the raw HTML itself.
		return []*model.ScriptRecord{}
	}

	records := make([]*model.ScriptRecord, 0)
	line := 0

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && strings.TrimSpace(src) != "" {
			line++
			records = append(records, &model.ScriptRecord{
				Type: model.ScriptExternal,
				Src:  strings.TrimSpace(src),
				Line: line,
			})
			return
		}

		content := sel.Text()
		if strings.TrimSpace(content) == "" {
			return
		}
		line++
		records = append(records, &model.ScriptRecord{
			Type:    model.ScriptInline,
			Content: content,
			Line:    line,
		})
	})

	return records
}

// HasNoscriptPixel reports whether the page carries a <noscript> fallback
// image pointing at the given tracking host path (e.g. "facebook.com/tr").
func HasNoscriptPixel(page *model.PageContent, hostPath string) bool {
	if page == nil {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return strings.Contains(page.HTML, hostPath)
	}

	found := false
	doc.Find("noscript img").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && strings.Contains(src, hostPath) {
			found = true
		}
	})
	if found {
		return true
	}

	// goquery drops noscript inner markup in some documents; fall back to a
	// raw text check over the noscript blocks.
	doc.Find("noscript").Each(func(_ int, sel *goquery.Selection) {
		if strings.Contains(sel.Text(), hostPath) {
			found = true
		}
	})
	return found
}
