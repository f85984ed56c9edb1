package notion

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/jayphen/gleis/internal/config"
	"github.com/jayphen/gleis/internal/task"
)

// Record mapping.
//
// The database schema is an external configuration choice: a field the
// dashboard treats as "state" may be a status or a plain select, and a
// category may be a multi-select or a single select. Each logical field
// is therefore read as an ordered list of extraction attempts, first
// match wins, with a defensive fallback; mapping never fails on a
// missing or unexpected shape.

// placeholderTitle is used when the title field has no text segments.
const placeholderTitle = "No Title"

// unknownState is used when the state field is neither status nor select.
const unknownState = "Unknown"

// mapPages converts raw query results into canonical tasks, discarding
// anything that is not a full page with a properties bag.
func mapPages(props config.PropertyNames, pages []notionapi.Page) []task.Task {
	tasks := make([]task.Task, 0, len(pages))
	for _, p := range pages {
		if !isFullPage(p) {
			continue
		}
		tasks = append(tasks, mapPage(props, p))
	}
	return tasks
}

// isFullPage guards against partial or error-shaped results.
func isFullPage(p notionapi.Page) bool {
	return p.Object == notionapi.ObjectTypePage && p.Properties != nil
}

func mapPage(props config.PropertyNames, p notionapi.Page) task.Task {
	cats := optionNames(p.Properties[props.Cat])

	cat := ""
	if len(cats) > 0 {
		cat = cats[0]
	}

	return task.Task{
		ID:      p.ID.String(),
		Name:    titleText(p.Properties[props.Name]),
		Date:    dateStart(p.Properties[props.Date]),
		State:   stateName(p.Properties[props.State]),
		Cat:     cat,
		SubCats: optionNames(p.Properties[props.SubCat]),
		CatTags: optionNames(p.Properties[props.CatTag]),
		Theme:   task.ThemeFor(cats),
		Summary: richTextFirst(p.Properties[props.Summary]),
		URL:     p.URL,
	}
}

// titleText reads the title field's first text segment, or the
// placeholder when empty.
func titleText(prop notionapi.Property) string {
	if t, ok := prop.(*notionapi.TitleProperty); ok {
		for _, rt := range t.Title {
			if rt.PlainText != "" {
				return rt.PlainText
			}
		}
	}
	return placeholderTitle
}

// stateName reads the state as a structured status first, then as a
// single select; the status check must come first for schemas that
// expose both shapes.
func stateName(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.StatusProperty:
		if p.Status.Name != "" {
			return p.Status.Name
		}
	case *notionapi.SelectProperty:
		if p.Select.Name != "" {
			return p.Select.Name
		}
	}
	return unknownState
}

// optionNames normalizes a tag-like field: each multi-select option in
// selection order, a single select wrapped in a one-element list, or
// nothing.
func optionNames(prop notionapi.Property) []string {
	switch p := prop.(type) {
	case *notionapi.MultiSelectProperty:
		names := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			names = append(names, o.Name)
		}
		return names
	case *notionapi.SelectProperty:
		if p.Select.Name != "" {
			return []string{p.Select.Name}
		}
	}
	return nil
}

// dateStart reads the date field's start value as YYYY-MM-DD.
func dateStart(prop notionapi.Property) *string {
	p, ok := prop.(*notionapi.DateProperty)
	if !ok || p.Date == nil || p.Date.Start == nil {
		return nil
	}
	s := time.Time(*p.Date.Start).Format("2006-01-02")
	return &s
}

// richTextFirst reads the first rich-text segment's plain text.
func richTextFirst(prop notionapi.Property) string {
	if p, ok := prop.(*notionapi.RichTextProperty); ok {
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	}
	return ""
}
