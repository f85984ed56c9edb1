package notion

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/jayphen/gleis/internal/config"
	"github.com/jayphen/gleis/internal/datewindow"
)

// Filter construction for the two query modes.
//
// The query language only reliably supports flat and/or groups of leaf
// comparisons; nesting an OR group under an AND is not. When a tag
// constraint must apply to an OR(AND, AND) filter it is therefore
// distributed into both branches: (A OR B) AND C becomes
// (A AND C) OR (B AND C).

// buildFilter translates a Query into the external filter tree.
func buildFilter(cfg config.NotionConfig, q Query) notionapi.Filter {
	if q.FiscalMode() {
		return fiscalFilter(cfg, datewindow.FiscalYear(q.FiscalYear), q.CatTag)
	}
	return windowFilter(cfg, q.Window, q.CatTag)
}

// windowFilter is the flat AND group used by the daily, weekly, and
// monthly views: exclude canceled, bound the date, optionally require
// the tag.
func windowFilter(cfg config.NotionConfig, w datewindow.Window, catTag string) notionapi.Filter {
	and := notionapi.AndCompoundFilter{
		stateNotFilter(cfg, "Canceled"),
		dateOnOrAfter(cfg.Properties.Date, w.Start),
		dateOnOrBefore(cfg.Properties.Date, w.End),
	}
	if catTag != "" {
		and = append(and, tagContains(cfg.Properties.CatTag, catTag))
	}
	return and
}

// fiscalFilter is the project-tracker filter: a task surfaces if it is
// still active (not Done, not Canceled) or if it is dated inside the
// fiscal year, so completed-but-dated work stays visible. The tag
// condition is distributed into both branches identically.
func fiscalFilter(cfg config.NotionConfig, w datewindow.Window, catTag string) notionapi.Filter {
	active := notionapi.AndCompoundFilter{
		stateNotFilter(cfg, cfg.Defaults.Done),
		stateNotFilter(cfg, "Canceled"),
	}
	dated := notionapi.AndCompoundFilter{
		dateOnOrAfter(cfg.Properties.Date, w.Start),
		dateOnOrBefore(cfg.Properties.Date, w.End),
	}
	if catTag != "" {
		tag := tagContains(cfg.Properties.CatTag, catTag)
		active = append(active, tag)
		dated = append(dated, tag)
	}
	return notionapi.OrCompoundFilter{active, dated}
}

// stateNotFilter excludes a workflow state, addressing the property as
// status or select per configuration.
func stateNotFilter(cfg config.NotionConfig, state string) notionapi.Filter {
	if cfg.StateIsSelect {
		return notionapi.PropertyFilter{
			Property: cfg.Properties.State,
			Select:   &notionapi.SelectFilterCondition{DoesNotEqual: state},
		}
	}
	return notionapi.PropertyFilter{
		Property: cfg.Properties.State,
		Status:   &notionapi.StatusFilterCondition{DoesNotEqual: state},
	}
}

func dateOnOrAfter(property string, t time.Time) notionapi.Filter {
	d := notionapi.Date(t)
	return notionapi.PropertyFilter{
		Property: property,
		Date:     &notionapi.DateFilterCondition{OnOrAfter: &d},
	}
}

func dateOnOrBefore(property string, t time.Time) notionapi.Filter {
	d := notionapi.Date(t)
	return notionapi.PropertyFilter{
		Property: property,
		Date:     &notionapi.DateFilterCondition{OnOrBefore: &d},
	}
}

func tagContains(property, tag string) notionapi.Filter {
	return notionapi.PropertyFilter{
		Property:    property,
		MultiSelect: &notionapi.MultiSelectFilterCondition{Contains: tag},
	}
}

// dateAscending is the sort applied to every query. Records without a
// date keep the service's own null ordering.
func dateAscending(property string) []notionapi.SortObject {
	return []notionapi.SortObject{{
		Property:  property,
		Direction: notionapi.SortOrderASC,
	}}
}
