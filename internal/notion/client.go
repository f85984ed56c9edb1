package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/jayphen/gleis/internal/datewindow"
	"github.com/jayphen/gleis/internal/task"
)

// QueryTasks runs one view query against the database, following the
// continuation cursor until the service reports no further pages, and
// maps the accumulated results into canonical tasks. Results are
// sorted ascending by date upstream.
func (c *Client) QueryTasks(ctx context.Context, q Query) ([]task.Task, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			Filter:      buildFilter(c.cfg, q),
			Sorts:       dateAscending(c.props().Date),
			StartCursor: cursor,
			PageSize:    queryPageSize,
		}

		resp, err := c.db.Query(ctx, c.dbID, req)
		if err != nil {
			return nil, fmt.Errorf("%w: query: %v", ErrUpstream, err)
		}

		pages = append(pages, resp.Results...)
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return mapPages(c.props(), pages), nil
}

// CreateTask creates a task with the configured default state and
// category tags. An empty name falls back to the configured placeholder;
// an empty date leaves the task unscheduled. Returns the new record id.
func (c *Client) CreateTask(ctx context.Context, name, date string) (string, error) {
	if name == "" {
		name = c.cfg.Defaults.Name
	}

	props := notionapi.Properties{
		c.props().Name: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: name}}},
		},
		c.props().State: c.stateValue(c.cfg.Defaults.State),
		c.props().Cat: notionapi.MultiSelectProperty{
			MultiSelect: []notionapi.Option{{Name: c.cfg.Defaults.Cat}},
		},
		c.props().SubCat: notionapi.MultiSelectProperty{
			MultiSelect: []notionapi.Option{{Name: c.cfg.Defaults.SubCat}},
		},
	}
	if date != "" {
		dv, err := dateValue(date)
		if err != nil {
			return "", err
		}
		props[c.props().Date] = dv
	}

	page, err := c.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.dbID,
		},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create: %v", ErrUpstream, err)
	}
	return page.ID.String(), nil
}

// UpdateTask applies a partial update. Only the provided fields are
// sent; a Date of "" or "null" clears the schedule rather than leaving
// it unchanged.
func (c *Client) UpdateTask(ctx context.Context, id string, u TaskUpdate) error {
	props := notionapi.Properties{}

	if u.Name != nil {
		props[c.props().Name] = notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: *u.Name}}},
		}
	}
	if u.Status != nil && *u.Status != "" {
		props[c.props().State] = c.stateValue(*u.Status)
	}
	if u.Date != nil {
		if *u.Date == "" || *u.Date == "null" {
			props[c.props().Date] = notionapi.DateProperty{Date: nil}
		} else {
			dv, err := dateValue(*u.Date)
			if err != nil {
				return err
			}
			props[c.props().Date] = dv
		}
	}

	if len(props) == 0 {
		return nil
	}

	_, err := c.pages.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{
		Properties: props,
	})
	if err != nil {
		return fmt.Errorf("%w: update: %v", ErrUpstream, err)
	}
	return nil
}

// CompleteTask sets the state to the configured terminal value. It is a
// dedicated mutation so callers can optimistically drop the task from
// active views without waiting for a re-fetch.
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	_, err := c.pages.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			c.props().State: c.stateValue(c.cfg.Defaults.Done),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: complete: %v", ErrUpstream, err)
	}
	return nil
}

// DeleteTask archives the record, the service's soft delete.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.pages.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{},
		Archived:   true,
	})
	if err != nil {
		return fmt.Errorf("%w: delete: %v", ErrUpstream, err)
	}
	return nil
}

// stateValue builds the state mutation payload in the property's
// configured shape.
func (c *Client) stateValue(state string) notionapi.Property {
	if c.cfg.StateIsSelect {
		return notionapi.SelectProperty{Select: notionapi.Option{Name: state}}
	}
	return notionapi.StatusProperty{Status: notionapi.Option{Name: state}}
}

func dateValue(date string) (notionapi.Property, error) {
	t, err := time.Parse(datewindow.DateFormat, task.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %v", date, err)
	}
	d := notionapi.Date(t)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}, nil
}
