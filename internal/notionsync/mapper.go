package notionsync

import (
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/easybudget/internal/infra/bigquery"
)

// RecordKey builds the upsert key for a mirrored record. Expense and income
// counters run independently, so the bare ID is not unique across kinds.
func RecordKey(rec *bigquery.RecordRow) string {
	return fmt.Sprintf("%s-%d", rec.Kind, rec.RecordID)
}

// RecordToNotionProperties converts a mirrored budget record to the property
// set of the Notion "Records" database. "Record ID" is the title property and
// carries the upsert key.
func RecordToNotionProperties(rec *bigquery.RecordRow) notionapi.Properties {
	props := notionapi.Properties{
		"Record ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: RecordKey(rec),
					},
				},
			},
		},
		"Kind": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Kind,
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						rec.RecordDate.Year,
						rec.RecordDate.Month,
						rec.RecordDate.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: func() float64 {
				if rec.Amount != nil {
					f, _ := rec.Amount.Float64()
					return f
				}
				return 0
			}(),
		},
	}

	if rec.Description != "" {
		props["Description"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Description,
					},
				},
			},
		}
	}

	if rec.MicroCategory.Valid {
		props["Micro Category"] = notionapi.NumberProperty{
			Number: float64(rec.MicroCategory.Int64),
		}
	}

	if rec.ImportID != "" {
		props["Import ID"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.ImportID,
					},
				},
			},
		}
	}

	props["Imported At"] = notionapi.DateProperty{
		Date: &notionapi.DateObject{
			Start: (*notionapi.Date)(&rec.CreatedTS),
		},
	}

	return props
}

// extractRecordKey pulls the record key back out of a Notion page's title
// property. Returns "" when the page has no usable title.
func extractRecordKey(page notionapi.Page) string {
	prop, ok := page.Properties["Record ID"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
