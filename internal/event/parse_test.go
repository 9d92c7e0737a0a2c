package event

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func pageData() map[string]any {
	return map[string]any{
		"id":             "0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4d",
		"crawler_id":     "0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4e",
		"site_id":        "0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4f",
		"url":            "https://example.com/catalog?page=2",
		"domain":         "example.com",
		"is_pagination":  true,
		"times_reparsed": 0,
		"priority":       "high",
		"notification": map[string]any{
			"level": "JobsDone",
			"via":   []any{map[string]any{"email": "a@x.com"}},
		},
		"xpaths":     map[string]any{"title": "//h1"},
		"created_at": "2024-05-01T10:00:00Z",
		"updated_at": "2024-05-01T10:05:00Z",
	}
}

func envelope(command string, data map[string]any) map[string]any {
	return map[string]any{"command": command, "data": data}
}

func requirePath(t *testing.T, err error, path string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrValidation), "want ErrValidation, got %v", err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, path, ve.Path, "reason: %s", ve.Reason)
}

func TestParse_PageEnvelope(t *testing.T) {
	got, err := ParseMap(envelope("extract_page", pageData()))
	require.NoError(t, err)

	require.Equal(t, ExtractPage, got.Command)
	page, ok := got.Page()
	require.True(t, ok)
	require.Equal(t, uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4e"), page.CrawlerID)
	require.Equal(t, PriorityHigh, page.Priority)
	require.True(t, page.IsPagination)
	require.Equal(t, JobsDone, page.Notification.Level)
	require.Equal(t, []NotifyVia{{Email: "a@x.com"}}, page.Notification.Via)
	require.Nil(t, page.Notification.Every)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), page.CreatedAt)
	require.Nil(t, page.HTML)
}

func TestParse_ExternalEnvelope(t *testing.T) {
	got, err := ParseMap(envelope("register_crawler", map[string]any{
		"name":    "books",
		"user_id": "42",
	}))
	require.NoError(t, err)

	ext, ok := got.External()
	require.True(t, ok)
	require.Equal(t, "books", ext["name"])
	_, ok = got.Notification()
	require.False(t, ok)
}

func TestParse_ExternalNotifyUserCarriesOptions(t *testing.T) {
	got, err := Parse([]byte(`{"command":"notify_user","data":{"notification":{"level":"Statistics","via":[{"telegram":"@ops"}],"every":"week"}}}`))
	require.NoError(t, err)

	opts, ok := got.Notification()
	require.True(t, ok)
	require.Equal(t, Statistics, opts.Level)
	require.NotNil(t, opts.Every)
	require.Equal(t, EveryWeek, *opts.Every)
	require.Equal(t, "@ops", opts.Via[0].Telegram)
}

func TestParse_MissingPageFieldsNeverYieldPartialPage(t *testing.T) {
	for _, key := range []string{"id", "crawler_id", "site_id", "url", "domain", "is_pagination", "times_reparsed", "priority", "notification", "xpaths", "created_at", "updated_at"} {
		t.Run(key, func(t *testing.T) {
			data := pageData()
			delete(data, key)

			got, err := ParseMap(envelope("store_page", data))
			requirePath(t, err, "data."+key)
			require.Nil(t, got.Data)
		})
	}
}

func TestParse_PageKeysWithoutIdentityStayExternal(t *testing.T) {
	got, err := ParseMap(envelope("notify_user", map[string]any{
		"crawler_id": "0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4e",
		"url":        "https://example.com/report",
		"domain":     "example.com",
	}))
	require.NoError(t, err)
	ext, ok := got.External()
	require.True(t, ok)
	require.Equal(t, "https://example.com/report", ext["url"])

	got, err = ParseMap(envelope("register_crawler", map[string]any{
		"name":   "books",
		"domain": "books.example.com",
		"url":    "https://books.example.com/",
	}))
	require.NoError(t, err)
	_, ok = got.External()
	require.True(t, ok)
}

func TestParse_IdentifiedPageOnEitherShapeCommandMustBeComplete(t *testing.T) {
	data := pageData()
	delete(data, "url")

	got, err := ParseMap(envelope("notify_user", data))
	requirePath(t, err, "data.url")
	require.Nil(t, got.Data)

	got, err = ParseMap(envelope("sleep", pageData()))
	require.NoError(t, err)
	_, ok := got.Page()
	require.True(t, ok)
}

func TestParse_PageCommandWithEmptyData(t *testing.T) {
	_, err := ParseMap(envelope("scrape_page", map[string]any{}))
	requirePath(t, err, "data.id")
}

func TestParse_ShapeMismatch(t *testing.T) {
	_, err := ParseMap(envelope("register_crawler", pageData()))
	requirePath(t, err, "data")
}

func TestParse_UnknownCommand(t *testing.T) {
	_, err := ParseMap(envelope("explode", pageData()))
	requirePath(t, err, "command")
}

func TestParse_EnvelopeErrors(t *testing.T) {
	cases := map[string]struct {
		raw  string
		path string
	}{
		"not an object":  {raw: `[1,2]`, path: "$"},
		"missing data":   {raw: `{"command":"sleep"}`, path: "data"},
		"data not obj":   {raw: `{"command":"sleep","data":"x"}`, path: "data"},
		"bad status":     {raw: `{"command":"sleep","status":"maybe","data":{}}`, path: "status"},
		"dnd as level":   {raw: `{"command":"notify_user","level":"DoNotDisturb","data":{}}`, path: "level"},
		"command number": {raw: `{"command":7,"data":{}}`, path: "command"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			requirePath(t, err, tc.path)
		})
	}
}

func TestParse_NotificationInvariant(t *testing.T) {
	t.Run("empty via without DoNotDisturb", func(t *testing.T) {
		data := pageData()
		data["notification"] = map[string]any{"level": "JobsFailed", "via": []any{}}
		_, err := ParseMap(envelope("store_page", data))
		requirePath(t, err, "data.notification.via")
	})

	t.Run("null via without DoNotDisturb", func(t *testing.T) {
		data := pageData()
		data["notification"] = map[string]any{"level": "Statistics", "via": nil}
		_, err := ParseMap(envelope("store_page", data))
		requirePath(t, err, "data.notification.via")
	})

	t.Run("via entries without any recipient", func(t *testing.T) {
		data := pageData()
		data["notification"] = map[string]any{"level": "JobsDone", "via": []any{map[string]any{}, map[string]any{"telegram": "  "}}}
		_, err := ParseMap(envelope("store_page", data))
		requirePath(t, err, "data.notification.via")
	})

	t.Run("empty via with DoNotDisturb", func(t *testing.T) {
		data := pageData()
		data["notification"] = map[string]any{"level": "DoNotDisturb", "via": []any{}}
		_, err := ParseMap(envelope("store_page", data))
		require.NoError(t, err)
	})

	t.Run("bad email", func(t *testing.T) {
		data := pageData()
		data["notification"] = map[string]any{"level": "JobsDone", "via": []any{map[string]any{"email": "nope"}}}
		_, err := ParseMap(envelope("store_page", data))
		requirePath(t, err, "data.notification.via[0].email")
	})

	t.Run("unknown level", func(t *testing.T) {
		data := pageData()
		data["notification"] = map[string]any{"level": "Everything", "via": []any{}}
		_, err := ParseMap(envelope("store_page", data))
		requirePath(t, err, "data.notification.level")
	})

	t.Run("unknown cadence", func(t *testing.T) {
		_, err := Parse([]byte(`{"command":"notify_user","data":{"notification":{"level":"Statistics","via":[{"email":"a@x.com"}],"every":"hour"}}}`))
		requirePath(t, err, "data.notification.every")
	})
}

func TestParse_PageValueErrors(t *testing.T) {
	t.Run("bad uuid", func(t *testing.T) {
		data := pageData()
		data["site_id"] = "not-a-uuid"
		_, err := ParseMap(envelope("scrape_page", data))
		requirePath(t, err, "data.site_id")
	})

	t.Run("nil uuid", func(t *testing.T) {
		data := pageData()
		data["id"] = uuid.Nil.String()
		_, err := ParseMap(envelope("scrape_page", data))
		requirePath(t, err, "data.id")
	})

	t.Run("unknown priority", func(t *testing.T) {
		data := pageData()
		data["priority"] = "urgent"
		_, err := ParseMap(envelope("scrape_page", data))
		requirePath(t, err, "data.priority")
	})

	t.Run("negative counter", func(t *testing.T) {
		data := pageData()
		data["times_reparsed"] = -1
		_, err := ParseMap(envelope("scrape_page", data))
		requirePath(t, err, "data.times_reparsed")
	})
}

func TestEventProtocol_RoundTrip(t *testing.T) {
	html := "<html></html>"
	every := EveryDay
	cases := map[string]EventProtocol{
		"page": {
			Command: StorePage,
			Status:  StatusDone,
			Data: &Page{
				ID:            uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4d"),
				CrawlerID:     uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4e"),
				SiteID:        uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4f"),
				URL:           "https://example.com/p/1",
				Domain:        "example.com",
				TimesReparsed: 3,
				Priority:      PriorityLow,
				Notification: NotificationOptions{
					Level: Statistics,
					Via:   []NotifyVia{{Email: "a@x.com", Telegram: "12345"}},
					Every: &every,
				},
				XPaths:    map[string]string{"price": "//span[@class='p']"},
				CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				UpdatedAt: time.Date(2024, 5, 2, 11, 30, 0, 0, time.UTC),
				HTML:      &html,
				Data:      map[string]string{"price": "10"},
			},
		},
		"external": {
			Command: NotifyUser,
			Level:   Statistics,
			Data: ExternalData{
				"source": "api",
				"count":  float64(3),
				"notification": map[string]any{
					"level": "Statistics",
					"via":   []any{map[string]any{"telegram": "@ops"}},
				},
			},
		},
		"external with url": {
			Command: NotifyUser,
			Data: ExternalData{
				"url":    "https://example.com/report",
				"domain": "example.com",
			},
		},
		"register with domain": {
			Command: RegisterCrawler,
			Status:  StatusDone,
			Data:    ExternalData{"name": "books", "domain": "books.example.com"},
		},
		"page with empty data map": {
			Command: ScrapePage,
			Data: &Page{
				ID:        uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4d"),
				CrawlerID: uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4e"),
				SiteID:    uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4f"),
				URL:       "https://example.com/",
				Domain:    "example.com",
				Priority:  PriorityCommon,
				Notification: NotificationOptions{
					Level: JobsDone,
					Via:   []NotifyVia{{Telegram: "12345"}},
				},
				XPaths:    map[string]string{},
				CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				Data:      map[string]string{},
			},
		},
		"dnd page": {
			Command: ExtractPage,
			Status:  StatusFailed,
			Data: &Page{
				ID:           uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4d"),
				CrawlerID:    uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4e"),
				SiteID:       uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4f"),
				URL:          "https://example.com/",
				Domain:       "example.com",
				IsPagination: true,
				Priority:     PriorityTop,
				Notification: NotificationOptions{Level: DoNotDisturb},
				CreatedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				UpdatedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			},
		},
	}

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(want)
			require.NoError(t, err)

			var got EventProtocol
			require.NoError(t, json.Unmarshal(b, &got))
			require.Equal(t, want, got)
		})
	}
}

func TestEventProtocol_RoundTripNormalisesTimestampsToUTC(t *testing.T) {
	kyiv := time.FixedZone("EEST", 3*60*60)
	want := EventProtocol{
		Command: StorePage,
		Data: &Page{
			ID:        uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4d"),
			CrawlerID: uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4e"),
			SiteID:    uuid.MustParse("0190f5f4-3c9e-7a11-9d3e-1c0f1a2b3c4f"),
			URL:       "https://example.com/",
			Domain:    "example.com",
			Priority:  PriorityHigh,
			Notification: NotificationOptions{
				Level: JobsDone,
				Via:   []NotifyVia{{Email: "a@x.com"}},
			},
			CreatedAt: time.Date(2024, 5, 1, 13, 0, 0, 0, kyiv),
			UpdatedAt: time.Date(2024, 5, 1, 14, 0, 0, 0, kyiv),
		},
	}

	b, err := json.Marshal(want)
	require.NoError(t, err)
	var got EventProtocol
	require.NoError(t, json.Unmarshal(b, &got))

	page, ok := got.Page()
	require.True(t, ok)
	require.Equal(t, time.UTC, page.CreatedAt.Location())
	require.True(t, page.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.True(t, page.UpdatedAt.Equal(want.Data.(*Page).UpdatedAt))
}

func TestPriority_Weight(t *testing.T) {
	require.Greater(t, PriorityTop.Weight(), PriorityHigh.Weight())
	require.Greater(t, PriorityHigh.Weight(), PriorityCommon.Weight())
	require.Greater(t, PriorityCommon.Weight(), PriorityLow.Weight())
	require.False(t, Priority("urgent").Valid())
}
