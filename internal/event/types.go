// Package event holds the notification envelope model: the command set, the
// Page/ExternalData payload union and the per-entity notification options.
package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Command string

const (
	RegisterCrawler Command = "register_crawler"
	ScrapePage      Command = "scrape_page"
	ExtractPage     Command = "extract_page"
	StorePage       Command = "store_page"
	NotifyUser      Command = "notify_user"
	Sleep           Command = "sleep"
)

func (c Command) Valid() bool {
	switch c {
	case RegisterCrawler, ScrapePage, ExtractPage, StorePage, NotifyUser, Sleep:
		return true
	}
	return false
}

// Status is the optional pipeline stage outcome carried next to a command.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusFailed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityTop    Priority = "top"
	PriorityHigh   Priority = "high"
	PriorityCommon Priority = "common"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool { return p.Weight() > 0 }

// Weight orders priorities for queueing: top=4 ... low=1, unknown=0.
func (p Priority) Weight() int {
	switch p {
	case PriorityTop:
		return 4
	case PriorityHigh:
		return 3
	case PriorityCommon:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type NotificationLevel string

const (
	JobsDone     NotificationLevel = "JobsDone"
	JobsFailed   NotificationLevel = "JobsFailed"
	Statistics   NotificationLevel = "Statistics"
	DoNotDisturb NotificationLevel = "DoNotDisturb"
)

func (l NotificationLevel) Valid() bool {
	switch l {
	case JobsDone, JobsFailed, Statistics, DoNotDisturb:
		return true
	}
	return false
}

type NotifyEvery string

const (
	EveryDay   NotifyEvery = "day"
	EveryWeek  NotifyEvery = "week"
	EveryMonth NotifyEvery = "month"
)

func (e NotifyEvery) Valid() bool {
	switch e {
	case EveryDay, EveryWeek, EveryMonth:
		return true
	}
	return false
}

// NotifyVia is one recipient. An empty field means that channel is inactive.
type NotifyVia struct {
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Telegram string `json:"telegram,omitempty"`
}

// NotificationOptions must list at least one recipient unless Level is DoNotDisturb.
type NotificationOptions struct {
	Level NotificationLevel `json:"level" validate:"enum"`
	Via   []NotifyVia       `json:"via" validate:"dive"`
	Every *NotifyEvery      `json:"every,omitempty" validate:"omitempty,enum"`
}

// HasRecipient reports whether any via entry names an email or telegram target.
func (o NotificationOptions) HasRecipient() bool {
	for _, v := range o.Via {
		if strings.TrimSpace(v.Email) != "" || strings.TrimSpace(v.Telegram) != "" {
			return true
		}
	}
	return false
}

type Page struct {
	ID            uuid.UUID           `json:"id" validate:"required"`
	CrawlerID     uuid.UUID           `json:"crawler_id" validate:"required"`
	SiteID        uuid.UUID           `json:"site_id" validate:"required"`
	URL           string              `json:"url" validate:"required,url"`
	Domain        string              `json:"domain" validate:"required"`
	IsPagination  bool                `json:"is_pagination"`
	TimesReparsed uint32              `json:"times_reparsed"`
	Priority      Priority            `json:"priority" validate:"enum"`
	Notification  NotificationOptions `json:"notification"`
	XPaths        map[string]string   `json:"xpaths"`
	// Timestamps come back from Parse in UTC.
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	HTML          *string             `json:"html,omitempty"`
	Data          map[string]string   `json:"data"`
	Meta          *string             `json:"meta,omitempty"`
}

// ExternalData is a payload produced outside the pipeline. Only its optional
// "notification" key is interpreted.
type ExternalData map[string]any

// Payload is either ExternalData or *Page.
type Payload interface {
	payload()
}

func (ExternalData) payload() {}
func (*Page) payload()        {}

type EventProtocol struct {
	Command Command
	Status  Status
	// Level, when set, is the observed level the emitter asserts for this event.
	Level NotificationLevel
	Data  Payload
}

// Page returns the internal payload, if that is what the envelope carries.
func (e EventProtocol) Page() (*Page, bool) {
	p, ok := e.Data.(*Page)
	return p, ok && p != nil
}

// External returns the external payload, if that is what the envelope carries.
func (e EventProtocol) External() (ExternalData, bool) {
	d, ok := e.Data.(ExternalData)
	return d, ok
}

// Notification returns the notification options carried by the payload.
func (e EventProtocol) Notification() (*NotificationOptions, bool) {
	switch d := e.Data.(type) {
	case *Page:
		if d == nil {
			return nil, false
		}
		return &d.Notification, true
	case ExternalData:
		opts, err := d.notification("data")
		if err != nil || opts == nil {
			return nil, false
		}
		return opts, true
	}
	return nil, false
}
