package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("enum", validateEnum); err != nil {
		panic(fmt.Errorf("register enum validation: %w", err))
	}
	v.RegisterStructValidation(validateOptions, NotificationOptions{})
	return v
}

func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(interface{ Valid() bool })
	return ok && e.Valid()
}

func validateOptions(sl validator.StructLevel) {
	o, ok := sl.Current().Interface().(NotificationOptions)
	if !ok {
		return
	}
	if o.Level != DoNotDisturb && !o.HasRecipient() {
		sl.ReportError(o.Via, "via", "Via", "required_unless_dnd", "")
	}
}

type shape struct {
	external bool
	internal bool
}

func shapeFor(c Command) shape {
	switch c {
	case RegisterCrawler:
		return shape{external: true}
	case ScrapePage, ExtractPage, StorePage:
		return shape{internal: true}
	default:
		return shape{external: true, internal: true}
	}
}

// A payload carrying all of these identifiers is a Page; anything less is
// opaque external data, even if it happens to have a url or domain.
var pageIdentity = []string{"id", "crawler_id", "site_id"}

type pageField struct {
	key      string
	required bool
	nullable bool
	target   func(p *Page) any
}

// Declaration order decides which missing key is reported first.
var pageFields = []pageField{
	{key: "id", required: true, target: func(p *Page) any { return &p.ID }},
	{key: "crawler_id", required: true, target: func(p *Page) any { return &p.CrawlerID }},
	{key: "site_id", required: true, target: func(p *Page) any { return &p.SiteID }},
	{key: "url", required: true, target: func(p *Page) any { return &p.URL }},
	{key: "domain", required: true, target: func(p *Page) any { return &p.Domain }},
	{key: "is_pagination", required: true, target: func(p *Page) any { return &p.IsPagination }},
	{key: "times_reparsed", required: true, target: func(p *Page) any { return &p.TimesReparsed }},
	{key: "priority", required: true, target: func(p *Page) any { return &p.Priority }},
	{key: "notification", required: true},
	{key: "xpaths", required: true, nullable: true, target: func(p *Page) any { return &p.XPaths }},
	{key: "created_at", required: true, target: func(p *Page) any { return &p.CreatedAt }},
	{key: "updated_at", required: true, target: func(p *Page) any { return &p.UpdatedAt }},
	{key: "html", nullable: true, target: func(p *Page) any { return &p.HTML }},
	{key: "data", nullable: true, target: func(p *Page) any { return &p.Data }},
	{key: "meta", nullable: true, target: func(p *Page) any { return &p.Meta }},
}

// ParseMap validates an already-decoded envelope record.
func ParseMap(raw map[string]any) (EventProtocol, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return EventProtocol{}, invalid("$", "unencodable envelope: %v", err)
	}
	return Parse(b)
}

// Parse validates a JSON envelope and returns the typed event. It has no side
// effects; every failure is a *ValidationError.
func Parse(raw []byte) (EventProtocol, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil || env == nil {
		return EventProtocol{}, invalid("$", "envelope must be a JSON object")
	}

	var out EventProtocol

	if err := decodeEnum(env, "command", true, &out.Command); err != nil {
		return EventProtocol{}, err
	}
	if err := decodeEnum(env, "status", false, &out.Status); err != nil {
		return EventProtocol{}, err
	}
	if err := decodeEnum(env, "level", false, &out.Level); err != nil {
		return EventProtocol{}, err
	}
	if out.Level == DoNotDisturb {
		return EventProtocol{}, invalid("level", "DoNotDisturb is not an observable level")
	}

	rawData, ok := env["data"]
	if !ok || isNull(rawData) {
		return EventProtocol{}, invalid("data", "required")
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(rawData, &data); err != nil || data == nil {
		return EventProtocol{}, invalid("data", "must be a JSON object")
	}

	want := shapeFor(out.Command)
	isPage := want.internal && !want.external
	if !isPage {
		isPage = hasAll(data, pageIdentity)
	}

	switch {
	case isPage && !want.internal:
		return EventProtocol{}, invalid("data", "command %s expects an external payload, got a page", out.Command)
	case isPage:
		page, err := decodePage(data)
		if err != nil {
			return EventProtocol{}, err
		}
		out.Data = page
	default:
		var ext ExternalData
		if err := json.Unmarshal(rawData, &ext); err != nil {
			return EventProtocol{}, invalid("data", "must be a JSON object")
		}
		if _, err := ext.notification("data"); err != nil {
			return EventProtocol{}, err
		}
		out.Data = ext
	}

	return out, nil
}

func decodeEnum[T interface {
	~string
	Valid() bool
}](env map[string]json.RawMessage, key string, required bool, dst *T) error {
	raw, ok := env[key]
	if !ok || isNull(raw) {
		if required {
			return invalid(key, "required")
		}
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return invalid(key, "must be a string")
	}
	if !v.Valid() {
		return invalid(key, "unknown value %q", string(v))
	}
	*dst = v
	return nil
}

func decodePage(data map[string]json.RawMessage) (*Page, error) {
	var p Page
	for _, f := range pageFields {
		path := "data." + f.key
		raw, ok := data[f.key]
		if !ok || isNull(raw) {
			if f.required && (!ok || !f.nullable) {
				return nil, invalid(path, "required")
			}
			continue
		}
		if f.key == "notification" {
			opts, err := decodeOptions(raw, path)
			if err != nil {
				return nil, err
			}
			p.Notification = *opts
			continue
		}
		if err := json.Unmarshal(raw, f.target(&p)); err != nil {
			return nil, invalid(path, "%s", describe(err))
		}
	}

	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	if err := validate.Struct(&p); err != nil {
		return nil, fromValidator(err, "data")
	}
	return &p, nil
}

func decodeOptions(raw json.RawMessage, path string) (*NotificationOptions, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, invalid(path, "must be a JSON object")
	}

	var o NotificationOptions
	if err := decodeEnum(m, "level", true, &o.Level); err != nil {
		return nil, prefixed(err, path)
	}

	rawVia, ok := m["via"]
	if !ok {
		return nil, invalid(path+".via", "required")
	}
	if !isNull(rawVia) {
		var items []json.RawMessage
		if err := json.Unmarshal(rawVia, &items); err != nil {
			return nil, invalid(path+".via", "must be an array")
		}
		o.Via = make([]NotifyVia, 0, len(items))
		for i, item := range items {
			var via NotifyVia
			if err := json.Unmarshal(item, &via); err != nil {
				return nil, invalid(fmt.Sprintf("%s.via[%d]", path, i), "%s", describe(err))
			}
			o.Via = append(o.Via, via)
		}
	}

	var every NotifyEvery
	if err := decodeEnum(m, "every", false, &every); err != nil {
		return nil, prefixed(err, path)
	}
	if every != "" {
		o.Every = &every
	}

	if err := validate.Struct(&o); err != nil {
		return nil, fromValidator(err, path)
	}
	return &o, nil
}

func (d ExternalData) notification(path string) (*NotificationOptions, error) {
	v, ok := d["notification"]
	if !ok || v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, invalid(path+".notification", "unencodable value")
	}
	return decodeOptions(raw, path+".notification")
}

func fromValidator(err error, prefix string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid(prefix, "%v", err)
	}
	fe := verrs[0]
	ns := fe.Namespace()
	// Drop the Go struct name; the rest is already JSON-named.
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return invalid(prefix+"."+ns, "failed %q validation", fe.Tag())
}

func prefixed(err error, path string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return invalid(path+"."+ve.Path, "%s", ve.Reason)
	}
	return err
}

func describe(err error) string {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return fmt.Sprintf("expected %s, got %s", te.Type, te.Value)
	}
	return err.Error()
}

func hasAll(m map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if raw, ok := m[k]; !ok || isNull(raw) {
			return false
		}
	}
	return true
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
