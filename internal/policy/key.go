package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"parsera-notifier/internal/event"
)

const keyPrefix = "notify:last_fired:"

// Key identifies the cadence bucket of a set of options. Recipient order and
// duplicates do not change the key.
func Key(opts event.NotificationOptions) string {
	recipients := make([]string, 0, 2*len(opts.Via))
	for _, v := range opts.Via {
		if e := strings.ToLower(strings.TrimSpace(v.Email)); e != "" {
			recipients = append(recipients, "email:"+e)
		}
		if t := strings.TrimSpace(v.Telegram); t != "" {
			recipients = append(recipients, "telegram:"+t)
		}
	}
	sort.Strings(recipients)
	recipients = dedupSorted(recipients)

	every := ""
	if opts.Every != nil {
		every = string(*opts.Every)
	}

	h := sha256.New()
	h.Write([]byte(string(opts.Level)))
	h.Write([]byte{0})
	h.Write([]byte(every))
	for _, r := range recipients {
		h.Write([]byte{0})
		h.Write([]byte(r))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func dedupSorted(in []string) []string {
	out := in[:0]
	for i, s := range in {
		if i > 0 && s == in[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
