// Copyright (c) 2024 tgkit

package telegram

import (
	"regexp"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Filters declares the conditions of one handler registration. All
// declared conditions must pass for the handler to match (logical AND
// across fields and across several Filters values). A registration with
// no conditions at all is a catch-all for its category.
//
// Commands, Regexp, ContentTypes, ChatTypes and Func inspect the message
// payload and are only accepted on message-like handlers. When none of
// the records declare ContentTypes, message handlers are restricted to
// text content, matching the conventional default.
type Filters struct {
	// Commands matches `/name` tokens, case-sensitive, with an
	// optional @botname suffix stripped.
	Commands []string
	// Regexp is searched (not full-matched) against the message text.
	// Compiled once at registration; a bad pattern fails registration.
	Regexp string
	// ContentTypes restricts the message content tag (see ContentType).
	ContentTypes []string
	// ChatTypes restricts the chat type (private, group, supergroup,
	// channel).
	ChatTypes []string
	// Func is an arbitrary predicate over the message payload.
	Func func(*Message) bool
	// FuncUpdate is an arbitrary predicate over the whole update,
	// usable on every category.
	FuncUpdate func(*Update) bool
	// Custom references registered custom filters by key. A bool value
	// is compared against a BoolFilter's result; any other value is
	// handed to a ValueFilter. Unknown keys fail registration.
	Custom map[string]any
}

func (f Filters) isZero() bool {
	return len(f.Commands) == 0 && f.Regexp == "" && len(f.ContentTypes) == 0 &&
		len(f.ChatTypes) == 0 && f.Func == nil && f.FuncUpdate == nil && len(f.Custom) == 0
}

func (f Filters) messageOnly() bool {
	return len(f.Commands) > 0 || f.Regexp != "" || len(f.ContentTypes) > 0 ||
		len(f.ChatTypes) > 0 || f.Func != nil
}

type predicate func(*Update) bool

// FilterKind separates the two custom filter shapes.
type FilterKind int

const (
	// BoolKind filters take only the update; their result is compared
	// with the bool declared by the handler.
	BoolKind FilterKind = iota
	// ValueKind filters take the update and the declared value.
	ValueKind
)

// CustomFilter is a pluggable named predicate extending the built-in
// filter vocabulary.
type CustomFilter struct {
	kind    FilterKind
	boolFn  func(*Update) bool
	valueFn func(*Update, any) bool
}

func (f CustomFilter) Kind() FilterKind { return f.kind }

// BoolFilter builds a boolean-kind custom filter.
func BoolFilter(fn func(*Update) bool) CustomFilter {
	return CustomFilter{kind: BoolKind, boolFn: fn}
}

// ValueFilter builds a value-kind custom filter.
func ValueFilter(fn func(*Update, any) bool) CustomFilter {
	return CustomFilter{kind: ValueKind, valueFn: fn}
}

// FilterRegistry maps custom filter keys to their predicates. Mutated at
// startup, read on every handler registration.
type FilterRegistry struct {
	mu sync.RWMutex
	m  map[string]CustomFilter
}

func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{m: make(map[string]CustomFilter)}
}

// Register adds a custom filter under key. Registering an existing key
// is an error; use Replace for a deliberate override.
func (r *FilterRegistry) Register(key string, filter CustomFilter) error {
	if key == "" {
		return errors.New("filter key cannot be empty")
	}
	if filter.boolFn == nil && filter.valueFn == nil {
		return errors.Errorf("filter %q has no predicate", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[key]; ok {
		return errors.Errorf("filter %q is already registered", key)
	}
	r.m[key] = filter
	return nil
}

// Replace installs filter under key, overriding any previous
// registration.
func (r *FilterRegistry) Replace(key string, filter CustomFilter) {
	r.mu.Lock()
	r.m[key] = filter
	r.mu.Unlock()
}

func (r *FilterRegistry) lookup(key string) (CustomFilter, bool) {
	r.mu.RLock()
	f, ok := r.m[key]
	r.mu.RUnlock()
	return f, ok
}

func isMessageCategory(cat UpdateCategory) bool {
	switch cat {
	case CategoryMessage, CategoryEditedMessage, CategoryChannelPost, CategoryEditedChannelPost:
		return true
	}
	return false
}

// resolveFilters flattens the declared records into a list of predicates
// evaluated at dispatch time. All configuration errors (unknown custom
// key, bad regexp, message filters on a non-message category) surface
// here, never during dispatch.
func resolveFilters(reg *FilterRegistry, botName func() string, cat UpdateCategory, records []Filters) ([]predicate, error) {
	allZero := true
	for _, rec := range records {
		if !rec.isZero() {
			allZero = false
		}
		if rec.messageOnly() && !isMessageCategory(cat) {
			return nil, errors.Errorf("message filters are not applicable to %s handlers", cat)
		}
	}
	if len(records) == 0 || allZero {
		// Catch-all: matches every update of its category.
		return nil, nil
	}

	var preds []predicate
	sawContentTypes := false

	for _, rec := range records {
		if len(rec.Commands) > 0 {
			commands := make(map[string]bool, len(rec.Commands))
			for _, cmd := range rec.Commands {
				commands[cmd] = true
			}
			preds = append(preds, func(u *Update) bool {
				msg := u.EffectiveMessage()
				if msg == nil || !IsCommand(msg.Text) {
					return false
				}
				if mention := extractCommandMention(msg.Text); mention != "" {
					if name := botName(); name != "" && mention != name {
						return false
					}
				}
				return commands[ExtractCommand(msg.Text)]
			})
		}

		if rec.Regexp != "" {
			re, err := regexp.Compile(rec.Regexp)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid regexp filter %q", rec.Regexp)
			}
			preds = append(preds, func(u *Update) bool {
				msg := u.EffectiveMessage()
				return msg != nil && msg.Text != "" && re.MatchString(msg.Text)
			})
		}

		if len(rec.ContentTypes) > 0 {
			sawContentTypes = true
			types := make(map[string]bool, len(rec.ContentTypes))
			for _, t := range rec.ContentTypes {
				types[t] = true
			}
			preds = append(preds, func(u *Update) bool {
				msg := u.EffectiveMessage()
				return msg != nil && types[msg.ContentType()]
			})
		}

		if len(rec.ChatTypes) > 0 {
			types := make(map[string]bool, len(rec.ChatTypes))
			for _, t := range rec.ChatTypes {
				types[t] = true
			}
			preds = append(preds, func(u *Update) bool {
				msg := u.EffectiveMessage()
				return msg != nil && types[msg.Chat.Type]
			})
		}

		if fn := rec.Func; fn != nil {
			preds = append(preds, func(u *Update) bool {
				msg := u.EffectiveMessage()
				return msg != nil && fn(msg)
			})
		}

		if fn := rec.FuncUpdate; fn != nil {
			preds = append(preds, func(u *Update) bool { return fn(u) })
		}

		if len(rec.Custom) > 0 {
			keys := make([]string, 0, len(rec.Custom))
			for key := range rec.Custom {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				declared := rec.Custom[key]
				filter, ok := reg.lookup(key)
				if !ok {
					return nil, errors.Errorf("unknown filter key %q, register it before use", key)
				}
				switch filter.kind {
				case BoolKind:
					want, ok := declared.(bool)
					if !ok {
						return nil, errors.Errorf("filter %q expects a bool, got %T", key, declared)
					}
					fn := filter.boolFn
					preds = append(preds, func(u *Update) bool { return fn(u) == want })
				case ValueKind:
					fn := filter.valueFn
					value := declared
					preds = append(preds, func(u *Update) bool { return fn(u, value) })
				}
			}
		}
	}

	if isMessageCategory(cat) && !sawContentTypes {
		textOnly := func(u *Update) bool {
			msg := u.EffectiveMessage()
			return msg != nil && msg.ContentType() == ContentText
		}
		preds = append([]predicate{textOnly}, preds...)
	}

	return preds, nil
}

func matchesAll(preds []predicate, u *Update) bool {
	for _, p := range preds {
		if !p(u) {
			return false
		}
	}
	return true
}
