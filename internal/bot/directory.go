package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

var (
	ErrUnknownPlayer   = errors.New("bot: no player by that name in this room")
	ErrAmbiguousPlayer = errors.New("bot: several players share that name in this room")
)

const lookupTimeout = 2 * time.Second

// 방별 닉네임 -> user id 목록, id -> 최근 닉네임
func nickKey(account string) string     { return "bot:nick:" + account }
func namesKey(room, name string) string { return "bot:names:" + room + ":" + name }

// Directory remembers which account ids spoke under which display name in
// each room. Names are only for presentation and target lookup; accounts
// are always ids.
type Directory struct {
	store store.Backend
}

func NewDirectory(b store.Backend) *Directory { return &Directory{store: b} }

// Remember records that account spoke in room as name.
func (d *Directory) Remember(ctx context.Context, room, account, name string) error {
	if account == "" || name == "" {
		return nil
	}
	var current bool
	err := d.store.View(ctx, func(kv store.KV) error {
		nick, err := kv.Get(ctx, nickKey(account))
		if err != nil || string(nick) != name {
			return err
		}
		ids, err := readIDs(ctx, kv, namesKey(room, name))
		current = slices.Contains(ids, account)
		return err
	})
	if err != nil || current {
		return err
	}
	return d.store.Update(ctx, func(kv store.KV) error {
		kv.Set(nickKey(account), []byte(name))
		ids, err := readIDs(ctx, kv, namesKey(room, name))
		if err != nil || slices.Contains(ids, account) {
			return err
		}
		return writeIDs(kv, namesKey(room, name), append(ids, account))
	})
}

// Resolve maps a challenge target to an account id. A name currently used
// by exactly one account in room wins; otherwise arg must be a known id.
func (d *Directory) Resolve(ctx context.Context, room, arg string) (string, error) {
	if arg == "" {
		return "", ErrUnknownPlayer
	}
	var matches []string
	var known bool
	err := d.store.View(ctx, func(kv store.KV) error {
		ids, err := readIDs(ctx, kv, namesKey(room, arg))
		if err != nil {
			return err
		}
		// 닉네임을 바꾼 id는 옛 이름으로 찾지 않는다
		for _, id := range ids {
			nick, err := kv.Get(ctx, nickKey(id))
			if err != nil {
				return err
			}
			if string(nick) == arg {
				matches = append(matches, id)
			}
		}
		if len(matches) > 0 {
			return nil
		}
		nick, err := kv.Get(ctx, nickKey(arg))
		known = nick != nil
		return err
	})
	switch {
	case err != nil:
		return "", err
	case len(matches) == 1:
		return matches[0], nil
	case len(matches) > 1:
		return "", ErrAmbiguousPlayer
	case known:
		return arg, nil
	default:
		return "", ErrUnknownPlayer
	}
}

// Name returns the last display name seen for account, or account itself.
func (d *Directory) Name(ctx context.Context, account string) string {
	var name string
	_ = d.store.View(ctx, func(kv store.KV) error {
		nick, err := kv.Get(ctx, nickKey(account))
		name = string(nick)
		return err
	})
	if name == "" {
		return account
	}
	return name
}

// DisplayName is Name with its own short deadline, for formatters.
func (d *Directory) DisplayName(account string) string {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	return d.Name(ctx, account)
}

func readIDs(ctx context.Context, kv store.KV, key string) ([]string, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return ids, nil
}

func writeIDs(kv store.KV, key string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	kv.Set(key, raw)
	return nil
}
