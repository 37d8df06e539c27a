// Package session holds the authenticated user for the lifetime of the app
// and keeps it in the key/value store between runs.
package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const DefaultDisplayName = "Usuário"

// Profile is the canonical user record consumed by every screen.
type Profile struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"profile_image_url,omitempty"`
}

// DisplayName falls back from name to email to a fixed placeholder.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != "" {
		return p.Email
	}
	return DefaultDisplayName
}

type Session struct {
	Token string  `json:"token,omitempty"`
	User  Profile `json:"user"`
}

// Normalize turns a login payload into a Session. Payloads come either as
// {"token": ..., "user": {...}} or as a flat user object, with a few aliased
// field names. An empty payload yields an empty but valid session.
func Normalize(payload []byte) (Session, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return Session{}, nil
	}
	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return Session{}, fmt.Errorf("decode session payload: %w", err)
	}
	if root == nil {
		return Session{}, nil
	}

	user, _ := root["user"].(map[string]any)
	pick := func(keys ...string) string {
		for _, src := range []map[string]any{user, root} {
			if src == nil {
				continue
			}
			for _, k := range keys {
				if v := asString(src[k]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	return Session{
		Token: firstNonEmpty(asString(root["token"]), asString(root["access_token"]), asString(root["accessToken"])),
		User: Profile{
			ID:        pick("id", "user_id", "userId"),
			Name:      pick("name", "username"),
			Email:     pick("email"),
			AvatarURL: pick("profile_image_url", "avatar_url", "avatarUrl"),
		},
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
