package backend

import (
	"encoding/json"
	"strings"

	"cms-console/internal/auth"
	"cms-console/internal/content"
)

type ID = content.ID

// RoleNames accepts roles as plain strings or as {name} objects and strips
// the ROLE_ prefix.
type RoleNames []string

func (r *RoleNames) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	names := make([]string, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err != nil {
			var obj struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(item, &obj); err != nil {
				return err
			}
			name = obj.Name
		}
		if name = auth.NormalizeRole(name); name != "" {
			names = append(names, name)
		}
	}
	*r = names
	return nil
}

type User struct {
	ID       ID        `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Roles    RoleNames `json:"roles"`
}

type NewUser struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type UserUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Role struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// DisplayName strips the ROLE_ prefix for rendering.
func (r Role) DisplayName() string {
	return auth.NormalizeRole(r.Name)
}

type Module struct {
	ID         ID     `json:"id"`
	ModuleName string `json:"moduleName"`
}

type Permission struct {
	ModuleName string `json:"moduleName"`
	CanSelect  bool   `json:"canSelect"`
	CanCreate  bool   `json:"canCreate"`
	CanUpdate  bool   `json:"canUpdate"`
	CanDelete  bool   `json:"canDelete"`
}

type NotificationCategory string

const (
	CategorySystemAlert NotificationCategory = "SYSTEM_ALERT"
	CategoryAccount     NotificationCategory = "ACCOUNT"
	CategoryPromotion   NotificationCategory = "PROMOTION"
)

var NotificationCategories = []NotificationCategory{CategorySystemAlert, CategoryAccount, CategoryPromotion}

func ParseCategory(value string) (NotificationCategory, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, c := range NotificationCategories {
		if string(c) == value {
			return c, true
		}
	}
	return "", false
}

type Notification struct {
	ID          ID     `json:"id"`
	Email       string `json:"email"`
	Subject     string `json:"subject"`
	MessageBody string `json:"messageBody"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	RetryTimes  int    `json:"retryTimes"`
	CreatedAt   string `json:"createdAt"`
}

type ManualNotification struct {
	Email       string               `json:"email"`
	Subject     string               `json:"subject"`
	MessageBody string               `json:"messageBody"`
	Category    NotificationCategory `json:"category"`
}

type Broadcast struct {
	Subject     string               `json:"subject"`
	MessageBody string               `json:"messageBody"`
	Category    NotificationCategory `json:"category"`
}
