package validation

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidOwnerID = errors.New("invalid owner id")

const maxOwnerIDLen = 128

var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]+$`)

// NormalizeOwnerID проверяет идентификатор вызывающего (сессия, пользователь)
// и возвращает его без пробелов по краям.
func NormalizeOwnerID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxOwnerIDLen || !ownerIDPattern.MatchString(id) {
		return "", ErrInvalidOwnerID
	}
	return id, nil
}
